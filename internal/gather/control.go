package gather

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiankov/corroborate/internal/model"
)

// control is the cooperative pause/stop flag of one run
type control struct {
	mu      sync.Mutex
	state   model.RunState
	resume  chan struct{} // Closed while the run is not paused
	stopped chan struct{}
}

func newControl() *control {
	c := &control{
		state:   model.RunRunning,
		resume:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	close(c.resume)
	return c
}

func (c *control) current() model.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *control) pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != model.RunRunning {
		return fmt.Errorf("pause: run is %s", c.state)
	}
	c.state = model.RunPaused
	c.resume = make(chan struct{})
	return nil
}

func (c *control) unpause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case model.RunStopped:
		return model.ErrRunStopped
	case model.RunPaused:
		c.state = model.RunRunning
		close(c.resume)
	}
	return nil
}

// stop reports whether this call stopped the run
func (c *control) stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == model.RunStopped {
		return false
	}
	if c.state == model.RunPaused {
		close(c.resume)
	}
	c.state = model.RunStopped
	close(c.stopped)
	return true
}

// checkpoint blocks while the run is paused and reports whether work may continue
func (c *control) checkpoint(ctx context.Context) bool {
	for {
		c.mu.Lock()
		state, resume := c.state, c.resume
		c.mu.Unlock()

		if state == model.RunStopped {
			return false
		}
		if state != model.RunPaused {
			return ctx.Err() == nil
		}

		select {
		case <-resume:
		case <-c.stopped:
			return false
		case <-ctx.Done():
			return false
		}
	}
}
