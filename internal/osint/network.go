// Package osint derives network, temporal, sentiment, geospatial and numeric
// patterns from aggregated evidence.
package osint

import (
	"sort"
)

const (
	influenceDamping    = 0.85
	influenceIterations = 20
)

// Node is an entity in the network
type Node struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Influence   float64           `json:"influence_score"`
	connections map[string]struct{}
}

// Edge is a weighted directed relationship
type Edge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"type"`
	Weight   float64 `json:"weight"`
}

// CentralNode is one entry of CentralNodes
type CentralNode struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Influence   float64           `json:"influence_score"`
	Connections int               `json:"connections_count"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NetworkStats summarizes the network
type NetworkStats struct {
	Nodes              int            `json:"total_nodes"`
	Edges              int            `json:"total_edges"`
	AverageConnections float64        `json:"average_connections"`
	Communities        int            `json:"total_communities"`
	Density            float64        `json:"network_density"`
	NodeTypes          map[string]int `json:"node_types"`
}

// Network holds entities and their relationships. Edges are directed for
// influence ranking, while connections are tracked undirected.
type Network struct {
	nodes       map[string]*Node
	order       []string
	edges       []Edge
	communities [][]string
}

// NewNetwork creates an empty network
func NewNetwork() *Network {
	return &Network{nodes: make(map[string]*Node)}
}

// AddEntity adds a node, or updates type and metadata of an existing one
func (n *Network) AddEntity(id, typ string, metadata map[string]string) {
	if node, ok := n.nodes[id]; ok {
		node.Type = typ
		node.Metadata = metadata
		return
	}
	n.nodes[id] = &Node{ID: id, Type: typ, Metadata: metadata, connections: make(map[string]struct{})}
	n.order = append(n.order, id)
}

// AddConnection adds an edge between two known entities.
// It returns false when either endpoint is unknown.
func (n *Network) AddConnection(source, target, relation string, weight float64) bool {
	src, ok := n.nodes[source]
	if !ok {
		return false
	}
	dst, ok := n.nodes[target]
	if !ok {
		return false
	}
	n.edges = append(n.edges, Edge{Source: source, Target: target, Relation: relation, Weight: weight})
	src.connections[target] = struct{}{}
	dst.connections[source] = struct{}{}
	return true
}

// Len returns the node count
func (n *Network) Len() int { return len(n.nodes) }

// CalculateInfluence runs a PageRank-like update over incoming edges and
// stores scores normalized by the maximum, so the top node scores 1.
func (n *Network) CalculateInfluence() map[string]float64 {
	if len(n.nodes) == 0 {
		return map[string]float64{}
	}

	incoming := make(map[string][]Edge, len(n.nodes))
	for _, e := range n.edges {
		incoming[e.Target] = append(incoming[e.Target], e)
	}

	scores := make(map[string]float64, len(n.nodes))
	for id := range n.nodes {
		scores[id] = 1
	}
	for i := 0; i < influenceIterations; i++ {
		next := make(map[string]float64, len(n.nodes))
		for _, id := range n.order {
			score := 1 - influenceDamping
			for _, e := range incoming[id] {
				if out := len(n.nodes[e.Source].connections); out > 0 {
					score += influenceDamping * (scores[e.Source] / float64(out)) * e.Weight
				}
			}
			next[id] = score
		}
		scores = next
	}

	maxScore := 0.0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	normalized := make(map[string]float64, len(scores))
	for id, s := range scores {
		v := 0.0
		if maxScore > 0 {
			v = s / maxScore
		}
		n.nodes[id].Influence = v
		normalized[id] = v
	}
	return normalized
}

// DetectCommunities returns connected components of the undirected
// connection graph with more than one member. Members are sorted.
func (n *Network) DetectCommunities() [][]string {
	visited := make(map[string]bool, len(n.nodes))
	var communities [][]string

	for _, start := range n.order {
		if visited[start] {
			continue
		}
		var members []string
		stack := []string{start}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[id] {
				continue
			}
			visited[id] = true
			members = append(members, id)
			for peer := range n.nodes[id].connections {
				if !visited[peer] {
					stack = append(stack, peer)
				}
			}
		}
		if len(members) > 1 {
			sort.Strings(members)
			communities = append(communities, members)
		}
	}

	n.communities = communities
	return communities
}

// CentralNodes recomputes influence and returns the top k nodes
func (n *Network) CentralNodes(k int) []CentralNode {
	n.CalculateInfluence()

	ids := append([]string(nil), n.order...)
	sort.SliceStable(ids, func(i, j int) bool {
		return n.nodes[ids[i]].Influence > n.nodes[ids[j]].Influence
	})
	if k >= 0 && len(ids) > k {
		ids = ids[:k]
	}

	out := make([]CentralNode, 0, len(ids))
	for _, id := range ids {
		node := n.nodes[id]
		out = append(out, CentralNode{
			ID:          id,
			Type:        node.Type,
			Influence:   node.Influence,
			Connections: len(node.connections),
			Metadata:    node.Metadata,
		})
	}
	return out
}

// Stats reports size, density and node types. Communities counts the
// result of the last DetectCommunities call.
func (n *Network) Stats() NetworkStats {
	stats := NetworkStats{NodeTypes: make(map[string]int)}
	if len(n.nodes) == 0 {
		return stats
	}

	total := 0
	for _, node := range n.nodes {
		total += len(node.connections)
		stats.NodeTypes[node.Type]++
	}
	count := len(n.nodes)
	stats.Nodes = count
	stats.Edges = len(n.edges)
	stats.AverageConnections = round(float64(total)/float64(count), 2)
	stats.Communities = len(n.communities)
	if count > 1 {
		stats.Density = float64(len(n.edges)) / float64(count*(count-1))
	}
	return stats
}
