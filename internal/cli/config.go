package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/corroborate/internal/model"
)

var (
	configShowJSON  bool
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialise configuration",
	Long: `Inspect and initialise the corroborate configuration.

Settings are resolved in this order, first match wins:
  flags, CORROBORATE_<SECTION>_<KEY> environment variables,
  the config file, built-in defaults.
Provider keys are also read from OPENAI_API_KEY and ANTHROPIC_API_KEY.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintf(os.Stderr, "# from %s\n", used)
		} else {
			fmt.Fprintln(os.Stderr, "# no config file, defaults and environment only")
		}
		return showConfig(cmd.OutOrStdout(), redactConfig(*cfg), configShowJSON)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use, or where init would write one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintln(cmd.OutOrStdout(), used)
			return nil
		}
		path, err := configTarget()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (not created)\n", path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}
		if err := writeDefaultConfig(path, configInitForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  review it with: corroborate config show")
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "print JSON instead of YAML")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// configTarget honours --config before falling back to the home directory
func configTarget() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	path, err := defaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return path, nil
}

// redactConfig masks credentials and proxy URLs, which may embed them
func redactConfig(cfg model.Config) model.Config {
	mask := func(s *string) {
		if *s != "" {
			*s = "********"
		}
	}
	mask(&cfg.LLM.APIKey)
	mask(&cfg.HTTP.HTTPProxy)
	mask(&cfg.HTTP.HTTPSProxy)
	return cfg
}

func showConfig(w io.Writer, cfg model.Config, asJSON bool) error {
	if asJSON {
		return writeJSON(w, cfg)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

const configHeader = `# corroborate configuration
#
# Any key can be overridden from the environment as CORROBORATE_<SECTION>_<KEY>,
# for example CORROBORATE_VERIFY_STORE=sqlite or CORROBORATE_CACHE_TTL=2h.
# Keep provider keys out of this file: export OPENAI_API_KEY or
# ANTHROPIC_API_KEY instead, or OLLAMA_BASE_URL for a local model.

`

// writeDefaultConfig writes the defaults to path, refusing to replace an
// existing file unless force is set
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	body, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), body...), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
