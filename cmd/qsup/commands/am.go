package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/qsup/am"
	"github.com/teranos/qsup/display"
	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.AM + " Manage qsup configuration",
	Long: sym.AM + ` am — Manage qsup configuration ("I am")

Display and check qsup configuration settings.

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/qsup/am.toml)
3. User config (~/.qsup/am.toml)
4. Project config (qsup.toml, searched up from the current directory)
5. Explicit config (--config)
6. Environment variables (QSUP_* prefix, plus SBATCH_ACCOUNT and SBATCH_PARTITION)
7. Command line flags

Examples:
  qsup am show                          # Show current configuration
  qsup am show --format json            # Show configuration in JSON format
  qsup am get supervisor.monitor_timeout
  qsup am validate                      # Validate current configuration
  qsup am where                         # Show where each setting came from`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective qsup configuration from all sources",
	Args:  cobra.NoArgs,
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., scheduler.sacct_path, supervisor.monitor_interval)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate the effective configuration and report unknown keys in config files",
	Args:  cobra.NoArgs,
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and which files were checked.

Lists the config files in order of precedence, showing which exist, then
every effective setting with the source it came from.`,
	Args: cobra.NoArgs,
	RunE: runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", display.FormatTOML, "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	// AllSettings keeps durations as written ("30s") rather than nanoseconds.
	data, err := display.Marshal(configFormat, am.GetViper().AllSettings())
	if err != nil {
		return err
	}
	if configFormat != display.FormatJSON {
		fmt.Fprintln(cmd.OutOrStdout(), "# qsup configuration")
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if !am.GetViper().IsSet(key) {
		return errors.WithHint(
			errors.Newf("configuration key %q not found", key),
			"list the available keys with `qsup am show`",
		)
	}

	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	for _, w := range am.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", sym.Warn, w)
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration is valid\n", sym.OK)
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), intro)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  [DEFAULT]  Built-in defaults")
	for _, cp := range intro.Files {
		status := "missing"
		if _, err := os.Stat(cp.Path); err == nil {
			status = "found"
		}
		fmt.Fprintf(out, "  [%-8s] %s (%s)\n", cp.Source, cp.Path, status)
	}
	fmt.Fprintln(out, "  [ENV]      QSUP_* environment variables")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Active configuration:")
	for _, s := range intro.Settings {
		value := fmt.Sprintf("%v", s.Value)
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		origin := string(s.Source)
		if s.SourcePath != "" && s.Source != am.SourceDefault {
			origin += " " + s.SourcePath
		}
		fmt.Fprintf(out, "  %s = %s  (%s)\n", s.Key, value, origin)
	}
	return nil
}
