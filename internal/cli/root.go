// Package cli implements the showlogic command line: the serve command that
// runs the engine, and the maintenance commands used around a show.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/show-logic-core/internal/infrastructure/config"
)

// defaultConfigPath is used when neither --config nor SHOWLOGIC_CONFIG is set.
const defaultConfigPath = "configs/config.yaml"

// BuildInfo is set at build time via ldflags in cmd/showlogic.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// options holds the values of the persistent flags.
type options struct {
	configPath string
	info       BuildInfo

	// dial replaces mqtt.Connect in tests.
	dial func(config.MQTTConfig) (busClient, error)
}

// loadConfig reads the config file named by --config.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", o.configPath, err)
	}
	return cfg, nil
}

// NewRootCommand builds the command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &options{info: info}

	root := &cobra.Command{
		Use:   "showlogic",
		Short: "Show Logic runs show-control actions",
		Long: `Show Logic stores named actions (ordered lists of show triggers) and runs
them when an operator, a MIDI note, a slide or a remote system asks.

Run 'showlogic serve' to start the engine, API and MQTT listener.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", envOr("SHOWLOGIC_CONFIG", defaultConfigPath),
		"Path to the configuration file")

	root.AddCommand(
		newServeCommand(opts),
		newActionsCommand(opts),
		newRunCommand(opts),
		newActivateCommand(opts),
		newTokenCommand(opts),
		newMigrateCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

// Execute runs the command line with ctx, which is cancelled on shutdown signals.
func Execute(ctx context.Context, info BuildInfo, args []string, out, errOut io.Writer) error {
	root := NewRootCommand(info)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newVersionCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "showlogic %s (commit %s, built %s)\n",
				opts.info.Version, opts.info.Commit, opts.info.Date)
		},
	}
}
