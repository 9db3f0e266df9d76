// Package cmd holds the quotectl commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-sync/internal/bootstrap"
	"github.com/jsamuelsen/quote-sync/internal/domain"
	"github.com/jsamuelsen/quote-sync/internal/platform/config"
	"github.com/jsamuelsen/quote-sync/internal/platform/logging"
	"github.com/jsamuelsen/quote-sync/internal/ports"
)

// options are the persistent flags shared by every command.
type options struct {
	configDir string
	profile   string
	dataPath  string
	verbose   bool
}

// session is the state opened before a command runs.
type session struct {
	cfg        *config.Config
	components *bootstrap.Components
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	s := &session{}

	root := &cobra.Command{
		Use:   "quotectl",
		Short: "Manage and synchronize the local quote collection",
		Long: `quotectl works on the same quote store as the service.

It can add, import and export quotes, pick a random one and run a
sync cycle against the configured remote.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			return s.open(cmd, opts)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return s.close()
		},
	}

	defaultProfile := os.Getenv("APP_ENVIRONMENT")
	if defaultProfile == "" {
		defaultProfile = "local"
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configDir, "config-dir", config.DefaultConfigDir, "directory holding base.yaml and profile files")
	flags.StringVarP(&opts.profile, "profile", "p", defaultProfile, "configuration profile")
	flags.StringVar(&opts.dataPath, "data", "", "database path (overrides storage.path)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newAddCmd(s),
		newListCmd(s),
		newRandomCmd(s),
		newCategoriesCmd(s),
		newImportCmd(s),
		newExportCmd(s),
		newResetCmd(s),
		newSyncCmd(s),
		newPushCmd(s),
	)

	return root
}

func (s *session) open(cmd *cobra.Command, opts *options) error {
	cfg, err := config.LoadFrom(opts.configDir, opts.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if opts.dataPath != "" {
		cfg.Storage.Path = opts.dataPath
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logCfg := bootstrap.LoggingConfig(cfg)
	logCfg.Format = "pretty"
	logCfg.Level = "warn"
	if opts.verbose {
		logCfg.Level = "debug"
	}

	logger := logging.NewWithWriter(logCfg, cmd.ErrOrStderr())

	components, err := bootstrap.New(cmd.Context(), cfg, logger, printNotifier(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	s.cfg = cfg
	s.components = components

	return nil
}

func (s *session) close() error {
	if s.components == nil {
		return nil
	}

	err := s.components.Close()
	s.components = nil

	return err
}

// printNotifier echoes notifications as status lines.
func printNotifier(w io.Writer) ports.Notifier {
	return ports.NotifierFunc(func(_ context.Context, n domain.Notification) {
		fmt.Fprintf(w, "[%s] %s\n", n.Severity, n.Message)
	})
}

// errNoQuotes is returned by list when the filter matches nothing.
var errNoQuotes = errors.New("no quotes match")
