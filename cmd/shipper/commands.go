package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/shipper/internal/core/target"
	"github.com/artpar/shipper/internal/shell/builder"
	"github.com/artpar/shipper/internal/shell/deployer"
	"github.com/artpar/shipper/internal/shell/scaffold"
	"github.com/artpar/shipper/internal/shell/sshx"
	"github.com/artpar/shipper/internal/shell/store"
)

// app carries the loaded configuration and logger into every subcommand.
type app struct {
	cfg    *Config
	logger *slog.Logger
}

// NewRootCommand builds the CLI command tree.
func NewRootCommand() *cobra.Command {
	var (
		configPath string
		a          app
	)

	root := &cobra.Command{
		Use:           "shipper",
		Short:         "Build and deploy containerized webapps to a single host",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = SetupLogger(cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(
		newInitCommand(&a),
		newBuildCommand(&a),
		newDeployCommand(&a),
		newRunCommand(&a),
		newStopCommand(&a),
		newHistoryCommand(&a),
		newVersionCommand(),
	)
	return root
}

// =============================================================================
// init
// =============================================================================

func newInitCommand(a *app) *cobra.Command {
	var (
		name string
		dir  string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new target's filesystem layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = filepath.Join("apps", name)
			}
			return scaffold.Create(dir, name, a.logger)
		},
	}
	cmd.Flags().StringVar(&name, "target", "", "target name")
	cmd.Flags().StringVar(&dir, "dir", "", "target directory (default apps/<target>)")
	cmd.MarkFlagRequired("target")
	return cmd
}

// =============================================================================
// build
// =============================================================================

func newBuildCommand(a *app) *cobra.Command {
	var (
		name  string
		clean bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble the target's deployable artifact directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.cfg.FindTarget(name)
			if err != nil {
				return err
			}

			var opts []builder.Option
			if dir := a.cfg.Build.WebappTemplates; dir != "" {
				opts = append(opts, builder.WithWebappTemplates(os.DirFS(dir)))
			}
			if dir := a.cfg.Build.NginxTemplates; dir != "" {
				opts = append(opts, builder.WithNginxTemplates(os.DirFS(dir)))
			}

			buildErr := builder.New(t, a.logger, opts...).Build(clean)
			a.recordBuild(cmd.Context(), t.Name, t.Domain, buildErr)
			return buildErr
		},
	}
	cmd.Flags().StringVar(&name, "target", "", "target name")
	cmd.Flags().BoolVar(&clean, "clean", false, "remove any prior build directory first")
	cmd.MarkFlagRequired("target")
	return cmd
}

// recordBuild writes a build event to the ledger when history is enabled.
func (a *app) recordBuild(ctx context.Context, targetName, host string, buildErr error) {
	ledger := a.openHistory()
	if ledger == nil {
		return
	}
	defer ledger.Close()

	event := &store.Event{
		Target: targetName,
		Action: store.ActionBuild,
		Host:   host,
		Status: store.StatusSucceeded,
	}
	if buildErr != nil {
		event.Status = store.StatusFailed
		event.Error = buildErr.Error()
	}
	if err := ledger.RecordEvent(ctx, event); err != nil {
		a.logger.Warn("failed to record history event", "error", err)
	}
}

// =============================================================================
// deploy / run / stop
// =============================================================================

func newDeployCommand(a *app) *cobra.Command {
	return newLifecycleCommand(a, "deploy",
		"Provision the target's host and deploy the built artifact",
		func(ctx context.Context, d *deployer.Deployer, t *target.Target) error {
			return d.Deploy(ctx, t)
		})
}

func newRunCommand(a *app) *cobra.Command {
	return newLifecycleCommand(a, "run",
		"Start the deployed service and the reverse proxy",
		func(ctx context.Context, d *deployer.Deployer, t *target.Target) error {
			return d.Start(ctx, t)
		})
}

func newStopCommand(a *app) *cobra.Command {
	return newLifecycleCommand(a, "stop",
		"Stop the deployed service",
		func(ctx context.Context, d *deployer.Deployer, t *target.Target) error {
			return d.Stop(ctx, t)
		})
}

func newLifecycleCommand(a *app, use, short string, run func(context.Context, *deployer.Deployer, *target.Target) error) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.cfg.FindTarget(name)
			if err != nil {
				return err
			}

			var opts []deployer.Option
			ledger := a.openHistory()
			if ledger != nil {
				defer ledger.Close()
				opts = append(opts, deployer.WithHistory(ledger))
			}

			d := deployer.New(a.dialFunc(), a.logger, opts...)
			return run(cmd.Context(), d, t)
		},
	}
	cmd.Flags().StringVar(&name, "target", "", "target name")
	cmd.MarkFlagRequired("target")
	return cmd
}

// dialFunc adapts the configured SSH settings into the deployer's dialer.
func (a *app) dialFunc() deployer.DialFunc {
	cfg := sshx.Config{
		User:           a.cfg.SSH.User,
		Port:           a.cfg.SSH.Port,
		KeyFile:        a.cfg.SSH.KeyFile,
		ConnectTimeout: a.cfg.SSH.ConnectTimeout,
		CommandTimeout: a.cfg.SSH.CommandTimeout,
	}
	return func(_ context.Context, host string) (deployer.Session, error) {
		return sshx.Dial(host, cfg)
	}
}

// openHistory opens the ledger, or returns nil when disabled or unavailable.
func (a *app) openHistory() store.Store {
	if !a.cfg.History.Enabled {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.History.DSN), 0o755); err != nil {
		a.logger.Warn("history disabled", "error", err)
		return nil
	}
	ledger, err := store.NewSQLiteStore(a.cfg.History.DSN)
	if err != nil {
		a.logger.Warn("history disabled", "error", err)
		return nil
	}
	return ledger
}

// =============================================================================
// history
// =============================================================================

func newHistoryCommand(a *app) *cobra.Command {
	var (
		name  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded lifecycle operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger := a.openHistory()
			if ledger == nil {
				return fmt.Errorf("history is disabled in config")
			}
			defer ledger.Close()

			events, err := ledger.ListEvents(cmd.Context(), name, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tTARGET\tACTION\tHOST\tSTATUS\tERROR")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format(time.RFC3339), e.Target, e.Action, e.Host, e.Status, e.Error)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&name, "target", "", "filter by target name")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	return cmd
}

// =============================================================================
// version
// =============================================================================

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shipper %s (built %s)\n", Version, BuildTime)
		},
	}
}
