// Package deployer drives remote host state for a target: one-time
// provisioning, artifact upload, certificate setup, and start/stop of the
// deployed compose stack. All remote work for one call runs sequentially
// over a single session, released on every exit path.
package deployer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artpar/shipper/internal/core/remotecmd"
	"github.com/artpar/shipper/internal/core/target"
	"github.com/artpar/shipper/internal/shell/sshx"
	"github.com/artpar/shipper/internal/shell/store"
)

// =============================================================================
// Collaborators
// =============================================================================

// Session is the remote command/file-transfer channel the deployer runs
// against. *sshx.Session implements it.
type Session interface {
	Run(ctx context.Context, args []string) error
	Upload(ctx context.Context, localDir, remoteDir string) error
	Close() error
}

// DialFunc opens a session to the given host.
type DialFunc func(ctx context.Context, host string) (Session, error)

// =============================================================================
// Errors
// =============================================================================

// StepError identifies which provisioning step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Deployer
// =============================================================================

// Deployer executes deploy, run, and stop against a target's host.
type Deployer struct {
	dial   DialFunc
	events store.Store // optional history ledger
	logger *slog.Logger
}

// Option customizes a Deployer.
type Option func(*Deployer)

// WithHistory attaches a ledger recording each operation's outcome.
// Recording is best effort and never fails the operation.
func WithHistory(s store.Store) Option {
	return func(d *Deployer) { d.events = s }
}

// New creates a deployer that opens sessions through dial.
func New(dial DialFunc, logger *slog.Logger, opts ...Option) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Deployer{
		dial:   dial,
		logger: logger.With("component", "deployer"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// =============================================================================
// Deploy
// =============================================================================

// Deploy provisions the target's host and brings the built artifact under
// the reverse proxy with a certificate. Steps run in strict order; the
// first failure aborts the rest. Provisioning steps are conditional on
// probes, so re-running after a failure is safe.
func (d *Deployer) Deploy(ctx context.Context, t *target.Target) error {
	return d.withSession(ctx, t, store.ActionDeploy, func(ctx context.Context, s Session) error {
		if _, err := d.ensureInstalled(ctx, s, "docker",
			remotecmd.CommandExists("docker"), remotecmd.InstallDocker()); err != nil {
			return &StepError{Step: "ensure docker", Err: err}
		}
		if _, err := d.ensureInstalled(ctx, s, "python",
			remotecmd.CommandExists("python"), remotecmd.AptGetInstall("python-is-python3")); err != nil {
			return &StepError{Step: "ensure python", Err: err}
		}

		nginxInstalled, err := d.ensureInstalled(ctx, s, "nginx",
			remotecmd.CommandExists("nginx"), remotecmd.AptGetInstall("nginx"))
		if err != nil {
			return &StepError{Step: "ensure nginx", Err: err}
		}
		if nginxInstalled {
			// A fresh nginx ships a default site that would shadow the
			// target's virtual host.
			err := s.Run(ctx, remotecmd.Remove(
				"/etc/nginx/sites-available/default",
				"/etc/nginx/sites-enabled/default",
			))
			if err != nil {
				return &StepError{Step: "remove default site", Err: err}
			}
		}

		if err := s.Upload(ctx, t.BuildDir, t.DeploymentDir); err != nil {
			return &StepError{Step: "upload artifact", Err: err}
		}
		if err := s.Run(ctx, remotecmd.CopyRecursive(t.DeployedNginxDir()+"/.", "/etc/nginx/")); err != nil {
			return &StepError{Step: "install nginx config", Err: err}
		}
		if err := s.Run(ctx, remotecmd.ComposeBuild(t.DeployedComposePath())); err != nil {
			return &StepError{Step: "compose build", Err: err}
		}
		if err := s.Run(ctx, remotecmd.CertbotChain(t.Domain, t.Email)); err != nil {
			return &StepError{Step: "certificate setup", Err: err}
		}
		if err := s.Run(ctx, remotecmd.ServiceReload("nginx")); err != nil {
			return &StepError{Step: "reload nginx", Err: err}
		}
		return nil
	})
}

// ensureInstalled probes for an executable and installs it only when the
// probe reports it absent. A probe exit failure means "absent"; any other
// probe error is a real failure and aborts the sequence. Returns whether an
// install happened.
func (d *Deployer) ensureInstalled(ctx context.Context, s Session, name string, probe, install []string) (bool, error) {
	err := s.Run(ctx, probe)
	if err == nil {
		d.logger.Debug("prerequisite present", "name", name)
		return false, nil
	}
	if !sshx.IsExitFailure(err) {
		return false, fmt.Errorf("probe for %s: %w", name, err)
	}

	d.logger.Info("installing missing prerequisite", "name", name)
	if err := s.Run(ctx, install); err != nil {
		return false, fmt.Errorf("install %s: %w", name, err)
	}
	return true, nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Start brings the deployed compose stack up detached and starts nginx.
func (d *Deployer) Start(ctx context.Context, t *target.Target) error {
	return d.withSession(ctx, t, store.ActionRun, func(ctx context.Context, s Session) error {
		if err := s.Run(ctx, remotecmd.ComposeUp(t.DeployedComposePath())); err != nil {
			return &StepError{Step: "compose up", Err: err}
		}
		if err := s.Run(ctx, remotecmd.ServiceStart("nginx")); err != nil {
			return &StepError{Step: "start nginx", Err: err}
		}
		return nil
	})
}

// Stop brings the deployed compose stack down.
func (d *Deployer) Stop(ctx context.Context, t *target.Target) error {
	return d.withSession(ctx, t, store.ActionStop, func(ctx context.Context, s Session) error {
		if err := s.Run(ctx, remotecmd.ComposeDown(t.DeployedComposePath())); err != nil {
			return &StepError{Step: "compose down", Err: err}
		}
		return nil
	})
}

// =============================================================================
// Session Scope
// =============================================================================

// withSession opens one session for the whole operation and guarantees its
// release, then records the outcome in the history ledger.
func (d *Deployer) withSession(ctx context.Context, t *target.Target, action store.Action, fn func(context.Context, Session) error) error {
	logger := d.logger.With("target", t.Name, "host", t.Domain, "action", action)

	session, err := d.dial(ctx, t.Domain)
	if err != nil {
		err = fmt.Errorf("open session to %s: %w", t.Domain, err)
		d.record(ctx, t, action, err)
		return err
	}
	defer session.Close()

	logger.Info("session opened")
	err = fn(ctx, session)
	if err != nil {
		logger.Error("operation failed", "error", err)
	} else {
		logger.Info("operation complete")
	}
	d.record(ctx, t, action, err)
	return err
}

func (d *Deployer) record(ctx context.Context, t *target.Target, action store.Action, opErr error) {
	if d.events == nil {
		return
	}
	event := &store.Event{
		Target: t.Name,
		Action: action,
		Host:   t.Domain,
		Status: store.StatusSucceeded,
	}
	if opErr != nil {
		event.Status = store.StatusFailed
		event.Error = opErr.Error()
	}
	if err := d.events.RecordEvent(ctx, event); err != nil {
		d.logger.Warn("failed to record history event", "error", err)
	}
}
