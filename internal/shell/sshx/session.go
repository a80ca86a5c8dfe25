// Package sshx provides the remote session used for provisioning and
// lifecycle operations: command execution and directory upload over SSH.
package sshx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// =============================================================================
// Errors
// =============================================================================

// CommandError reports a remote command that ran and exited non-zero.
type CommandError struct {
	Cmd        string
	ExitStatus int
	Err        error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("remote command %q exited with status %d", e.Cmd, e.ExitStatus)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsExitFailure reports whether err represents a command that executed on
// the remote host and returned a non-zero exit status, as opposed to a
// transport or session failure.
func IsExitFailure(err error) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}

// =============================================================================
// Session
// =============================================================================

// Config configures a remote session.
type Config struct {
	User           string
	Port           int
	KeyFile        string        // path to the SSH private key
	ConnectTimeout time.Duration // default: 10 seconds
	CommandTimeout time.Duration // default: 10 minutes; provisioning steps are slow
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		User:           "root",
		Port:           22,
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 10 * time.Minute,
	}
}

// Session is an authenticated command/file-transfer channel to one remote
// host. It is scoped to a single logical operation: open it, run the
// operation's steps sequentially, and Close on every exit path.
type Session struct {
	client  *ssh.Client
	host    string
	timeout time.Duration
}

// Dial opens a session to host using key-based authentication.
func Dial(host string, cfg Config) (*Session, error) {
	if cfg.User == "" {
		cfg.User = "root"
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = 10 * time.Minute
	}

	key, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("read SSH key %s: %w", cfg.KeyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse SSH private key: %w", err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: Store and verify host keys
		Timeout:         cfg.ConnectTimeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(cfg.Port))
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", addr, err)
	}

	return &Session{client: client, host: host, timeout: cfg.CommandTimeout}, nil
}

// Host returns the remote host this session is bound to.
func (s *Session) Host() string {
	return s.host
}

// Close releases the underlying connection.
func (s *Session) Close() error {
	return s.client.Close()
}

// Run executes one command on the remote host and blocks until it finishes.
// The argument list is joined and interpreted by the remote shell, so
// redirections and join operators pass through as tokens. A non-zero exit
// is returned as a CommandError; other errors are transport failures.
func (s *Session) Run(ctx context.Context, args []string) error {
	return s.run(ctx, strings.Join(args, " "), nil)
}

func (s *Session) run(ctx context.Context, cmd string, stdin func(*ssh.Session)) error {
	session, err := s.client.NewSession()
	if err != nil {
		return fmt.Errorf("create SSH session: %w", err)
	}
	defer session.Close()

	if stdin != nil {
		stdin(session)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.timeout):
		return fmt.Errorf("remote command %q: timeout after %v", cmd, s.timeout)
	case err := <-done:
		if err == nil {
			return nil
		}
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return &CommandError{Cmd: cmd, ExitStatus: exitErr.ExitStatus(), Err: err}
		}
		return fmt.Errorf("remote command %q: %w", cmd, err)
	}
}

// Upload copies the contents of localDir into remoteDir, creating it as
// needed. The directory is streamed as a tar archive over the session's
// stdin, so no extra transfer tooling is required on either side.
func (s *Session) Upload(ctx context.Context, localDir, remoteDir string) error {
	pr, pw := newTarPipe(localDir)
	defer pr.Close()

	cmd := fmt.Sprintf("mkdir -p %s && tar -xpf - -C %s", remoteDir, remoteDir)
	err := s.run(ctx, cmd, func(session *ssh.Session) {
		session.Stdin = pr
	})
	if err != nil {
		return fmt.Errorf("upload %s to %s: %w", localDir, remoteDir, err)
	}
	if tarErr := pw.Err(); tarErr != nil {
		return fmt.Errorf("upload %s: archive: %w", localDir, tarErr)
	}
	return nil
}
