// Package builder assembles the deployable artifact directory for a target:
// copied source, rendered config templates, and the mutated compose document.
// No remote I/O happens here.
package builder

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/artpar/shipper/internal/core/composefile"
	"github.com/artpar/shipper/internal/core/target"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrBuildDirExists is returned when a prior build directory is present
	// and clean was not requested. Builds are not incrementally mergeable;
	// the caller must explicitly opt into removal.
	ErrBuildDirExists = errors.New("build directory already exists, re-run with --clean to overwrite")
)

// LayoutError reports a missing piece of the target's required filesystem
// layout.
type LayoutError struct {
	Path string
	What string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.What)
}

// =============================================================================
// Builder
// =============================================================================

// Builder runs the build stage for one target.
type Builder struct {
	target          *target.Target
	logger          *slog.Logger
	webappTemplates fs.FS
	nginxTemplates  fs.FS
}

// Option customizes a Builder.
type Option func(*Builder)

// WithWebappTemplates overrides the built-in webapp config template set.
func WithWebappTemplates(fsys fs.FS) Option {
	return func(b *Builder) { b.webappTemplates = fsys }
}

// WithNginxTemplates overrides the built-in reverse-proxy template set.
func WithNginxTemplates(fsys fs.FS) Option {
	return func(b *Builder) { b.nginxTemplates = fsys }
}

// New creates a builder for the given target.
func New(t *target.Target, logger *slog.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{
		target:          t,
		logger:          logger.With("component", "builder", "target", t.Name),
		webappTemplates: DefaultWebappTemplates(),
		nginxTemplates:  DefaultNginxTemplates(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// rootFiles are copied from the target root into the artifact root.
var rootFiles = []string{"requirements.txt", "Dockerfile", "docker-compose.yaml"}

// VerifyLayout checks the target's required filesystem layout: requirements,
// Dockerfile, compose document, and a non-empty src/<name> directory.
func (b *Builder) VerifyLayout() error {
	t := b.target
	for _, name := range rootFiles {
		p := filepath.Join(t.SourceDir, name)
		if _, err := os.Stat(p); err != nil {
			return &LayoutError{Path: p, What: "missing required file"}
		}
	}

	srcDir := filepath.Join(t.SourceDir, "src", t.Name)
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return &LayoutError{Path: srcDir, What: "missing source directory"}
	}
	if len(entries) == 0 {
		return &LayoutError{Path: srcDir, What: "source directory is empty"}
	}
	return nil
}

// Build assembles the artifact directory. With clean set, any prior build
// directory is removed first; without it, a pre-existing build directory is
// a fatal collision and nothing is touched.
func (b *Builder) Build(clean bool) error {
	t := b.target
	if err := t.Validate(); err != nil {
		return err
	}

	if clean {
		if err := os.RemoveAll(t.BuildDir); err != nil {
			return fmt.Errorf("clean build dir: %w", err)
		}
	}
	if _, err := os.Stat(t.BuildDir); err == nil {
		return fmt.Errorf("%s: %w", t.BuildDir, ErrBuildDirExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat build dir: %w", err)
	}

	if err := b.VerifyLayout(); err != nil {
		return err
	}

	b.logger.Info("building artifact", "build_dir", t.BuildDir, "clean", clean)

	if err := copyTree(filepath.Join(t.SourceDir, "src"), t.AppBuildDir()); err != nil {
		return fmt.Errorf("copy source tree: %w", err)
	}
	for _, name := range rootFiles {
		if err := copyFile(filepath.Join(t.SourceDir, name), filepath.Join(t.BuildDir, name)); err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
	}

	env := t.TemplateEnv(target.EnvOptions{AllCaps: true})
	if err := renderTree(b.webappTemplates, t.BuildDir, env); err != nil {
		return fmt.Errorf("render webapp config: %w", err)
	}
	if err := renderTree(b.nginxTemplates, t.NginxBuildDir(), env); err != nil {
		return fmt.Errorf("render nginx config: %w", err)
	}

	if err := b.configureCompose(); err != nil {
		return err
	}

	b.logger.Info("artifact ready", "build_dir", t.BuildDir)
	return nil
}

// configureCompose sets the target service's port mappings in the artifact's
// compose document and validates the result.
func (b *Builder) configureCompose() error {
	t := b.target
	raw, err := os.ReadFile(t.ComposePath())
	if err != nil {
		return fmt.Errorf("read compose document: %w", err)
	}

	doc, err := composefile.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", t.ComposePath(), err)
	}
	if err := doc.SetServicePorts(t.Name, t.Ports); err != nil {
		return fmt.Errorf("%s: %w", t.ComposePath(), err)
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%s: %w", t.ComposePath(), err)
	}

	out, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode compose document: %w", err)
	}
	if err := os.WriteFile(t.ComposePath(), out, 0o644); err != nil {
		return fmt.Errorf("write compose document: %w", err)
	}
	return nil
}
