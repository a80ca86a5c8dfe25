package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/artpar/shipper/internal/core/composefile"
	"github.com/artpar/shipper/internal/core/render"
	"github.com/artpar/shipper/internal/core/target"
	"github.com/artpar/shipper/internal/shell/builder"
	"github.com/artpar/shipper/internal/shell/deployer"
	"github.com/artpar/shipper/internal/shell/sshx"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess     = 0
	ExitConfigError = 1
	ExitBuildError  = 2
	ExitRemoteError = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to its exit code by kind: configuration problems,
// build collisions, and remote failures are distinguishable to callers.
func exitCode(err error) int {
	var (
		validationErr *target.ValidationError
		layoutErr     *builder.LayoutError
		missingVarErr *render.MissingVariableError
		stepErr       *deployer.StepError
		cmdErr        *sshx.CommandError
	)
	switch {
	case errors.Is(err, builder.ErrBuildDirExists):
		return ExitBuildError
	case errors.As(err, &stepErr), errors.As(err, &cmdErr):
		return ExitRemoteError
	case errors.As(err, &validationErr),
		errors.As(err, &layoutErr),
		errors.As(err, &missingVarErr),
		errors.Is(err, composefile.ErrServiceNotFound):
		return ExitConfigError
	default:
		return ExitConfigError
	}
}
