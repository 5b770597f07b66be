package commands

import (
	"context"
	"errors"
	"vkposter/internal/auth"
	"vkposter/lib/osutil"
)

const (
	ExitOK         = 0
	ExitAuthFailed = 1
	ExitFailure    = 2
)

// ExitCode maps the error a command returned to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return osutil.InterruptedExitCode
	case errors.Is(err, auth.ErrAuthenticationFailed):
		return ExitAuthFailed
	default:
		return ExitFailure
	}
}
