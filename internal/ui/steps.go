package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Notifier is satisfied by *notification.Discord.
type Notifier interface {
	SendError(ctx context.Context, message string) error
	SendSuccess(ctx context.Context, message string) error
}

// StepFunc runs one pipeline step and returns a one line report.
type StepFunc func(ctx context.Context) (string, error)

// StepRunner prints and notifies the outcome of pipeline steps.
type StepRunner struct {
	Notifier Notifier
	Log      zerolog.Logger
}

func (r StepRunner) Run(ctx context.Context, name string, fn StepFunc) error {
	PrintInfo(fmt.Sprintf(">>> %s starting...\n", name))
	start := time.Now()

	message, err := fn(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("%s failed: %s", name, err))
		if nErr := r.Notifier.SendError(ctx, fmt.Sprintf("%s failed: %s", name, err)); nErr != nil {
			r.Log.Warn().Err(nErr).Msg("Failed to send notification")
		}
		return err
	}

	PrintSuccess(fmt.Sprintf("%s done in %s. %s", name, time.Since(start).Round(time.Millisecond), message))
	if nErr := r.Notifier.SendSuccess(ctx, fmt.Sprintf("%s done. %s", name, message)); nErr != nil {
		r.Log.Warn().Err(nErr).Msg("Failed to send notification")
	}
	return nil
}
