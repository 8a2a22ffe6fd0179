package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Retrying wraps a Completer with a fixed number of attempts and a linear backoff:
// the pause after attempt n is n*Unit.
type Retrying struct {
	Next        Completer
	MaxAttempts int
	Unit        time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next Completer, maxAttempts int, unit time.Duration) *Retrying {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if unit <= 0 {
		unit = time.Second
	}
	return &Retrying{
		Next:        next,
		MaxAttempts: maxAttempts,
		Unit:        unit,
		sleep:       sleepCtx,
	}
}

func (r *Retrying) Complete(ctx context.Context, prompt string, opts ...Option) (string, error) {
	if r.Next == nil {
		return "", ErrUnavailable
	}

	var lastErr error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		text, err := r.Next.Complete(ctx, prompt, opts...)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if errors.Is(err, ErrUnavailable) {
			return "", err
		}

		log.Debug().Err(err).Int("attempt", attempt).Int("max_attempts", r.MaxAttempts).Msg("completion attempt failed")

		if attempt == r.MaxAttempts {
			break
		}
		if err := r.sleep(ctx, time.Duration(attempt)*r.Unit); err != nil {
			return "", fmt.Errorf("retry cancelled after %d attempts: %w", attempt, err)
		}
	}

	return "", fmt.Errorf("max retry attempts (%d) exceeded: %w", r.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
