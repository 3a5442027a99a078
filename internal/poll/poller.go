// Package poll drives a submitted job to a terminal state with a fixed
// cadence poll loop against the job-status endpoint.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartscout/cartscout/internal/models"
	"github.com/cartscout/cartscout/internal/progress"
)

var (
	// ErrJobFailed means the server reported the job as failed.
	ErrJobFailed = errors.New("price search failed")
	// ErrTimeout means the configured maximum poll duration elapsed before
	// the server reported a terminal status.
	ErrTimeout = errors.New("price search timed out")
)

// StatusFunc fetches the current snapshot of a job.
type StatusFunc func(ctx context.Context, jobID string) (*models.JobUpdate, error)

// Poller polls a job at a fixed interval until the server reports a
// terminal status, a transport error occurs, or the optional timeout fires.
type Poller struct {
	status   StatusFunc
	interval time.Duration
	timeout  time.Duration // 0 = poll indefinitely
	log      zerolog.Logger
}

// New creates a poller. A timeout of 0 disables the poll deadline.
func New(status StatusFunc, interval, timeout time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{status: status, interval: interval, timeout: timeout, log: log}
}

// Run polls jobID until terminal: the first poll is issued immediately,
// then one per interval. On complete it returns the final snapshot with the
// result payload; on failed it returns ErrJobFailed; transport errors and
// ErrTimeout propagate as-is. In every case the loop has stopped by the
// time Run returns — no further polls are ever issued.
func (p *Poller) Run(ctx context.Context, jobID string) (*models.JobUpdate, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	polls := 0
	for {
		polls++
		update, err := p.status(ctx, jobID)
		if err != nil {
			p.log.Debug().Str("job_id", jobID).Int("polls", polls).Err(err).Msg("poll transport error")
			return nil, err
		}

		switch update.Status {
		case models.JobComplete:
			p.log.Debug().Str("job_id", jobID).Int("polls", polls).Msg("job complete")
			progress.Report(ctx, "Results ready — 100%")
			return update, nil
		case models.JobFailed:
			p.log.Debug().Str("job_id", jobID).Int("polls", polls).Msg("job failed")
			return nil, ErrJobFailed
		case models.JobProcessing:
			progress.Report(ctx, fmt.Sprintf("Processing your items… %d%%", Percent(polls)))
		default: // queued
			pos := "?"
			if update.QueuePosition > 0 {
				pos = fmt.Sprintf("%d", update.QueuePosition)
			}
			progress.Report(ctx, fmt.Sprintf("Queued (position: %s) — %d%%", pos, Percent(polls)))
		}

		select {
		case <-ticker.C:
		case <-deadline:
			return nil, ErrTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Percent derives a cosmetic progress figure from the poll count. It rises
// with each poll but stays below 100 until the server reports complete; it
// says nothing about actual backend progress.
func Percent(polls int) int {
	pct := polls * 10
	if pct > 90 {
		return 90
	}
	return pct
}
