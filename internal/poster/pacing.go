package poster

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done, whichever comes first.
//
// note: fault injection point
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the Sleeper backed by a real timer.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer spaces out the workflow, independently of the request rate limiter.
type Pacer struct {
	interval time.Duration
	sleep    Sleeper
}

func NewPacer(interval time.Duration, sleep Sleeper) Pacer {
	if sleep == nil {
		sleep = Sleep
	}
	return Pacer{interval: interval, sleep: sleep}
}

// Pause waits one interval, it follows every group and every topic.
func (p Pacer) Pause(ctx context.Context) error {
	return p.sleep(ctx, p.interval)
}

// Cooldown waits three intervals, it follows every group or topic that was
// actually looked up.
func (p Pacer) Cooldown(ctx context.Context) error {
	return p.sleep(ctx, 3*p.interval)
}
