package player

import (
	"context"
	"time"
)

// Actuator wraps a Controller with the display-and-hold semantics the
// slideshow loop needs.
type Actuator struct {
	ctrl Controller
}

func NewActuator(ctrl Controller) *Actuator {
	return &Actuator{ctrl: ctrl}
}

func (a *Actuator) Controller() Controller { return a.ctrl }

// ShowPhoto issues the display command and, when hold > 0, keeps the photo
// up for that long before returning. Cancellation interrupts the hold
// immediately; an in-flight display command is left to finish on its own so
// the device is never left mid-command, but the cancellation is still
// reported to the caller.
func (a *Actuator) ShowPhoto(ctx context.Context, playerID, url string, hold time.Duration) error {
	done := make(chan error, 1)
	cmdCtx := context.WithoutCancel(ctx)
	go func() {
		done <- a.ctrl.Display(cmdCtx, playerID, url)
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	if hold <= 0 {
		return nil
	}
	timer := time.NewTimer(hold)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
