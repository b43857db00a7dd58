package lpc

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/moffa90/go-crosec/transport"
)

// wait polls the status register until the busy bits clear.
//
// Without WithWaitTimeout it waits forever, as the EC firmware expects;
// ctx is still checked between polls.
func (l *LPC) wait(ctx context.Context) error {
	var deadline time.Time
	if l.cfg.WaitTimeout > 0 {
		deadline = time.Now().Add(l.cfg.WaitTimeout)
	}

	for {
		status, err := l.io.Inb(HostCmd)
		if err != nil {
			return fmt.Errorf("read status: %w", err)
		}
		if status&StatusBusyMask == 0 {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("waiting for EC: %w", err)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w after %s (status 0x%02X)", transport.ErrWaitTimeout, l.cfg.WaitTimeout, status)
		}

		if l.cfg.PollInterval <= 0 {
			runtime.Gosched()
			continue
		}

		timer := time.NewTimer(l.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("waiting for EC: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
