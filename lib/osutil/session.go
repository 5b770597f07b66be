package osutil

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

// InterruptedExitCode is used when a re-raised signal fails to terminate the process.
const InterruptedExitCode = 130

// Interrupt tracks the signal that cancelled a SignalContext.
type Interrupt struct {
	received atomic.Value
}

// Signal returns the signal that was received, nil if there was none.
func (i *Interrupt) Signal() os.Signal {
	sig, _ := i.received.Load().(os.Signal)
	return sig
}

// Returns a context that will live until Ctrl+C is pressed (or SIGTERM is received)
func SignalContext() (context.Context, *Interrupt) {
	ctx, cancel := context.WithCancel(context.Background())
	interrupt := &Interrupt{}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		interrupt.received.Store(sig)
		signal.Stop(sigs)
		cancel()
	}()

	return ctx, interrupt
}

// Reraise restores the default handling of sig and delivers it to the current
// process so the parent sees the process as killed by it.
func Reraise(sig os.Signal) {
	if s, ok := sig.(syscall.Signal); ok {
		signal.Reset(s)
		_ = syscall.Kill(os.Getpid(), s)
		time.Sleep(100 * time.Millisecond)
	}
	os.Exit(InterruptedExitCode)
}
