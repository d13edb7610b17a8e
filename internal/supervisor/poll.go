package supervisor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Outcome is the tri-state result of a bounded readiness poll.
type Outcome int

const (
	// Ready means a probe succeeded before the attempt budget ran out.
	Ready Outcome = iota
	// TimedOut means every attempt was spent without a successful probe.
	TimedOut
	// ProcessExited means the supervised process died before readiness,
	// so further probing was pointless and polling stopped early.
	ProcessExited
)

func (o Outcome) String() string {
	switch o {
	case Ready:
		return "ready"
	case TimedOut:
		return "timed-out"
	case ProcessExited:
		return "process-exited"
	}
	return "unknown"
}

// ProbeFunc reports whether the service answered ready. Probe failures
// of any kind are expressed as false, never as errors; during startup
// they are expected.
type ProbeFunc func(ctx context.Context) bool

// AliveFunc reports whether the supervised process is still running.
type AliveFunc func() bool

type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollOptions matches the launch script this replaces: one probe
// per second, thirty attempts.
func DefaultPollOptions() PollOptions {
	return PollOptions{Interval: time.Second, MaxAttempts: 30}
}

type PollResult struct {
	Outcome  Outcome
	Attempts int
}

// Poll probes up to opts.MaxAttempts times with opts.Interval between
// attempts. Liveness is checked before every attempt, so a child that
// crashed before the first probe aborts polling immediately. Returns on
// the first successful probe with the exact attempt count.
func Poll(ctx context.Context, opts PollOptions, probe ProbeFunc, alive AliveFunc) PollResult {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if alive != nil && !alive() {
			return PollResult{Outcome: ProcessExited, Attempts: attempt - 1}
		}

		if probe(ctx) {
			return PollResult{Outcome: Ready, Attempts: attempt}
		}

		if attempt == opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return PollResult{Outcome: TimedOut, Attempts: attempt}
		case <-time.After(opts.Interval):
		}
	}

	return PollResult{Outcome: TimedOut, Attempts: opts.MaxAttempts}
}

// Fixed readiness lines; informational only, no machine contract.
const (
	ReadyMessage   = "Server is up and accepting requests"
	TimeoutMessage = "Server did not report ready within the polling window; continuing to supervise"
	ExitedMessage  = "Server exited before reporting ready"
)

// ReportReadiness emits the fixed success or timeout line for res.
func ReportReadiness(log *zap.SugaredLogger, res PollResult) {
	switch res.Outcome {
	case Ready:
		log.Infow(ReadyMessage, "attempts", res.Attempts)
	case ProcessExited:
		log.Warnw(ExitedMessage, "attempts", res.Attempts)
	default:
		log.Warnw(TimeoutMessage, "attempts", res.Attempts)
	}
}
