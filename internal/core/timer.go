package core

import "time"

// maxCatchUp bounds how many ticks Advance reports after a long stall so a
// hitch never turns into a burst of hundreds of steps.
const maxCatchUp = 5

// FixedStep helps run simulation updates at a steady ticks-per-second rate.
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
}

// NewFixedStep constructs a FixedStep controller targeting the given TPS.
func NewFixedStep(tps int) *FixedStep {
	if tps <= 0 {
		tps = 60
	}
	fs := &FixedStep{}
	fs.SetTPS(tps)
	fs.accumulator = fs.step
	return fs
}

// SetTPS changes the tick rate. It is safe to call from the main loop.
func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		tps = 60
	}
	f.step = time.Second / time.Duration(tps)
}

// Delta returns the duration of one tick in seconds.
func (f *FixedStep) Delta() float64 { return f.step.Seconds() }

// Advance accumulates the wall time elapsed since the previous call and
// reports how many whole ticks are due.
func (f *FixedStep) Advance(now time.Time) int {
	if f.last.IsZero() {
		f.last = now
	}
	delta := now.Sub(f.last)
	f.last = now
	if delta < 0 {
		delta = 0
	}
	f.accumulator += delta
	ticks := 0
	for f.accumulator >= f.step && ticks < maxCatchUp {
		f.accumulator -= f.step
		ticks++
	}
	if ticks == maxCatchUp && f.accumulator >= f.step {
		f.accumulator = 0
	}
	return ticks
}
