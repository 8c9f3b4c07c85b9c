package game

import "time"

const (
	pausedFPS  = 30
	spinWindow = 200 * time.Microsecond
)

// FPSLimiter paces the render loop to a frame rate cap.
type FPSLimiter struct {
	limit    int
	deadline time.Time
}

// NewFPSLimiter creates a limiter capped at limit frames per second; 0
// disables it.
func NewFPSLimiter(limit int) *FPSLimiter {
	return &FPSLimiter{limit: limit}
}

// Wait blocks until the next frame is due. It sleeps until shortly before
// the deadline and spins the rest, which holds high caps far better than
// sleeping alone. A paused viewer runs at pausedFPS.
func (f *FPSLimiter) Wait(paused bool) {
	fps := f.limit
	if paused {
		fps = pausedFPS
	}
	if fps <= 0 {
		f.deadline = time.Time{}
		return
	}
	period := time.Second / time.Duration(fps)

	now := time.Now()
	switch {
	case f.deadline.IsZero():
		f.deadline = now.Add(period)
	case now.Sub(f.deadline) > period:
		// After a hitch start over instead of racing to catch up.
		f.deadline = now.Add(period)
	default:
		f.deadline = f.deadline.Add(period)
	}

	if d := time.Until(f.deadline) - spinWindow; d > 0 {
		time.Sleep(d)
	}
	for time.Now().Before(f.deadline) {
	}
}
