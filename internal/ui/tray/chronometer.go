package tray

import (
	"sync"
	"time"
)

// chronometer redraws a countdown label until its end time, standing in for
// the platform chronometer that desktop trays lack.
type chronometer struct {
	mu   sync.Mutex
	stop chan struct{}
	now  func() time.Time
}

func newChronometer(now func() time.Time) *chronometer {
	if now == nil {
		now = time.Now
	}
	return &chronometer{now: now}
}

// Start replaces any running countdown. update is called once per tick with
// the whole ticks left, reaching zero at endsAt.
func (chrono *chronometer) Start(endsAt time.Time, tick time.Duration, update func(seconds int)) {
	chrono.Stop()
	if tick <= 0 {
		tick = time.Second
	}

	stop := make(chan struct{})
	chrono.mu.Lock()
	chrono.stop = stop
	chrono.mu.Unlock()

	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			seconds := secondsUntil(endsAt, chrono.now(), tick)
			update(seconds)
			if seconds == 0 {
				return
			}
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the current countdown, if any.
func (chrono *chronometer) Stop() {
	chrono.mu.Lock()
	defer chrono.mu.Unlock()
	if chrono.stop != nil {
		close(chrono.stop)
		chrono.stop = nil
	}
}

// secondsUntil matches the engine's tick count. The engine pads endsAt by
// one tick, which the trailing -1 removes.
func secondsUntil(endsAt, now time.Time, tick time.Duration) int {
	left := endsAt.Sub(now)
	if left <= 0 {
		return 0
	}
	seconds := int((left+tick-1)/tick) - 1
	if seconds < 0 {
		return 0
	}
	return seconds
}
