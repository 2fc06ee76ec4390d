package stream

import "time"

// heartbeat tracks elapsed time since the last application-level keepalive.
// It is owned and mutated exclusively by the session's receive loop, and
// never fires more often than once per period.
type heartbeat struct {
	period time.Duration
	last   time.Time
	now    func() time.Time
}

func newHeartbeat(period time.Duration) *heartbeat {
	h := &heartbeat{
		period: period,
		now:    time.Now,
	}
	h.last = h.now()
	return h
}

// due reports whether a full period has elapsed since the last fire, and
// resets the elapsed counter when it has.
func (h *heartbeat) due() bool {
	now := h.now()
	if now.Sub(h.last) >= h.period {
		h.last = now
		return true
	}
	return false
}
