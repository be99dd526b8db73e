package view

import "time"

// Clock is a stand-in for an audio player: it advances the playhead in real
// time while playing and stops at the end of the track. Times are passed in
// so that the clock can be driven by frame timestamps.
type Clock struct {
	length  float64
	playing bool
	base    float64
	started time.Time
}

func NewClock(length float64) *Clock {
	return &Clock{length: length}
}

func (c *Clock) Playing() bool { return c.playing }

// Position returns the playhead position at time now, in seconds.
func (c *Clock) Position(now time.Time) float64 {
	if !c.playing {
		return c.base
	}
	return min(c.base+now.Sub(c.started).Seconds(), c.length)
}

// Ended reports whether a playing clock has reached the end of the track.
func (c *Clock) Ended(now time.Time) bool {
	return c.playing && c.Position(now) >= c.length
}

func (c *Clock) Play(now time.Time) {
	if c.playing {
		return
	}
	if c.base >= c.length {
		c.base = 0
	}
	c.playing = true
	c.started = now
}

func (c *Clock) Pause(now time.Time) {
	if !c.playing {
		return
	}
	c.base = c.Position(now)
	c.playing = false
}

func (c *Clock) Toggle(now time.Time) {
	if c.playing {
		c.Pause(now)
	} else {
		c.Play(now)
	}
}

// Seek moves the playhead, clamped to the track.
func (c *Clock) Seek(now time.Time, seconds float64) {
	c.base = min(max(seconds, 0), c.length)
	c.started = now
}
