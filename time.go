package beatmap

import (
	"fmt"
	"math"
)

// FormatTime converts seconds into "MM:SS". Both fields are zero padded to two
// digits; minutes keep counting past 59 (3600 seconds is "60:00"). The time is
// rounded to the nearest second before splitting, so 119.6 is "02:00".
// Negative times are shown as "00:00".
func FormatTime(seconds float64) string {
	if !(seconds > 0) {
		return "00:00"
	}
	total := int64(math.Round(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// TickInterval returns the spacing of the time ruler ticks in seconds, for a
// track of given length rendered width pixels wide and shown through a window
// of outputWidth pixels. The raw interval aims for ticksPerView ticks per
// window; intervals above 5 s are rounded to the nearest 10 s, and the result
// is always a whole number of seconds, at least 1.
func TickInterval(length float64, width, outputWidth, ticksPerView int) float64 {
	interval := length / ((float64(width) / float64(outputWidth)) * float64(ticksPerView))
	if interval > 5 {
		interval = math.Round(interval/10) * 10
	}
	if !(interval >= 1) {
		return 1
	}
	return math.Round(interval)
}

// TickCount returns how many ruler ticks are drawn for a track of given length
// with ticks every interval seconds. Ticks are numbered from 1 and the last
// one may lie past the end of the track.
func TickCount(length, interval float64) int {
	if !(interval > 0) || !(length > 0) {
		return 0
	}
	return int(math.Ceil(length/interval+1)) - 1
}
