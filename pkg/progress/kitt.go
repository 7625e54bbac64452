package progress

import (
	"fmt"
	"strings"
	"time"
)

const (
	frameWidth = 16
	background = "░"
)

// shades are ordered bright to dim: the head of the scanner and its trail.
var shades = []string{"█", "▓", "▒"}

// Frames is the KITT scanner animation: a bright head sweeping across the
// bar with a dimming trail behind it, easing at both edges.
var Frames = buildFrames()

func buildFrames() []string {
	forward := []int{0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 15}
	backward := []int{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 0}

	frames := make([]string, 0, len(forward)+len(backward)-1)
	for _, pos := range forward {
		frames = append(frames, kittFrame(pos, 1))
	}
	// The first backward position repeats the last forward one.
	for _, pos := range backward[1:] {
		frames = append(frames, kittFrame(pos, -1))
	}
	return frames
}

// kittFrame renders the bar with the head at pos. The trail sits behind
// the direction of travel.
func kittFrame(pos, direction int) string {
	cells := make([]string, frameWidth)
	for i := range cells {
		cells[i] = background
	}

	cells[pos] = shades[0]
	for offset := 1; offset < len(shades); offset++ {
		trail := pos - offset*direction
		if trail >= 0 && trail < frameWidth {
			cells[trail] = shades[offset]
		}
	}

	return strings.Join(cells, "")
}

// FormatDuration renders elapsed time as "42s" or "3m 7s".
func FormatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// FormatTokens renders a token count as "950" or "12.3k".
func FormatTokens(count int) string {
	if count >= 1000 {
		return fmt.Sprintf("%.1fk", float64(count)/1000)
	}
	return fmt.Sprintf("%d", count)
}
