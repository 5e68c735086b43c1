package reveal

import (
	"strings"
	"time"
)

// Duration is the transition length between the hidden and revealed presentation.
const Duration = 700 * time.Millisecond

// Variant selects the motion an element makes while revealing.
type Variant string

const (
	Up    Variant = "up"
	Left  Variant = "left"
	Right Variant = "right"
	Scale Variant = "scale"
)

var hiddenClasses = map[Variant]string{
	Up:    "opacity-0 translate-y-8",
	Left:  "opacity-0 -translate-x-8",
	Right: "opacity-0 translate-x-8",
	Scale: "opacity-0 scale-95",
}

const (
	baseClasses     = "reveal transition-all duration-700 ease-out"
	revealedClasses = "opacity-100 translate-x-0 translate-y-0 scale-100"
)

// Classes returns the CSS classes for an element of the given variant. Unknown variants move up.
func Classes(v Variant, revealed bool) string {
	state := revealedClasses
	if !revealed {
		h, ok := hiddenClasses[v]
		if !ok {
			h = hiddenClasses[Up]
		}
		state = h
	}
	return strings.Join([]string{baseClasses, state}, " ")
}

// Stagger returns the transition delay of the index-th element in a sequence that starts after
// offset and advances by step.
func Stagger(index int, offset, step time.Duration) time.Duration {
	if index < 0 {
		index = 0
	}
	return offset + time.Duration(index)*step
}
