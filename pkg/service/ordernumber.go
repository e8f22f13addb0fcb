package service

import (
	"fmt"
	"strconv"
	"strings"
)

// NextOrderNumber returns the number that follows latest, e.g. CMD-042 after CMD-041.
// The suffix is zero-padded to width digits and keeps growing past them (CMD-1000).
// An empty or unparsable latest starts the sequence at 1.
func NextOrderNumber(prefix string, width int, latest string) string {
	next := 1
	if suffix, ok := strings.CutPrefix(latest, prefix+"-"); ok {
		if n, err := strconv.Atoi(suffix); err == nil && n >= 0 {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, next)
}
