package inventory

import (
	"strconv"
	"strings"
)

// Availability is the parse result of a quantity cell. A row is numerically
// tracked only when its cell holds an integer; values like "Daily" or
// "Unlimited" mark a service offering whose stock is never checked or
// mutated. Making the untracked case a first-class value keeps that branch
// out of error handling.
type Availability struct {
	Count   int
	Tracked bool
}

// Tracked builds a numerically tracked availability.
func Tracked(count int) Availability {
	return Availability{Count: count, Tracked: true}
}

// Untracked is the availability of a service or unlimited item.
func Untracked() Availability {
	return Availability{}
}

// ParseAvailability classifies a raw quantity cell. Plain integers and
// integral floats ("50", "50.0") track; everything else is untracked.
func ParseAvailability(raw string) Availability {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Untracked()
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Tracked(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Tracked(int(f))
	}
	return Untracked()
}
