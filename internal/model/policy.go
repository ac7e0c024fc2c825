package model

import (
	"fmt"
	"strings"
	"time"
)

// ConflictPolicy decides when two active appointments of one doctor collide.
type ConflictPolicy uint8

const (
	// IntervalOverlap treats appointments as [start, start+60m) ranges.
	IntervalOverlap ConflictPolicy = iota
	// InstantEquality only rejects identical start instants.
	InstantEquality
)

func (p ConflictPolicy) String() string {
	if p == InstantEquality {
		return "instant"
	}
	return "overlap"
}

func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overlap":
		return IntervalOverlap, nil
	case "instant":
		return InstantEquality, nil
	}
	return IntervalOverlap, fmt.Errorf("unknown conflict policy %q", s)
}

// Window returns the half-open range [from, to) of start instants that collide
// with an appointment starting at t. Instants are minute-granular.
func (p ConflictPolicy) Window(t time.Time) (from, to time.Time) {
	if p == InstantEquality {
		return t, t.Add(time.Minute)
	}
	return t.Add(-AppointmentDuration + time.Minute), t.Add(AppointmentDuration)
}

func (p ConflictPolicy) Conflicts(a, b time.Time) bool {
	from, to := p.Window(a)
	return !b.Before(from) && b.Before(to)
}
