package model

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusBooked    Status = "BOOKED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// transitions is the full lifecycle graph. Statuses with no outgoing edges are terminal.
var transitions = map[Status]map[Status]bool{
	StatusBooked: {
		StatusConfirmed: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
	StatusConfirmed: {
		StatusCompleted: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Active statuses hold the doctor's slot.
func (s Status) Active() bool {
	return s == StatusBooked || s == StatusConfirmed
}

func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}
