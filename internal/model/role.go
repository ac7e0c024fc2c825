package model

import (
	"fmt"
	"strings"
)

type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleDoctor
	RolePatient
)

var roleNames = map[Role]string{
	RoleAdmin:   "ADMIN",
	RoleDoctor:  "DOCTOR",
	RolePatient: "PATIENT",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "UNKNOWN"
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole accepts role names in any case.
func ParseRole(s string) (Role, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for r, name := range roleNames {
		if name == up {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}
