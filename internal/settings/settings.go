// Package settings holds the dashboard preference state and the pure
// reducer that updates it.
package settings

import (
	"errors"
	"fmt"
)

// Group names a toggle group.
type Group string

const (
	GroupNotifications Group = "notifications"
	GroupPrivacy       Group = "privacy"
)

var (
	// ErrUnknownKey is returned for a group, key or field outside the
	// closed key sets.
	ErrUnknownKey = errors.New("unknown settings key")

	// ErrInvalidOption is returned when a select value is not one of the
	// field's options.
	ErrInvalidOption = errors.New("invalid settings option")
)

var toggleKeys = map[Group][]string{
	GroupNotifications: {"email", "push", "sms"},
	GroupPrivacy:       {"profilePublic", "showActivity", "allowMessages"},
}

// Select fields of the general section and their options. The first option
// is the default.
var generalOptions = map[string][]string{
	"language":   {"English", "Spanish", "French", "German"},
	"timezone":   {"UTC", "EST", "PST", "GMT"},
	"dateFormat": {"MM/DD/YYYY", "DD/MM/YYYY", "YYYY-MM-DD"},
}

// State is an immutable value; use Reduce to derive a new one.
type State struct {
	Notifications map[string]bool   `json:"notifications"`
	Privacy       map[string]bool   `json:"privacy"`
	General       map[string]string `json:"general"`
}

// Default returns the state of a fresh session.
func Default() State {
	return State{
		Notifications: map[string]bool{
			"email": true,
			"push":  false,
			"sms":   true,
		},
		Privacy: map[string]bool{
			"profilePublic": true,
			"showActivity":  false,
			"allowMessages": true,
		},
		General: map[string]string{
			"language":   generalOptions["language"][0],
			"timezone":   generalOptions["timezone"][0],
			"dateFormat": generalOptions["dateFormat"][0],
		},
	}
}

var generalFields = []string{"language", "timezone", "dateFormat"}

// Fields lists the general select fields in display order.
func Fields() []string {
	return append([]string(nil), generalFields...)
}

// Options returns the allowed values of a general select field.
func Options(field string) ([]string, bool) {
	opts, ok := generalOptions[field]
	if !ok {
		return nil, false
	}
	return append([]string(nil), opts...), true
}

// Action is a state transition.
type Action interface {
	apply(State) (State, error)
}

// Toggle flips a single key of a toggle group.
type Toggle struct {
	Group Group
	Key   string
}

// Select sets a general select field.
type Select struct {
	Field string
	Value string
}

// Reset restores the defaults.
type Reset struct{}

// Reduce returns the state that results from applying action to s. The
// input state is never modified.
func Reduce(s State, action Action) (State, error) {
	return action.apply(s)
}

// MustReduce is Reduce for actions built from known keys.
func MustReduce(s State, action Action) State {
	next, err := Reduce(s, action)
	if err != nil {
		panic(err)
	}
	return next
}

func (a Toggle) apply(s State) (State, error) {
	if !validKey(a.Group, a.Key) {
		return s, fmt.Errorf("%w: %s.%s", ErrUnknownKey, a.Group, a.Key)
	}
	next := s.clone()
	switch a.Group {
	case GroupNotifications:
		next.Notifications[a.Key] = !next.Notifications[a.Key]
	case GroupPrivacy:
		next.Privacy[a.Key] = !next.Privacy[a.Key]
	}
	return next, nil
}

func (a Select) apply(s State) (State, error) {
	opts, ok := generalOptions[a.Field]
	if !ok {
		return s, fmt.Errorf("%w: general.%s", ErrUnknownKey, a.Field)
	}
	for _, opt := range opts {
		if opt == a.Value {
			next := s.clone()
			next.General[a.Field] = a.Value
			return next, nil
		}
	}
	return s, fmt.Errorf("%w: %q for %s", ErrInvalidOption, a.Value, a.Field)
}

func (Reset) apply(State) (State, error) {
	return Default(), nil
}

// Enabled reports the value of a toggle.
func (s State) Enabled(group Group, key string) (bool, error) {
	if !validKey(group, key) {
		return false, fmt.Errorf("%w: %s.%s", ErrUnknownKey, group, key)
	}
	if group == GroupNotifications {
		return s.Notifications[key], nil
	}
	return s.Privacy[key], nil
}

func (s State) clone() State {
	next := State{
		Notifications: make(map[string]bool, len(s.Notifications)),
		Privacy:       make(map[string]bool, len(s.Privacy)),
		General:       make(map[string]string, len(s.General)),
	}
	for k, v := range s.Notifications {
		next.Notifications[k] = v
	}
	for k, v := range s.Privacy {
		next.Privacy[k] = v
	}
	for k, v := range s.General {
		next.General[k] = v
	}
	return next
}

func validKey(group Group, key string) bool {
	for _, k := range toggleKeys[group] {
		if k == key {
			return true
		}
	}
	return false
}
