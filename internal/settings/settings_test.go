package settings

import (
	"errors"
	"reflect"
	"testing"
)

func TestDefaults(t *testing.T) {
	s := Default()
	want := map[string]bool{"email": true, "push": false, "sms": true}
	if !reflect.DeepEqual(s.Notifications, want) {
		t.Fatalf("unexpected notification defaults: %v", s.Notifications)
	}
	want = map[string]bool{"profilePublic": true, "showActivity": false, "allowMessages": true}
	if !reflect.DeepEqual(s.Privacy, want) {
		t.Fatalf("unexpected privacy defaults: %v", s.Privacy)
	}
	if s.General["language"] != "English" || s.General["timezone"] != "UTC" || s.General["dateFormat"] != "MM/DD/YYYY" {
		t.Fatalf("unexpected general defaults: %v", s.General)
	}
}

func TestToggleFlipsOnlyOneKey(t *testing.T) {
	for group, keys := range toggleKeys {
		for _, key := range keys {
			start := Default()
			next, err := Reduce(start, Toggle{Group: group, Key: key})
			if err != nil {
				t.Fatalf("toggle %s.%s: %v", group, key, err)
			}

			before, _ := start.Enabled(group, key)
			after, _ := next.Enabled(group, key)
			if before == after {
				t.Fatalf("toggle %s.%s did not flip", group, key)
			}

			for g, ks := range toggleKeys {
				for _, k := range ks {
					if g == group && k == key {
						continue
					}
					b, _ := start.Enabled(g, k)
					a, _ := next.Enabled(g, k)
					if a != b {
						t.Fatalf("toggle %s.%s changed %s.%s", group, key, g, k)
					}
				}
			}
		}
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	start := Default()
	s := start
	for i := 0; i < 4; i++ {
		s = MustReduce(s, Toggle{Group: GroupPrivacy, Key: "showActivity"})
	}
	if !reflect.DeepEqual(s, start) {
		t.Fatalf("even number of toggles must restore state, got %+v", s)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	start := Default()
	_ = MustReduce(start, Toggle{Group: GroupNotifications, Key: "email"})
	if !start.Notifications["email"] {
		t.Fatalf("input state was mutated")
	}
}

func TestUnknownKeys(t *testing.T) {
	s := Default()
	if _, err := Reduce(s, Toggle{Group: GroupNotifications, Key: "profilePublic"}); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey for key of another group, got %v", err)
	}
	if _, err := Reduce(s, Toggle{Group: "billing", Key: "email"}); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey for unknown group, got %v", err)
	}
	if _, err := Reduce(s, Select{Field: "theme", Value: "dark"}); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey for unknown field, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("MustReduce should panic on unknown key")
		}
	}()
	MustReduce(s, Toggle{Group: GroupPrivacy, Key: "nope"})
}

func TestSelectAndReset(t *testing.T) {
	s := MustReduce(Default(), Select{Field: "language", Value: "French"})
	if s.General["language"] != "French" {
		t.Fatalf("select not applied: %v", s.General)
	}
	if _, err := Reduce(s, Select{Field: "timezone", Value: "CET"}); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}

	s = MustReduce(s, Toggle{Group: GroupNotifications, Key: "push"})
	s = MustReduce(s, Reset{})
	if !reflect.DeepEqual(s, Default()) {
		t.Fatalf("reset did not restore defaults: %+v", s)
	}

	opts, ok := Options("dateFormat")
	if !ok || len(opts) != 3 {
		t.Fatalf("unexpected options: %v", opts)
	}
}
