package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nexus-dash/apiserver/internal/settings"
)

func TestSettingsPerAccount(t *testing.T) {
	svc := NewSettingsService(nil)
	ctx := context.Background()

	state, err := svc.Toggle(ctx, 1, settings.GroupNotifications, "push")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !state.Notifications["push"] {
		t.Fatalf("push should be enabled")
	}
	if svc.Get(2).Notifications["push"] {
		t.Fatalf("other accounts must keep their own state")
	}

	if _, err := svc.Select(ctx, 1, "language", "German"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := svc.Get(1).General["language"]; got != "German" {
		t.Fatalf("language = %q, want German", got)
	}

	reset := svc.Reset(ctx, 1)
	if reset.Notifications["push"] || reset.General["language"] != "English" {
		t.Fatalf("reset did not restore defaults: %+v", reset)
	}
}

func TestSettingsRejectsUnknownKeys(t *testing.T) {
	svc := NewSettingsService(nil)
	if _, err := svc.Toggle(context.Background(), 1, settings.GroupPrivacy, "telepathy"); !errors.Is(err, settings.ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	if _, err := svc.Select(context.Background(), 1, "timezone", "Mars"); !errors.Is(err, settings.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if svc.Get(1).Privacy["profilePublic"] != true {
		t.Fatalf("failed actions must leave the state untouched")
	}
}

func TestSettingsForget(t *testing.T) {
	svc := NewSettingsService(nil)
	if _, err := svc.Toggle(context.Background(), 3, settings.GroupNotifications, "email"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	svc.Forget(3)
	if !svc.Get(3).Notifications["email"] {
		t.Fatalf("forgotten accounts start from the defaults")
	}
}
