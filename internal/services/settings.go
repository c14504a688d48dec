package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/nexus-dash/apiserver/internal/activity"
	"github.com/nexus-dash/apiserver/internal/settings"
)

// SettingsService keeps the preference state of each account in memory.
// A process restart returns every account to the defaults.
type SettingsService struct {
	mu     sync.Mutex
	states map[int]settings.State
	events *activity.Publisher
}

func NewSettingsService(events *activity.Publisher) *SettingsService {
	return &SettingsService{
		states: make(map[int]settings.State),
		events: events,
	}
}

// Get returns the state of the account, the defaults if it never changed any.
func (s *SettingsService) Get(accountID int) settings.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(accountID)
}

// Toggle flips one key of a toggle group.
func (s *SettingsService) Toggle(ctx context.Context, accountID int, group settings.Group, key string) (settings.State, error) {
	next, err := s.apply(accountID, settings.Toggle{Group: group, Key: key})
	if err != nil {
		return settings.State{}, err
	}
	s.events.Publish(ctx, accountID, activity.KindSettingsChanged, fmt.Sprintf("%s.%s", group, key))
	return next, nil
}

// Select sets a general field to one of its options.
func (s *SettingsService) Select(ctx context.Context, accountID int, field, value string) (settings.State, error) {
	next, err := s.apply(accountID, settings.Select{Field: field, Value: value})
	if err != nil {
		return settings.State{}, err
	}
	s.events.Publish(ctx, accountID, activity.KindSettingsChanged, fmt.Sprintf("general.%s=%s", field, value))
	return next, nil
}

// Reset restores the defaults for the account.
func (s *SettingsService) Reset(ctx context.Context, accountID int) settings.State {
	s.mu.Lock()
	next := settings.MustReduce(s.current(accountID), settings.Reset{})
	s.states[accountID] = next
	s.mu.Unlock()

	s.events.Publish(ctx, accountID, activity.KindSettingsChanged, "reset")
	return next
}

// Forget drops the state of a deleted account.
func (s *SettingsService) Forget(accountID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, accountID)
}

func (s *SettingsService) apply(accountID int, action settings.Action) (settings.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := settings.Reduce(s.current(accountID), action)
	if err != nil {
		return settings.State{}, err
	}
	s.states[accountID] = next
	return next, nil
}

func (s *SettingsService) current(accountID int) settings.State {
	if state, ok := s.states[accountID]; ok {
		return state
	}
	return settings.Default()
}
