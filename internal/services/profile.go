package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nexus-dash/apiserver/internal/activity"
	"github.com/nexus-dash/apiserver/internal/storage"
	"github.com/nexus-dash/apiserver/internal/store"
	"github.com/nexus-dash/apiserver/types"
)

// ErrStorageUnavailable is returned by avatar operations when no object
// storage backend is configured.
var ErrStorageUnavailable = errors.New("object storage is not configured")

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	Get(ctx context.Context, accountID int) (types.Profile, error)
	Upsert(ctx context.Context, profile types.Profile) (types.Profile, error)
	SaveWithAccount(ctx context.Context, profile types.Profile, account types.Account) (types.Profile, types.Account, error)
}

// ActivityRepository defines persistence operations for the activity feed.
type ActivityRepository interface {
	Record(ctx context.Context, entry types.Activity) error
	ListByAccount(ctx context.Context, accountID, offset, limit int) ([]types.Activity, int, error)
}

// ProfileService encapsulates profile use-cases.
type ProfileService struct {
	profiles   ProfileRepository
	activities ActivityRepository
	storage    *storage.Storage
	events     *activity.Publisher
}

func NewProfileService(
	profiles ProfileRepository,
	activities ActivityRepository,
	store *storage.Storage,
	events *activity.Publisher,
) *ProfileService {
	return &ProfileService{
		profiles:   profiles,
		activities: activities,
		storage:    store,
		events:     events,
	}
}

// DefaultProfile is what an account sees before saving its profile.
func DefaultProfile(account types.Account) types.Profile {
	return types.Profile{
		AccountID: account.ID,
		FirstName: account.FirstName(),
		LastName:  account.LastName(),
		Email:     account.Email,
		Phone:     "+1 (555) 123-4567",
		Bio:       "Product designer and developer passionate about creating beautiful user experiences.",
		Company:   "Nexus Inc.",
		JobTitle:  "Senior Developer",
		Location:  "San Francisco, CA",
		Website:   "https://johndoe.com",
	}
}

// Get returns the saved profile, or the defaults when none was saved.
func (s *ProfileService) Get(ctx context.Context, account types.Account) (types.Profile, error) {
	profile, err := s.profiles.Get(ctx, account.ID)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultProfile(account), nil
	}
	if err != nil {
		return types.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	profile.Email = account.Email
	return profile, nil
}

// Update replaces the editable fields. Name and email changes are written
// through to the account so the session reflects them.
func (s *ProfileService) Update(ctx context.Context, account types.Account, update types.Profile) (types.Profile, error) {
	current, err := s.Get(ctx, account)
	if err != nil {
		return types.Profile{}, err
	}

	update.AccountID = account.ID
	update.AvatarKey = current.AvatarKey

	name := strings.TrimSpace(update.FirstName + " " + update.LastName)
	email := strings.TrimSpace(update.Email)
	if email == "" {
		email = account.Email
	}
	var saved types.Profile
	if (name != "" && name != account.Name) || email != account.Email {
		if name != "" {
			account.Name = name
		}
		account.Email = email
		saved, account, err = s.profiles.SaveWithAccount(ctx, update, account)
	} else {
		saved, err = s.profiles.Upsert(ctx, update)
	}
	if err != nil {
		return types.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	saved.Email = account.Email

	s.events.Publish(ctx, account.ID, activity.KindProfileUpdated, "")
	return saved, nil
}

// UploadAvatar stores the image and links it to the profile.
func (s *ProfileService) UploadAvatar(ctx context.Context, account types.Account, data []byte, contentType string) (types.Profile, error) {
	if s.storage == nil {
		return types.Profile{}, ErrStorageUnavailable
	}

	profile, err := s.Get(ctx, account)
	if err != nil {
		return types.Profile{}, err
	}

	key := storage.AvatarPrefix + strconv.Itoa(account.ID)
	if err := s.storage.PutBytes(ctx, key, data, contentType); err != nil {
		return types.Profile{}, fmt.Errorf("store avatar: %w", err)
	}

	profile.AvatarKey = key
	saved, err := s.profiles.Upsert(ctx, profile)
	if err != nil {
		return types.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	saved.Email = account.Email

	s.events.Publish(ctx, account.ID, activity.KindAvatarUploaded, key)
	return saved, nil
}

// Avatar opens the stored avatar. Callers must close the reader.
func (s *ProfileService) Avatar(ctx context.Context, accountID int) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	profile, err := s.profiles.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, err
	}
	if profile.AvatarKey == "" {
		return nil, storage.ErrObjectNotFound
	}
	return s.storage.Get(ctx, profile.AvatarKey)
}

// Stats returns the profile summary cards.
func (s *ProfileService) Stats() []types.Stat {
	return []types.Stat{
		{Label: "Projects", Value: "24", Icon: "📁"},
		{Label: "Tasks Completed", Value: "156", Icon: "✅"},
		{Label: "Team Members", Value: "12", Icon: "👥"},
		{Label: "Hours Logged", Value: "892", Icon: "⏰"},
	}
}

// Activity returns one page of the account's activity feed.
func (s *ProfileService) Activity(ctx context.Context, accountID, offset, limit int) ([]types.Activity, int, error) {
	return s.activities.ListByAccount(ctx, accountID, offset, limit)
}
