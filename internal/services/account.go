package services

import (
	"context"

	"github.com/nexus-dash/apiserver/internal/activity"
	"github.com/nexus-dash/apiserver/types"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id int) (types.Account, error)
	GetByUsername(ctx context.Context, username string) (types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	Update(ctx context.Context, account types.Account) (types.Account, error)
	Delete(ctx context.Context, id int) error
}

// AccountService encapsulates account use-cases.
type AccountService struct {
	repo   AccountRepository
	events *activity.Publisher
}

func NewAccountService(repo AccountRepository, events *activity.Publisher) *AccountService {
	return &AccountService{repo: repo, events: events}
}

func (s *AccountService) GetByID(ctx context.Context, id int) (types.Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AccountService) GetByUsername(ctx context.Context, username string) (types.Account, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Create stores the account and announces it on the activity feed.
func (s *AccountService) Create(ctx context.Context, account types.Account) (types.Account, error) {
	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return types.Account{}, err
	}
	s.events.Publish(ctx, created.ID, activity.KindJoined, created.Username)
	return created, nil
}

func (s *AccountService) Update(ctx context.Context, account types.Account) (types.Account, error) {
	return s.repo.Update(ctx, account)
}

func (s *AccountService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
