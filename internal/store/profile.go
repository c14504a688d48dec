package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nexus-dash/apiserver/types"
)

// ProfileRepository persists the editable profile of each account.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns ErrNotFound until the account saves its profile once.
func (r *ProfileRepository) Get(ctx context.Context, accountID int) (types.Profile, error) {
	const query = `
		SELECT account_id, first_name, last_name, phone, bio, company, job_title,
			location, website, avatar_key, updated_at
		FROM profiles
		WHERE account_id = $1`
	var p types.Profile
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&p.AccountID,
		&p.FirstName,
		&p.LastName,
		&p.Phone,
		&p.Bio,
		&p.Company,
		&p.JobTitle,
		&p.Location,
		&p.Website,
		&p.AvatarKey,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Profile{}, ErrNotFound
		}
		return types.Profile{}, err
	}
	return p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p types.Profile) (types.Profile, error) {
	return upsertProfile(ctx, r.db, p)
}

// SaveWithAccount upserts the profile and updates its account in one
// transaction. Neither write is kept when the other fails.
func (r *ProfileRepository) SaveWithAccount(ctx context.Context, p types.Profile, account types.Account) (types.Profile, types.Account, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Profile{}, types.Account{}, err
	}
	defer func() { _ = tx.Rollback() }()

	account, err = updateAccount(ctx, tx, account)
	if err != nil {
		return types.Profile{}, types.Account{}, err
	}
	p, err = upsertProfile(ctx, tx, p)
	if err != nil {
		return types.Profile{}, types.Account{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Profile{}, types.Account{}, err
	}
	return p, account, nil
}

func upsertProfile(ctx context.Context, db execer, p types.Profile) (types.Profile, error) {
	p.UpdatedAt = time.Now()

	const query = `
		INSERT INTO profiles (account_id, first_name, last_name, phone, bio, company, job_title,
			location, website, avatar_key, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (account_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			bio = EXCLUDED.bio,
			company = EXCLUDED.company,
			job_title = EXCLUDED.job_title,
			location = EXCLUDED.location,
			website = EXCLUDED.website,
			avatar_key = EXCLUDED.avatar_key,
			updated_at = EXCLUDED.updated_at`
	if _, err := db.ExecContext(
		ctx,
		query,
		p.AccountID,
		p.FirstName,
		p.LastName,
		p.Phone,
		p.Bio,
		p.Company,
		p.JobTitle,
		p.Location,
		p.Website,
		p.AvatarKey,
		p.UpdatedAt,
	); err != nil {
		return types.Profile{}, err
	}
	return p, nil
}
