package types

import "time"

// Profile holds the editable personal information of an account.
type Profile struct {
	// AccountID links the profile to its account.
	AccountID int `json:"account_id" db:"account_id"`

	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`

	// Email mirrors the primary email of the account and is not stored
	// with the profile.
	Email string `json:"email" db:"-"`

	Phone    string `json:"phone" db:"phone"`
	Bio      string `json:"bio" db:"bio"`
	Company  string `json:"company" db:"company"`
	JobTitle string `json:"role" db:"job_title"`
	Location string `json:"location" db:"location"`
	Website  string `json:"website" db:"website"`

	// AvatarKey is the object storage key of the uploaded avatar, empty
	// when the account has none.
	AvatarKey string `json:"avatar_key,omitempty" db:"avatar_key"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Stat is a labelled figure on a dashboard card.
type Stat struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Icon   string `json:"icon"`
	Change string `json:"change,omitempty"`
	Up     *bool  `json:"up,omitempty"`
}

// Activity is one entry of an account's recent activity feed.
type Activity struct {
	ID        string    `json:"id" db:"id"`
	AccountID int       `json:"account_id" db:"account_id"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details" db:"details"`
	Icon      string    `json:"icon" db:"icon"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
