package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role is the team role shown in the user directory.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleDeveloper Role = "Developer"
	RoleDesigner  Role = "Designer"
	RoleManager   Role = "Manager"
)

// Roles lists every directory role in display order.
var Roles = []Role{RoleAdmin, RoleDeveloper, RoleDesigner, RoleManager}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Status is the activity status shown in the user directory.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Statuses lists every directory status in display order.
var Statuses = []Status{StatusActive, StatusInactive}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// FilterAll matches every role or status.
const FilterAll = "all"

// UserRecord is a directory entry after normalization.
//
// Role, Status, Avatar, Joined and Projects are display fields synthesized
// when the record is normalized. They stay fixed for the lifetime of the
// snapshot the record belongs to.
type UserRecord struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	Company  string `json:"company"`
	Address  string `json:"address"`
	Role     Role   `json:"role"`
	Status   Status `json:"status"`
	Avatar   string `json:"avatar"`
	Joined   Date   `json:"joined"`
	Projects int    `json:"projects"`
}

// FilterCriteria selects the visible subset of the directory.
// Role and Status hold either an enumeration value or FilterAll.
type FilterCriteria struct {
	Query  string `json:"query"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// MatchAll returns criteria that select every record.
func MatchAll() FilterCriteria {
	return FilterCriteria{Role: FilterAll, Status: FilterAll}
}

// DirectoryStats are the counts shown above the directory table.
// They are always computed over the unfiltered record set.
type DirectoryStats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Admins       int `json:"admins"`
	NewThisMonth int `json:"new_this_month"`
}

const dateLayout = "2006-01-02"

// Date is a calendar day encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the calendar day of year/month/day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", raw, err)
	}
	d.Time = parsed
	return nil
}
