package directory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nexus-dash/apiserver/types"
)

// NewThisMonth is the "new this month" figure of the directory stats. It is
// a display constant and is not derived from join dates.
const NewThisMonth = 3

// ErrInvalidCriteria is returned for a role or status filter outside its
// enumeration.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// NormalizeCriteria fills empty role and status filters with FilterAll and
// rejects unknown values.
func NormalizeCriteria(c types.FilterCriteria) (types.FilterCriteria, error) {
	if c.Role == "" {
		c.Role = types.FilterAll
	}
	if c.Status == "" {
		c.Status = types.FilterAll
	}
	if c.Role != types.FilterAll && !types.Role(c.Role).Valid() {
		return types.FilterCriteria{}, fmt.Errorf("%w: unknown role %q", ErrInvalidCriteria, c.Role)
	}
	if c.Status != types.FilterAll && !types.Status(c.Status).Valid() {
		return types.FilterCriteria{}, fmt.Errorf("%w: unknown status %q", ErrInvalidCriteria, c.Status)
	}
	return c, nil
}

// Matches reports whether record satisfies every criterion.
func Matches(record types.UserRecord, c types.FilterCriteria) bool {
	if c.Query != "" {
		query := strings.ToLower(c.Query)
		if !strings.Contains(strings.ToLower(record.Name), query) &&
			!strings.Contains(strings.ToLower(record.Email), query) {
			return false
		}
	}
	if c.Role != types.FilterAll && string(record.Role) != c.Role {
		return false
	}
	if c.Status != types.FilterAll && string(record.Status) != c.Status {
		return false
	}
	return true
}

// Filter returns the records matching c in their original order. The input
// slice is not modified.
func Filter(records []types.UserRecord, c types.FilterCriteria) []types.UserRecord {
	result := make([]types.UserRecord, 0, len(records))
	for _, record := range records {
		if Matches(record, c) {
			result = append(result, record)
		}
	}
	return result
}

// Aggregate computes the directory stats over the full record set.
func Aggregate(records []types.UserRecord) types.DirectoryStats {
	stats := types.DirectoryStats{
		Total:        len(records),
		NewThisMonth: NewThisMonth,
	}
	for _, record := range records {
		if record.Status == types.StatusActive {
			stats.Active++
		}
		if record.Role == types.RoleAdmin {
			stats.Admins++
		}
	}
	return stats
}
