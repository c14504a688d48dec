package directory

import (
	"time"

	"github.com/nexus-dash/apiserver/types"
)

// Phase is the load state of the directory view.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// NoMatchesMessage accompanies an empty listing.
const NoMatchesMessage = "No users found. Try adjusting your search or filters."

// View is an immutable snapshot of the directory view. Transitions return a
// new View and leave the receiver untouched.
type View struct {
	Phase    Phase
	Records  []types.UserRecord
	Err      string
	LoadedAt time.Time
}

// Begin moves the view to loading and drops the previous outcome.
func (v View) Begin() View {
	return View{Phase: PhaseLoading}
}

// Succeed stores a freshly normalized record set.
func (v View) Succeed(records []types.UserRecord, at time.Time) View {
	return View{Phase: PhaseReady, Records: records, LoadedAt: at}
}

// Fail records the failure reason; the record set is discarded.
func (v View) Fail(err error) View {
	return View{Phase: PhaseError, Err: err.Error()}
}

// Listing is what the directory view shows for a set of criteria.
type Listing struct {
	State    Phase                `json:"state"`
	Error    string               `json:"error,omitempty"`
	Criteria types.FilterCriteria `json:"criteria"`
	Stats    types.DirectoryStats `json:"stats"`
	Items    []types.UserRecord   `json:"items"`
	Empty    bool                 `json:"empty"`
	Message  string               `json:"message,omitempty"`
	LoadedAt *time.Time           `json:"loaded_at,omitempty"`
}

// Render derives the listing for c. Outside PhaseReady no filtering happens
// and only the state (plus the failure reason) is reported.
func (v View) Render(c types.FilterCriteria) Listing {
	if v.Phase != PhaseReady {
		return Listing{State: v.Phase, Error: v.Err, Criteria: c}
	}

	items := Filter(v.Records, c)
	loadedAt := v.LoadedAt
	listing := Listing{
		State:    PhaseReady,
		Criteria: c,
		Stats:    Aggregate(v.Records),
		Items:    items,
		LoadedAt: &loadedAt,
	}
	if len(items) == 0 {
		listing.Empty = true
		listing.Message = NoMatchesMessage
	}
	return listing
}
