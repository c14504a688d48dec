package directory

import (
	"fmt"
	"sync"
	"time"

	"github.com/nexus-dash/apiserver/types"
	"golang.org/x/exp/rand"
)

const (
	activeProbability = 0.8
	maxProjects       = 20
	joinedYear        = 2024
)

var avatarGlyphs = []string{"👨", "👩", "👨‍💻", "👩‍💻", "👨‍🎨", "👩‍🎨", "👨‍💼", "👩‍💼"}

// Synthesizer produces the display-only fields of a directory record.
type Synthesizer interface {
	Role() types.Role
	Status() types.Status
	Avatar() string
	Joined() types.Date
	Projects() int
}

// RandomSynthesizer draws display fields from a pseudo-random source.
// It is not safe for concurrent use.
type RandomSynthesizer struct {
	rng *rand.Rand
}

// NewRandomSynthesizer returns a synthesizer seeded with seed.
func NewRandomSynthesizer(seed uint64) *RandomSynthesizer {
	return &RandomSynthesizer{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomSynthesizer) Role() types.Role {
	return types.Roles[s.rng.Intn(len(types.Roles))]
}

func (s *RandomSynthesizer) Status() types.Status {
	if s.rng.Float64() < activeProbability {
		return types.StatusActive
	}
	return types.StatusInactive
}

func (s *RandomSynthesizer) Avatar() string {
	return avatarGlyphs[s.rng.Intn(len(avatarGlyphs))]
}

// Joined picks a day of joinedYear uniformly.
func (s *RandomSynthesizer) Joined() types.Date {
	start := time.Date(joinedYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(start.AddDate(1, 0, 0).Sub(start).Hours() / 24)
	return types.Date{Time: start.AddDate(0, 0, s.rng.Intn(days))}
}

func (s *RandomSynthesizer) Projects() int {
	return s.rng.Intn(maxProjects) + 1
}

// Normalizer maps raw upstream users to directory records.
type Normalizer struct {
	mu    sync.Mutex
	synth Synthesizer
}

// NewNormalizer constructs a Normalizer drawing display fields from synth.
func NewNormalizer(synth Synthesizer) *Normalizer {
	return &Normalizer{synth: synth}
}

// Normalize returns one record per raw user, in input order.
func (n *Normalizer) Normalize(raw []RawUser) []types.UserRecord {
	n.mu.Lock()
	defer n.mu.Unlock()

	records := make([]types.UserRecord, 0, len(raw))
	for _, user := range raw {
		records = append(records, types.UserRecord{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Username: user.Username,
			Phone:    user.Phone,
			Website:  user.Website,
			Company:  user.Company.Name,
			Address:  fmt.Sprintf("%s, %s", user.Address.City, user.Address.Street),
			Role:     n.synth.Role(),
			Status:   n.synth.Status(),
			Avatar:   n.synth.Avatar(),
			Joined:   n.synth.Joined(),
			Projects: n.synth.Projects(),
		})
	}
	return records
}
