package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nexus-dash/apiserver/internal/activity"
	"github.com/nexus-dash/apiserver/internal/directory"
	"github.com/nexus-dash/apiserver/internal/storage"
	"github.com/nexus-dash/apiserver/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	tracerName = "github.com/nexus-dash/apiserver/internal/services"
	loadKey    = "directory"
)

// ErrDirectoryUnavailable is returned while the directory view is in the
// error phase. It wraps the fetch failure reason.
var ErrDirectoryUnavailable = errors.New("directory unavailable")

// DirectoryService owns the directory view shared by every viewer. The
// first listing triggers the load; later listings filter the loaded set
// until a reload replaces it.
type DirectoryService struct {
	source     directory.Source
	normalizer *directory.Normalizer
	storage    *storage.Storage
	events     *activity.Publisher
	logger     *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time

	mu    sync.RWMutex
	view  directory.View
	loads singleflight.Group
}

// NewDirectoryService constructs a DirectoryService. store and events may
// be nil.
func NewDirectoryService(
	source directory.Source,
	normalizer *directory.Normalizer,
	store *storage.Storage,
	events *activity.Publisher,
	logger *zap.Logger,
) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		source:     source,
		normalizer: normalizer,
		storage:    store,
		events:     events,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
		view:       directory.View{Phase: directory.PhaseIdle},
	}
}

// View returns the current view.
func (s *DirectoryService) View() directory.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// List renders the directory for criteria, loading it on first use. A view
// in the error phase yields its listing together with
// ErrDirectoryUnavailable.
func (s *DirectoryService) List(ctx context.Context, criteria types.FilterCriteria) (directory.Listing, error) {
	criteria, err := directory.NormalizeCriteria(criteria)
	if err != nil {
		return directory.Listing{}, err
	}

	view := s.View()
	if view.Phase == directory.PhaseIdle {
		view = s.load(ctx, false)
	}
	return render(view, criteria)
}

// Reload discards the loaded set and fetches it again. This is the only way
// out of the error phase.
func (s *DirectoryService) Reload(ctx context.Context, accountID int) (directory.Listing, error) {
	view := s.load(ctx, true)
	s.events.Publish(ctx, accountID, activity.KindDirectoryReloaded, string(view.Phase))
	return render(view, types.MatchAll())
}

func render(view directory.View, criteria types.FilterCriteria) (directory.Listing, error) {
	listing := view.Render(criteria)
	if view.Phase == directory.PhaseError {
		return listing, fmt.Errorf("%w: %s", ErrDirectoryUnavailable, view.Err)
	}
	return listing, nil
}

// load runs one fetch at a time; concurrent callers share its outcome.
// Without force, a view that left the idle phase meanwhile is returned as is.
func (s *DirectoryService) load(ctx context.Context, force bool) directory.View {
	// The shared fetch outlives any single caller; the source bounds it
	// with its own timeout.
	ctx = context.WithoutCancel(ctx)

	result, _, _ := s.loads.Do(loadKey, func() (any, error) {
		if current := s.View(); !force && current.Phase != directory.PhaseIdle {
			return current, nil
		}
		s.transition(directory.View.Begin)

		ctx, span := s.tracer.Start(ctx, "directory.fetch")
		defer span.End()

		raw, err := s.source.Fetch(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			s.logger.Warn("directory_fetch_failed", zap.Error(err))
			return s.transition(func(v directory.View) directory.View { return v.Fail(err) }), nil
		}

		records := s.normalizer.Normalize(raw)
		span.SetAttributes(attribute.Int("directory.records", len(records)))
		loadedAt := s.now().UTC()
		view := s.transition(func(v directory.View) directory.View { return v.Succeed(records, loadedAt) })

		s.logger.Info("directory_loaded", zap.Int("records", len(records)))
		s.archive(ctx, records, loadedAt)
		return view, nil
	})
	return result.(directory.View)
}

func (s *DirectoryService) transition(next func(directory.View) directory.View) directory.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = next(s.view)
	return s.view
}

func (s *DirectoryService) archive(ctx context.Context, records []types.UserRecord, at time.Time) {
	if s.storage == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn("encode_directory_snapshot", zap.Error(err))
		return
	}
	key := fmt.Sprintf("%s%d.json", storage.SnapshotPrefix, at.UnixNano())
	if err := s.storage.PutBytes(ctx, key, data, "application/json"); err != nil {
		s.logger.Warn("archive_directory_snapshot", zap.String("key", key), zap.Error(err))
	}
}
