package membership

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yukikurage/team-allocation-api/internal/capacity"
)

// Store fetches and caches project rosters and performs membership writes
// against the backend. It is safe for concurrent use.
type Store struct {
	remote   Remote
	cache    RosterCache
	capacity *capacity.Validator
	validate *validator.Validate
	logger   *zap.Logger
	pending  *pendingSet
	closed   atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithCache replaces the default in-memory cache.
func WithCache(cache RosterCache) Option {
	return func(s *Store) {
		s.cache = cache
	}
}

// WithCapacity enables the advisory capacity check before Add and before a
// role change.
func WithCapacity(v capacity.Validator) Option {
	return func(s *Store) {
		s.capacity = &v
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store backed by remote.
func NewStore(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote:   remote,
		cache:    NewMemoryCache(),
		validate: validator.New(),
		logger:   zap.NewNop(),
		pending:  newPendingSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRoster returns the active roster of a project, reading through the cache.
func (s *Store) GetRoster(ctx context.Context, projectID uint64) ([]Membership, error) {
	roster, ok, err := s.cache.Get(ctx, projectID)
	if err != nil {
		s.logger.Warn("roster cache read failed", zap.Uint64("project_id", projectID), zap.Error(err))
	} else if ok {
		return roster, nil
	}
	return s.fetch(ctx, projectID)
}

// Refresh drops the cached roster of a project and fetches it again.
func (s *Store) Refresh(ctx context.Context, projectID uint64) error {
	if err := s.cache.Invalidate(ctx, projectID); err != nil {
		s.logger.Warn("roster cache invalidation failed", zap.Uint64("project_id", projectID), zap.Error(err))
	}
	_, err := s.fetch(ctx, projectID)
	return err
}

// Invalidate drops the cached roster of a project without refetching.
func (s *Store) Invalidate(ctx context.Context, projectID uint64) error {
	return s.cache.Invalidate(ctx, projectID)
}

// Add adds a user to a project. A user who already holds an active
// membership is rejected with ErrDuplicateMembership, whether the cached
// roster or the backend detects it.
func (s *Store) Add(ctx context.Context, req AddRequest) (*Membership, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	key := Key{ProjectID: req.ProjectID, UserID: req.UserID}
	if !s.pending.acquire(key) {
		return nil, ErrOperationPending
	}

	roster, err := s.GetRoster(ctx, req.ProjectID)
	if err != nil {
		s.pending.release(key)
		return nil, err
	}
	if _, exists := Find(roster, req.UserID); exists {
		s.pending.release(key)
		return nil, ErrDuplicateMembership
	}
	if s.capacity != nil {
		if err := s.capacity.Check(Seats(roster), req.Role); err != nil {
			s.pending.release(key)
			return nil, fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
		}
	}

	created, err := s.remote.AddToProject(ctx, req)
	s.pending.release(key)
	if err != nil {
		if errors.Is(err, ErrDuplicateMembership) || errors.Is(err, ErrCapacityExceeded) {
			// the backend saw a roster we did not
			s.reconcile(ctx, req.ProjectID)
		}
		return nil, err
	}

	s.logger.Info("member added to project",
		zap.Uint64("project_id", req.ProjectID),
		zap.Uint64("user_id", req.UserID),
		zap.String("role", req.Role),
	)
	s.reconcile(ctx, req.ProjectID)
	return created, nil
}

// Update changes role, lead flag or allocation of an existing membership.
func (s *Store) Update(ctx context.Context, req UpdateRequest) (*Membership, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	key := Key{ProjectID: req.ProjectID, UserID: req.UserID}
	if !s.pending.acquire(key) {
		return nil, ErrOperationPending
	}

	if s.capacity != nil && req.Role != nil {
		roster, err := s.GetRoster(ctx, req.ProjectID)
		if err != nil {
			s.pending.release(key)
			return nil, err
		}
		if current, ok := Find(roster, req.UserID); ok {
			if err := s.capacity.CheckRoleChange(Seats(roster), current.Role, *req.Role); err != nil {
				s.pending.release(key)
				return nil, fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
			}
		}
	}

	updated, err := s.remote.UpdateMember(ctx, req)
	s.pending.release(key)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) || errors.Is(err, ErrCapacityExceeded) {
			s.reconcile(ctx, req.ProjectID)
		}
		return nil, err
	}

	s.reconcile(ctx, req.ProjectID)
	return updated, nil
}

// Remove removes a user from a project. Removing a membership that does not
// exist succeeds; transport failures are returned.
func (s *Store) Remove(ctx context.Context, projectID, userID uint64) error {
	key := Key{ProjectID: projectID, UserID: userID}
	if !s.pending.acquire(key) {
		return ErrOperationPending
	}

	err := s.remote.RemoveFromProject(ctx, projectID, userID)
	s.pending.release(key)
	if err != nil && !errors.Is(err, ErrMemberNotFound) {
		return err
	}
	if err != nil {
		s.logger.Debug("remove of absent member ignored",
			zap.Uint64("project_id", projectID),
			zap.Uint64("user_id", userID),
		)
	} else {
		s.logger.Info("member removed from project",
			zap.Uint64("project_id", projectID),
			zap.Uint64("user_id", userID),
		)
	}

	s.reconcile(ctx, projectID)
	return nil
}

// IsPending reports whether a write for (projectID, userID) is in flight.
func (s *Store) IsPending(projectID, userID uint64) bool {
	return s.pending.has(Key{ProjectID: projectID, UserID: userID})
}

// Pending lists the keys with a write in flight.
func (s *Store) Pending() []Key {
	return s.pending.snapshot()
}

// Close stops cache maintenance for writes that complete afterwards. Writes
// already sent to the backend still run to completion.
func (s *Store) Close() {
	s.closed.Store(true)
}

func (s *Store) fetch(ctx context.Context, projectID uint64) ([]Membership, error) {
	roster, err := s.remote.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	roster = Active(roster)
	if err := s.cache.Set(ctx, projectID, roster); err != nil {
		s.logger.Warn("roster cache write failed", zap.Uint64("project_id", projectID), zap.Error(err))
	}
	return roster, nil
}

// reconcile replaces the cached roster with the backend's after a write.
// The backend may have side effects the client cannot predict, so the cache
// is never patched locally.
func (s *Store) reconcile(ctx context.Context, projectID uint64) {
	if s.closed.Load() {
		return
	}
	if err := s.Refresh(ctx, projectID); err != nil {
		s.logger.Warn("roster refetch after write failed",
			zap.Uint64("project_id", projectID),
			zap.Error(err),
		)
	}
}
