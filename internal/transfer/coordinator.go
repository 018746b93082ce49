// Package transfer moves a member from one project to another as an
// add-then-remove pair of backend writes.
//
// Adding to the target before removing from the source means the member is
// never left without an active project. If the removal fails the member is
// briefly on both projects; the coordinator reports that as a
// *PartialTransferError and leaves the retry to the caller.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yukikurage/team-allocation-api/internal/membership"
)

// State is a step of a transfer.
type State string

const (
	StateIdle               State = "idle"
	StateAddingToTarget     State = "adding_to_target"
	StateRemovingFromSource State = "removing_from_source"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

const transferAllocationPercentage = 100

var (
	// ErrSameProject means the member was dropped onto the project they are already on.
	ErrSameProject = errors.New("user is already a member of this project")
	// ErrAlreadyAssigned means the member already holds an active membership on the target.
	ErrAlreadyAssigned    = errors.New("user is already assigned to the target project")
	ErrNotSourceMember    = errors.New("user is not a member of the source project")
	ErrTransferInProgress = errors.New("a transfer for this user is already in progress")
)

// PartialTransferError means the add succeeded and the removal failed: the
// member is active on both projects until RetryRemoval succeeds.
type PartialTransferError struct {
	UserID          uint64
	SourceProjectID uint64
	TargetProjectID uint64
	Err             error
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf("user %d was added to project %d but could not be removed from project %d: %v",
		e.UserID, e.TargetProjectID, e.SourceProjectID, e.Err)
}

func (e *PartialTransferError) Unwrap() error {
	return e.Err
}

// Store is the subset of membership.Store the coordinator drives.
type Store interface {
	GetRoster(ctx context.Context, projectID uint64) ([]membership.Membership, error)
	Add(ctx context.Context, req membership.AddRequest) (*membership.Membership, error)
	Remove(ctx context.Context, projectID, userID uint64) error
}

// ProjectLookup resolves a project's display name.
type ProjectLookup interface {
	ProjectName(ctx context.Context, projectID uint64) (string, error)
}

// Request describes one drag of a member onto another project. An empty Role
// keeps the member's role on the source project.
type Request struct {
	UserID          uint64
	SourceProjectID uint64
	TargetProjectID uint64
	Role            string
}

// Result is the outcome of a completed transfer.
type Result struct {
	State             State                  `json:"state"`
	Membership        *membership.Membership `json:"membership,omitempty"`
	TargetProjectName string                 `json:"target_project_name,omitempty"`
}

// Coordinator runs transfers. It is safe for concurrent use; transfers of
// different users run independently.
type Coordinator struct {
	store    Store
	projects ProjectLookup
	logger   *zap.Logger
	observer func(Request, State)

	mu       sync.Mutex
	inFlight map[uint64]struct{}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithObserver registers a callback invoked on every state change.
func WithObserver(fn func(Request, State)) Option {
	return func(c *Coordinator) {
		c.observer = fn
	}
}

// NewCoordinator creates a Coordinator. projects may be nil, in which case
// results carry no project name.
func NewCoordinator(store Store, projects ProjectLookup, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		projects: projects,
		logger:   zap.NewNop(),
		inFlight: make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transfer moves req.UserID from the source project to the target project.
func (c *Coordinator) Transfer(ctx context.Context, req Request) (*Result, error) {
	if req.SourceProjectID == req.TargetProjectID {
		return nil, ErrSameProject
	}
	if !c.begin(req.UserID) {
		return nil, ErrTransferInProgress
	}
	defer c.end(req.UserID)

	log := c.logger.With(
		zap.Uint64("user_id", req.UserID),
		zap.Uint64("source_project_id", req.SourceProjectID),
		zap.Uint64("target_project_id", req.TargetProjectID),
	)

	// The role lookup belongs to the add step, so a failed lookup still
	// fails out of an active state.
	c.transition(req, StateAddingToTarget)
	role := req.Role
	if role == "" {
		source, err := c.store.GetRoster(ctx, req.SourceProjectID)
		if err != nil {
			c.transition(req, StateFailed)
			return nil, fmt.Errorf("failed to load source roster: %w", err)
		}
		current, ok := membership.Find(source, req.UserID)
		if !ok {
			c.transition(req, StateFailed)
			return nil, ErrNotSourceMember
		}
		role = current.Role
	}

	added, err := c.store.Add(ctx, membership.AddRequest{
		ProjectID:            req.TargetProjectID,
		UserID:               req.UserID,
		Role:                 role,
		IsTeamLead:           false,
		AllocationPercentage: transferAllocationPercentage,
	})
	if err != nil {
		c.transition(req, StateFailed)
		if errors.Is(err, membership.ErrDuplicateMembership) {
			log.Info("transfer target already holds member")
			return nil, fmt.Errorf("%w: %w", ErrAlreadyAssigned, err)
		}
		log.Warn("transfer add step failed", zap.Error(err))
		return nil, fmt.Errorf("failed to add user to target project: %w", err)
	}

	c.transition(req, StateRemovingFromSource)
	if err := c.store.Remove(ctx, req.SourceProjectID, req.UserID); err != nil {
		c.transition(req, StateFailed)
		log.Error("transfer left member on both projects", zap.Error(err))
		return nil, &PartialTransferError{
			UserID:          req.UserID,
			SourceProjectID: req.SourceProjectID,
			TargetProjectID: req.TargetProjectID,
			Err:             err,
		}
	}

	c.transition(req, StateDone)
	log.Info("member transferred")

	return &Result{
		State:             StateDone,
		Membership:        added,
		TargetProjectName: c.projectName(ctx, req.TargetProjectID),
	}, nil
}

// RetryRemoval repeats only the removal step of a partial transfer.
func (c *Coordinator) RetryRemoval(ctx context.Context, partial *PartialTransferError) error {
	if partial == nil {
		return nil
	}
	if !c.begin(partial.UserID) {
		return ErrTransferInProgress
	}
	defer c.end(partial.UserID)

	if err := c.store.Remove(ctx, partial.SourceProjectID, partial.UserID); err != nil {
		return &PartialTransferError{
			UserID:          partial.UserID,
			SourceProjectID: partial.SourceProjectID,
			TargetProjectID: partial.TargetProjectID,
			Err:             err,
		}
	}
	c.logger.Info("partial transfer completed",
		zap.Uint64("user_id", partial.UserID),
		zap.Uint64("source_project_id", partial.SourceProjectID),
	)
	return nil
}

// InProgress reports whether a transfer for userID is running.
func (c *Coordinator) InProgress(userID uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[userID]
	return ok
}

func (c *Coordinator) begin(userID uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[userID]; busy {
		return false
	}
	c.inFlight[userID] = struct{}{}
	return true
}

func (c *Coordinator) end(userID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, userID)
}

func (c *Coordinator) transition(req Request, state State) {
	if c.observer != nil {
		c.observer(req, state)
	}
}

func (c *Coordinator) projectName(ctx context.Context, projectID uint64) string {
	if c.projects == nil {
		return ""
	}
	name, err := c.projects.ProjectName(ctx, projectID)
	if err != nil {
		c.logger.Warn("failed to resolve target project name", zap.Uint64("project_id", projectID), zap.Error(err))
		return ""
	}
	return name
}
