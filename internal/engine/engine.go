package engine

import (
	"context"
	"database/sql"
	"log"

	"clientportal/internal/domain"
	"clientportal/internal/events"
	"clientportal/internal/repo"
)

// ProjectStore is the project collection of the persistent store.
type ProjectStore interface {
	InsertProject(ctx context.Context, p domain.Project) (domain.Project, error)
	GetProject(ctx context.Context, id string) (domain.Project, error)
	ListProjects(ctx context.Context, f repo.ProjectFilters) ([]domain.Project, error)
	UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// RequirementStore is the requirement collection of the persistent store.
type RequirementStore interface {
	InsertRequirement(ctx context.Context, q domain.Requirement) (domain.Requirement, error)
	GetRequirement(ctx context.Context, id string) (domain.Requirement, error)
	ListRequirements(ctx context.Context, projectID string) ([]domain.Requirement, error)
	UpdateRequirement(ctx context.Context, id string, patch domain.RequirementPatch) (domain.Requirement, error)
	DeleteRequirement(ctx context.Context, id string) error
}

// ActivityStore is the project_updates collection of the persistent store.
type ActivityStore interface {
	events.Sink
	ListActivity(ctx context.Context, f domain.ActivityFilter) ([]domain.ActivityEntry, error)
}

type Store interface {
	ProjectStore
	RequirementStore
	ActivityStore
}

// Engine owns the project and requirement lifecycle: validation, the store
// calls, and the activity entry paired with each state change. The entity
// write and its activity entry are two independent store calls; a failed
// activity write never undoes or fails the entity write.
type Engine struct {
	Store  Store
	Events events.Writer
	Logger *log.Logger
	// OnAuditError, when set, receives every activity write failure after
	// it has been logged.
	OnAuditError func(*AuditWriteError)
}

// New builds an Engine over the SQLite store.
func New(db *sql.DB, logger *log.Logger) Engine {
	return NewWithStore(repo.New(db), logger)
}

// NewWithStore builds an Engine over any Store implementation.
func NewWithStore(s Store, logger *log.Logger) Engine {
	return Engine{
		Store:  s,
		Events: events.Writer{Sink: s},
		Logger: logger,
	}
}

func (e Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// recordActivity appends entry; failures are reported, never returned.
func (e Engine) recordActivity(ctx context.Context, entry domain.ActivityEntry) {
	if _, err := e.Events.Append(ctx, entry); err != nil {
		aerr := &AuditWriteError{ProjectID: entry.ProjectID, UpdateType: entry.UpdateType, Err: err}
		e.logger().Printf("WARNING: %v", aerr)
		if e.OnAuditError != nil {
			e.OnAuditError(aerr)
		}
	}
}

// ListActivity returns a project's activity entries newest first.
func (e Engine) ListActivity(ctx context.Context, f domain.ActivityFilter) ([]domain.ActivityEntry, error) {
	if f.ProjectID == "" {
		return nil, validationErr("project_id", "is required")
	}
	if f.UpdateType != "" && !f.UpdateType.Valid() {
		return nil, validationErr("update_type", "must be one of %v", domain.UpdateTypes)
	}
	if f.Limit < 0 {
		return nil, validationErr("limit", "must not be negative")
	}
	items, err := e.Store.ListActivity(ctx, f)
	if err != nil {
		return nil, storeErr("list activity", err)
	}
	return items, nil
}
