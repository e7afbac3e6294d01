package events

import (
	"context"
	"errors"
	"fmt"

	"clientportal/internal/domain"
)

// Sink persists activity entries. repo.Repo satisfies it.
type Sink interface {
	InsertActivity(ctx context.Context, e domain.ActivityEntry) (domain.ActivityEntry, error)
}

// Writer appends entries to the project activity log. Entries are never
// updated or removed through it.
type Writer struct {
	Sink Sink
}

func (w Writer) Append(ctx context.Context, e domain.ActivityEntry) (domain.ActivityEntry, error) {
	if w.Sink == nil {
		return domain.ActivityEntry{}, errors.New("activity sink not configured")
	}
	if e.ProjectID == "" {
		return domain.ActivityEntry{}, errors.New("activity project_id required")
	}
	if !e.UpdateType.Valid() {
		return domain.ActivityEntry{}, fmt.Errorf("invalid activity update_type %q", e.UpdateType)
	}
	if e.Metadata == nil {
		e.Metadata = domain.CommentMetadata{}
	}
	if got := e.Metadata.UpdateType(); got != e.UpdateType {
		return domain.ActivityEntry{}, fmt.Errorf("%s entry carries %s metadata", e.UpdateType, got)
	}
	return w.Sink.InsertActivity(ctx, e)
}

func ProjectCreated(projectID, actorID string) domain.ActivityEntry {
	return domain.ActivityEntry{
		ProjectID:  projectID,
		UpdateType: domain.UpdateComment,
		Message:    "Project created",
		Metadata:   domain.CommentMetadata{},
		CreatedBy:  actorID,
	}
}

func ProjectStatusChanged(projectID string, status domain.ProjectStatus, actorID string) domain.ActivityEntry {
	return domain.ActivityEntry{
		ProjectID:  projectID,
		UpdateType: domain.UpdateStatusChange,
		Message:    fmt.Sprintf("Project status changed to %s", status),
		Metadata:   domain.StatusChangeMetadata{NewStatus: status},
		CreatedBy:  actorID,
	}
}

func RequirementAdded(q domain.Requirement, actorID string) domain.ActivityEntry {
	return domain.ActivityEntry{
		ProjectID:  q.ProjectID,
		UpdateType: domain.UpdateRequirementAdded,
		Message:    fmt.Sprintf("New requirement added: %s", q.Title),
		Metadata:   domain.RequirementAddedMetadata{RequirementID: q.ID},
		CreatedBy:  actorID,
	}
}

// RequirementStatusChanged describes q as persisted after the update.
func RequirementStatusChanged(q domain.Requirement, status domain.RequirementStatus, actorID string) domain.ActivityEntry {
	return domain.ActivityEntry{
		ProjectID:  q.ProjectID,
		UpdateType: domain.UpdateRequirementUpdated,
		Message:    fmt.Sprintf("Requirement \"%s\" status changed to %s", q.Title, status),
		Metadata:   domain.RequirementUpdatedMetadata{RequirementID: q.ID, NewStatus: status},
		CreatedBy:  actorID,
	}
}
