package engine

import (
	"context"
	"strings"

	"clientportal/internal/domain"
	"clientportal/internal/events"
)

func (e Engine) ListRequirements(ctx context.Context, projectID string) ([]domain.Requirement, error) {
	if projectID == "" {
		return nil, validationErr("project_id", "is required")
	}
	items, err := e.Store.ListRequirements(ctx, projectID)
	if err != nil {
		return nil, storeErr("list requirements", err)
	}
	return items, nil
}

func (e Engine) GetRequirement(ctx context.Context, id string) (domain.Requirement, error) {
	q, err := e.Store.GetRequirement(ctx, id)
	if err != nil {
		return domain.Requirement{}, rowErr("requirement", id, "get requirement", err)
	}
	return q, nil
}

// CreateRequirement stores a pending requirement under an existing project
// and records a requirement_added entry.
func (e Engine) CreateRequirement(ctx context.Context, in domain.NewRequirement, actorID string) (domain.Requirement, error) {
	if in.ProjectID == "" {
		return domain.Requirement{}, validationErr("project_id", "is required")
	}
	if actorID == "" {
		return domain.Requirement{}, validationErr("created_by", "is required")
	}
	title, err := requireTitle(in.Title)
	if err != nil {
		return domain.Requirement{}, err
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.RequirementPriorityMedium
	}
	if !priority.Valid() {
		return domain.Requirement{}, validationErr("priority", "must be one of %v", domain.RequirementPriorities)
	}
	if err := validateDate("due_date", in.DueDate); err != nil {
		return domain.Requirement{}, err
	}
	if _, err := e.Store.GetProject(ctx, in.ProjectID); err != nil {
		return domain.Requirement{}, rowErr("project", in.ProjectID, "get project", err)
	}
	q, err := e.Store.InsertRequirement(ctx, domain.Requirement{
		ProjectID:   in.ProjectID,
		Title:       title,
		Description: in.Description,
		Status:      domain.RequirementPending,
		Priority:    priority,
		CreatedBy:   actorID,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return domain.Requirement{}, storeErr("create requirement", err)
	}
	e.recordActivity(ctx, events.RequirementAdded(q, actorID))
	return q, nil
}

func validateRequirementPatch(patch *domain.RequirementPatch) error {
	if patch.Title != nil {
		title, err := requireTitle(*patch.Title)
		if err != nil {
			return err
		}
		patch.Title = &title
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return validationErr("status", "must be one of %v", domain.RequirementStatuses)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return validationErr("priority", "must be one of %v", domain.RequirementPriorities)
	}
	if patch.AssignedTo != nil {
		assignee := strings.TrimSpace(*patch.AssignedTo)
		patch.AssignedTo = &assignee
	}
	return validateDate("due_date", patch.DueDate)
}

// UpdateRequirement applies patch to requirement id. A status in the patch
// records a requirement_updated entry describing the row as persisted.
func (e Engine) UpdateRequirement(ctx context.Context, id string, patch domain.RequirementPatch, actorID string) (domain.Requirement, error) {
	if actorID == "" {
		return domain.Requirement{}, validationErr("actor", "is required")
	}
	if err := validateRequirementPatch(&patch); err != nil {
		return domain.Requirement{}, err
	}
	q, err := e.Store.UpdateRequirement(ctx, id, patch)
	if err != nil {
		return domain.Requirement{}, rowErr("requirement", id, "update requirement", err)
	}
	if patch.Status != nil {
		e.recordActivity(ctx, events.RequirementStatusChanged(q, q.Status, actorID))
	}
	return q, nil
}

func (e Engine) DeleteRequirement(ctx context.Context, id string) error {
	if err := e.Store.DeleteRequirement(ctx, id); err != nil {
		return rowErr("requirement", id, "delete requirement", err)
	}
	return nil
}
