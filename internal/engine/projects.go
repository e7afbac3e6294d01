package engine

import (
	"context"

	"clientportal/internal/domain"
	"clientportal/internal/events"
	"clientportal/internal/repo"
)

// ListProjects returns ownerID's projects newest first. Status and priority
// are matched by the store; Search is applied here.
func (e Engine) ListProjects(ctx context.Context, ownerID string, f domain.ProjectFilter) ([]domain.Project, error) {
	if ownerID == "" {
		return nil, validationErr("user_id", "is required")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, validationErr("status", "must be one of %v", domain.ProjectStatuses)
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return nil, validationErr("priority", "must be one of %v", domain.ProjectPriorities)
	}
	items, err := e.Store.ListProjects(ctx, repo.ProjectFilters{OwnerID: ownerID, Status: f.Status, Priority: f.Priority})
	if err != nil {
		return nil, storeErr("list projects", err)
	}
	res := make([]domain.Project, 0, len(items))
	for _, p := range items {
		if matchesSearch(p.Title, p.Description, f.Search) {
			res = append(res, p)
		}
	}
	return res, nil
}

func (e Engine) GetProject(ctx context.Context, id string) (domain.Project, error) {
	p, err := e.Store.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, rowErr("project", id, "get project", err)
	}
	return p, nil
}

// CreateProject stores a new project for ownerID and records a
// "Project created" comment.
func (e Engine) CreateProject(ctx context.Context, ownerID string, in domain.NewProject) (domain.Project, error) {
	if ownerID == "" {
		return domain.Project{}, validationErr("user_id", "is required")
	}
	title, err := requireTitle(in.Title)
	if err != nil {
		return domain.Project{}, err
	}
	status := in.Status
	if status == "" {
		status = domain.ProjectNew
	}
	if !status.Valid() {
		return domain.Project{}, validationErr("status", "must be one of %v", domain.ProjectStatuses)
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.ProjectPriorityMedium
	}
	if !priority.Valid() {
		return domain.Project{}, validationErr("priority", "must be one of %v", domain.ProjectPriorities)
	}
	if err := validateBudget(in.Budget); err != nil {
		return domain.Project{}, err
	}
	if err := validateNonNegativeInt("estimated_hours", in.EstimatedHours); err != nil {
		return domain.Project{}, err
	}
	if err := validateDate("start_date", in.StartDate); err != nil {
		return domain.Project{}, err
	}
	if err := validateDate("end_date", in.EndDate); err != nil {
		return domain.Project{}, err
	}
	p, err := e.Store.InsertProject(ctx, domain.Project{
		OwnerID:        ownerID,
		Title:          title,
		Description:    in.Description,
		Status:         status,
		Priority:       priority,
		Budget:         in.Budget,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		EstimatedHours: in.EstimatedHours,
		Tags:           normalizeTags(in.Tags),
	})
	if err != nil {
		return domain.Project{}, storeErr("create project", err)
	}
	e.recordActivity(ctx, events.ProjectCreated(p.ID, ownerID))
	return p, nil
}

func validateProjectPatch(patch *domain.ProjectPatch) error {
	if patch.Title != nil {
		title, err := requireTitle(*patch.Title)
		if err != nil {
			return err
		}
		patch.Title = &title
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return validationErr("status", "must be one of %v", domain.ProjectStatuses)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return validationErr("priority", "must be one of %v", domain.ProjectPriorities)
	}
	if patch.ClearBudget && patch.Budget != nil {
		return validationErr("budget", "cannot be set and cleared in one update")
	}
	if patch.ClearEstimatedHours && patch.EstimatedHours != nil {
		return validationErr("estimated_hours", "cannot be set and cleared in one update")
	}
	if err := validateBudget(patch.Budget); err != nil {
		return err
	}
	if err := validateNonNegativeInt("estimated_hours", patch.EstimatedHours); err != nil {
		return err
	}
	if err := validateNonNegativeInt("actual_hours", patch.ActualHours); err != nil {
		return err
	}
	if err := validateProgress(patch.Progress); err != nil {
		return err
	}
	if err := validateDate("start_date", patch.StartDate); err != nil {
		return err
	}
	if err := validateDate("end_date", patch.EndDate); err != nil {
		return err
	}
	if patch.Tags != nil {
		tags := normalizeTags(*patch.Tags)
		patch.Tags = &tags
	}
	return nil
}

// OwnedProject returns project id when userID owns it.
func (e Engine) OwnedProject(ctx context.Context, id, userID string) (domain.Project, error) {
	p, err := e.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if p.OwnerID != userID {
		return domain.Project{}, &ForbiddenError{ProjectID: id}
	}
	return p, nil
}

// UpdateProject applies patch to project id. When the patch carries a
// status a status_change entry is recorded, even if the value is unchanged.
func (e Engine) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch, actorID string) (domain.Project, error) {
	if actorID == "" {
		return domain.Project{}, validationErr("actor", "is required")
	}
	if err := validateProjectPatch(&patch); err != nil {
		return domain.Project{}, err
	}
	p, err := e.Store.UpdateProject(ctx, id, patch)
	if err != nil {
		return domain.Project{}, rowErr("project", id, "update project", err)
	}
	if patch.Status != nil {
		e.recordActivity(ctx, events.ProjectStatusChanged(p.ID, *patch.Status, actorID))
	}
	return p, nil
}

// DeleteProject removes project id. Its requirements and activity go with
// it through the store's foreign keys; nothing is recorded.
func (e Engine) DeleteProject(ctx context.Context, id string) error {
	if err := e.Store.DeleteProject(ctx, id); err != nil {
		return rowErr("project", id, "delete project", err)
	}
	return nil
}
