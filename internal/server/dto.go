package server

import (
	"encoding/json"

	"clientportal/internal/domain"
)

// Request payloads

type CreateProjectRequest struct {
	Title          string   `json:"title" minLength:"1"`
	Description    string   `json:"description,omitempty"`
	Status         string   `json:"status,omitempty" enum:"new,in_progress,completed,on_hold,cancelled"`
	Priority       string   `json:"priority,omitempty" enum:"low,medium,high"`
	Budget         *float64 `json:"budget,omitempty" minimum:"0"`
	StartDate      *string  `json:"start_date,omitempty" example:"2024-02-01"`
	EndDate        *string  `json:"end_date,omitempty" example:"2024-06-30"`
	EstimatedHours *int     `json:"estimated_hours,omitempty" minimum:"0"`
	Tags           []string `json:"tags,omitempty"`
}

type UpdateProjectRequest struct {
	Title          *string   `json:"title,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Status         *string   `json:"status,omitempty" enum:"new,in_progress,completed,on_hold,cancelled"`
	Priority       *string   `json:"priority,omitempty" enum:"low,medium,high"`
	Budget         *float64  `json:"budget,omitempty"`
	StartDate      *string   `json:"start_date,omitempty"`
	EndDate        *string   `json:"end_date,omitempty"`
	EstimatedHours *int      `json:"estimated_hours,omitempty"`
	ActualHours    *int      `json:"actual_hours,omitempty"`
	Progress       *int      `json:"progress,omitempty"`
	Tags           *[]string `json:"tags,omitempty"`

	ClearBudget         bool `json:"clear_budget,omitempty" doc:"Unset budget"`
	ClearEstimatedHours bool `json:"clear_estimated_hours,omitempty" doc:"Unset estimated_hours"`
}

type CreateRequirementRequest struct {
	Title       string  `json:"title" minLength:"1"`
	Description string  `json:"description,omitempty"`
	Priority    string  `json:"priority,omitempty" enum:"low,medium,high,critical"`
	DueDate     *string `json:"due_date,omitempty" example:"2024-03-15"`
}

type UpdateRequirementRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" enum:"pending,approved,in_development,completed,rejected"`
	Priority    *string `json:"priority,omitempty" enum:"low,medium,high,critical"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

type DevLoginRequest struct {
	UserID string `json:"user_id"`
}

// Response payloads

type ActivityResponse struct {
	ID         int64          `json:"id"`
	ProjectID  string         `json:"project_id"`
	UpdateType string         `json:"update_type" enum:"comment,status_change,requirement_added,requirement_updated"`
	Message    string         `json:"message"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedBy  string         `json:"created_by"`
	CreatedAt  string         `json:"created_at" format:"date-time"`
}

type ListProjectsResponse struct {
	Items []domain.Project `json:"items"`
}

type ListRequirementsResponse struct {
	Items []domain.Requirement `json:"items"`
}

type ListActivityResponse struct {
	Items []ActivityResponse `json:"items"`
}

type WhoAmIResponse struct {
	UserID string `json:"user_id"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

func (r CreateProjectRequest) toDomain() domain.NewProject {
	return domain.NewProject{
		Title:          r.Title,
		Description:    r.Description,
		Status:         domain.ProjectStatus(r.Status),
		Priority:       domain.ProjectPriority(r.Priority),
		Budget:         r.Budget,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		EstimatedHours: r.EstimatedHours,
		Tags:           r.Tags,
	}
}

func (r UpdateProjectRequest) toDomain() domain.ProjectPatch {
	patch := domain.ProjectPatch{
		Title:          r.Title,
		Description:    r.Description,
		Budget:         r.Budget,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		EstimatedHours: r.EstimatedHours,
		ActualHours:    r.ActualHours,
		Progress:       r.Progress,
		Tags:           r.Tags,

		ClearBudget:         r.ClearBudget,
		ClearEstimatedHours: r.ClearEstimatedHours,
	}
	if r.Status != nil {
		s := domain.ProjectStatus(*r.Status)
		patch.Status = &s
	}
	if r.Priority != nil {
		p := domain.ProjectPriority(*r.Priority)
		patch.Priority = &p
	}
	return patch
}

func (r CreateRequirementRequest) toDomain(projectID string) domain.NewRequirement {
	return domain.NewRequirement{
		ProjectID:   projectID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    domain.RequirementPriority(r.Priority),
		DueDate:     r.DueDate,
	}
}

func (r UpdateRequirementRequest) toDomain() domain.RequirementPatch {
	patch := domain.RequirementPatch{
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  r.AssignedTo,
		DueDate:     r.DueDate,
	}
	if r.Status != nil {
		s := domain.RequirementStatus(*r.Status)
		patch.Status = &s
	}
	if r.Priority != nil {
		p := domain.RequirementPriority(*r.Priority)
		patch.Priority = &p
	}
	return patch
}

func activityResponse(e domain.ActivityEntry) ActivityResponse {
	resp := ActivityResponse{
		ID:         e.ID,
		ProjectID:  e.ProjectID,
		UpdateType: string(e.UpdateType),
		Message:    e.Message,
		CreatedBy:  e.CreatedBy,
		CreatedAt:  e.CreatedAt,
	}
	if raw, err := domain.EncodeMetadata(e.Metadata); err == nil && raw != "" {
		_ = json.Unmarshal([]byte(raw), &resp.Metadata)
	}
	return resp
}

func mapActivity(items []domain.ActivityEntry) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(items))
	for _, e := range items {
		out = append(out, activityResponse(e))
	}
	return out
}
