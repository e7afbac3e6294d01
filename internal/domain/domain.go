package domain

type ProjectStatus string

const (
	ProjectNew        ProjectStatus = "new"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// ProjectStatuses lists every project status in display order.
var ProjectStatuses = []ProjectStatus{ProjectNew, ProjectInProgress, ProjectCompleted, ProjectOnHold, ProjectCancelled}

func (s ProjectStatus) Valid() bool {
	for _, v := range ProjectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type ProjectPriority string

const (
	ProjectPriorityLow    ProjectPriority = "low"
	ProjectPriorityMedium ProjectPriority = "medium"
	ProjectPriorityHigh   ProjectPriority = "high"
)

var ProjectPriorities = []ProjectPriority{ProjectPriorityLow, ProjectPriorityMedium, ProjectPriorityHigh}

func (p ProjectPriority) Valid() bool {
	for _, v := range ProjectPriorities {
		if p == v {
			return true
		}
	}
	return false
}

type RequirementStatus string

const (
	RequirementPending       RequirementStatus = "pending"
	RequirementApproved      RequirementStatus = "approved"
	RequirementInDevelopment RequirementStatus = "in_development"
	RequirementCompleted     RequirementStatus = "completed"
	RequirementRejected      RequirementStatus = "rejected"
)

var RequirementStatuses = []RequirementStatus{RequirementPending, RequirementApproved, RequirementInDevelopment, RequirementCompleted, RequirementRejected}

func (s RequirementStatus) Valid() bool {
	for _, v := range RequirementStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type RequirementPriority string

const (
	RequirementPriorityLow      RequirementPriority = "low"
	RequirementPriorityMedium   RequirementPriority = "medium"
	RequirementPriorityHigh     RequirementPriority = "high"
	RequirementPriorityCritical RequirementPriority = "critical"
)

var RequirementPriorities = []RequirementPriority{RequirementPriorityLow, RequirementPriorityMedium, RequirementPriorityHigh, RequirementPriorityCritical}

func (p RequirementPriority) Valid() bool {
	for _, v := range RequirementPriorities {
		if p == v {
			return true
		}
	}
	return false
}

type Project struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"user_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Status         ProjectStatus   `json:"status" enum:"new,in_progress,completed,on_hold,cancelled"`
	Priority       ProjectPriority `json:"priority" enum:"low,medium,high"`
	Budget         *float64        `json:"budget,omitempty"`
	StartDate      *string         `json:"start_date,omitempty" format:"date"`
	EndDate        *string         `json:"end_date,omitempty" format:"date"`
	EstimatedHours *int            `json:"estimated_hours,omitempty"`
	ActualHours    int             `json:"actual_hours"`
	Progress       int             `json:"progress"`
	Tags           []string        `json:"tags"`
	CreatedAt      string          `json:"created_at" format:"date-time"`
	UpdatedAt      string          `json:"updated_at" format:"date-time"`
}

// NewProject is the payload for creating a project. Zero values fall back
// to the documented defaults.
type NewProject struct {
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Status         ProjectStatus   `json:"status,omitempty"`
	Priority       ProjectPriority `json:"priority,omitempty"`
	Budget         *float64        `json:"budget,omitempty"`
	StartDate      *string         `json:"start_date,omitempty"`
	EndDate        *string         `json:"end_date,omitempty"`
	EstimatedHours *int            `json:"estimated_hours,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
}

// ProjectPatch carries the fields to change; nil means untouched.
type ProjectPatch struct {
	Title          *string          `json:"title,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Status         *ProjectStatus   `json:"status,omitempty"`
	Priority       *ProjectPriority `json:"priority,omitempty"`
	Budget         *float64         `json:"budget,omitempty"`
	StartDate      *string          `json:"start_date,omitempty"`
	EndDate        *string          `json:"end_date,omitempty"`
	EstimatedHours *int             `json:"estimated_hours,omitempty"`
	ActualHours    *int             `json:"actual_hours,omitempty"`
	Progress       *int             `json:"progress,omitempty"`
	Tags           *[]string        `json:"tags,omitempty"`
	// ClearBudget and ClearEstimatedHours unset the field.
	ClearBudget         bool `json:"clear_budget,omitempty"`
	ClearEstimatedHours bool `json:"clear_estimated_hours,omitempty"`
}

type ProjectFilter struct {
	Status   ProjectStatus
	Priority ProjectPriority
	Search   string
}

type Requirement struct {
	ID          string              `json:"id"`
	ProjectID   string              `json:"project_id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Status      RequirementStatus   `json:"status" enum:"pending,approved,in_development,completed,rejected"`
	Priority    RequirementPriority `json:"priority" enum:"low,medium,high,critical"`
	CreatedBy   string              `json:"created_by"`
	AssignedTo  *string             `json:"assigned_to,omitempty"`
	DueDate     *string             `json:"due_date,omitempty" format:"date"`
	CreatedAt   string              `json:"created_at" format:"date-time"`
	UpdatedAt   string              `json:"updated_at" format:"date-time"`
}

type NewRequirement struct {
	ProjectID   string              `json:"project_id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Priority    RequirementPriority `json:"priority,omitempty"`
	DueDate     *string             `json:"due_date,omitempty"`
}

type RequirementPatch struct {
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	Status      *RequirementStatus   `json:"status,omitempty"`
	Priority    *RequirementPriority `json:"priority,omitempty"`
	AssignedTo  *string              `json:"assigned_to,omitempty"`
	DueDate     *string              `json:"due_date,omitempty"`
}

// ProjectStats summarizes an owner's projects. Total counts every project;
// new and cancelled projects land in no other bucket.
type ProjectStats struct {
	Total      int            `json:"total"`
	Active     int            `json:"active"`
	Completed  int            `json:"completed"`
	OnHold     int            `json:"on_hold"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

type RequirementStats struct {
	Total         int            `json:"total"`
	Pending       int            `json:"pending"`
	Approved      int            `json:"approved"`
	InDevelopment int            `json:"in_development"`
	Completed     int            `json:"completed"`
	HighPriority  int            `json:"high_priority"`
	ByStatus      map[string]int `json:"by_status"`
	ByPriority    map[string]int `json:"by_priority"`
}
