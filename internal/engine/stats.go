package engine

import (
	"context"

	"clientportal/internal/domain"
	"clientportal/internal/repo"
)

// SummarizeProjects reduces projects into counters. Every status and
// priority has a key in the breakdown maps, zero when absent.
func SummarizeProjects(items []domain.Project) domain.ProjectStats {
	stats := domain.ProjectStats{
		Total:      len(items),
		ByStatus:   make(map[string]int, len(domain.ProjectStatuses)),
		ByPriority: make(map[string]int, len(domain.ProjectPriorities)),
	}
	for _, s := range domain.ProjectStatuses {
		stats.ByStatus[string(s)] = 0
	}
	for _, p := range domain.ProjectPriorities {
		stats.ByPriority[string(p)] = 0
	}
	for _, p := range items {
		stats.ByStatus[string(p.Status)]++
		stats.ByPriority[string(p.Priority)]++
		switch p.Status {
		case domain.ProjectInProgress:
			stats.Active++
		case domain.ProjectCompleted:
			stats.Completed++
		case domain.ProjectOnHold:
			stats.OnHold++
		}
	}
	return stats
}

// SummarizeRequirements reduces requirements into counters. HighPriority
// counts high and critical together.
func SummarizeRequirements(items []domain.Requirement) domain.RequirementStats {
	stats := domain.RequirementStats{
		Total:      len(items),
		ByStatus:   make(map[string]int, len(domain.RequirementStatuses)),
		ByPriority: make(map[string]int, len(domain.RequirementPriorities)),
	}
	for _, s := range domain.RequirementStatuses {
		stats.ByStatus[string(s)] = 0
	}
	for _, p := range domain.RequirementPriorities {
		stats.ByPriority[string(p)] = 0
	}
	for _, q := range items {
		stats.ByStatus[string(q.Status)]++
		stats.ByPriority[string(q.Priority)]++
		switch q.Status {
		case domain.RequirementPending:
			stats.Pending++
		case domain.RequirementApproved:
			stats.Approved++
		case domain.RequirementInDevelopment:
			stats.InDevelopment++
		case domain.RequirementCompleted:
			stats.Completed++
		}
		if q.Priority == domain.RequirementPriorityHigh || q.Priority == domain.RequirementPriorityCritical {
			stats.HighPriority++
		}
	}
	return stats
}

// ProjectStats aggregates every project owned by ownerID.
func (e Engine) ProjectStats(ctx context.Context, ownerID string) (domain.ProjectStats, error) {
	if ownerID == "" {
		return domain.ProjectStats{}, validationErr("user_id", "is required")
	}
	items, err := e.Store.ListProjects(ctx, repo.ProjectFilters{OwnerID: ownerID})
	if err != nil {
		return domain.ProjectStats{}, storeErr("project stats", err)
	}
	return SummarizeProjects(items), nil
}

// RequirementStats aggregates every requirement of projectID.
func (e Engine) RequirementStats(ctx context.Context, projectID string) (domain.RequirementStats, error) {
	if projectID == "" {
		return domain.RequirementStats{}, validationErr("project_id", "is required")
	}
	items, err := e.Store.ListRequirements(ctx, projectID)
	if err != nil {
		return domain.RequirementStats{}, storeErr("requirement stats", err)
	}
	return SummarizeRequirements(items), nil
}
