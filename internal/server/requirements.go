package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"clientportal/internal/domain"
	"clientportal/internal/engine"
)

type requirementPath struct {
	RequirementID string `path:"requirement_id"`
}

// ownedRequirement loads requirementID and checks the caller owns its project.
func ownedRequirement(ctx context.Context, e engine.Engine, requirementID string) (domain.Requirement, string, error) {
	if _, authErr := userIDFromContext(ctx); authErr != nil {
		return domain.Requirement{}, "", authErr
	}
	q, err := e.GetRequirement(ctx, requirementID)
	if err != nil {
		return domain.Requirement{}, "", err
	}
	_, userID, err := ownedProject(ctx, e, q.ProjectID)
	if err != nil {
		return domain.Requirement{}, "", err
	}
	return q, userID, nil
}

func registerRequirements(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-requirements",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/requirements",
		Summary:     "List project requirements, newest first",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body ListRequirementsResponse `json:"body"`
	}, error) {
		if _, _, err := ownedProject(ctx, e, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListRequirements(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ListRequirementsResponse `json:"body"`
		}{Body: ListRequirementsResponse{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-requirement",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/requirements",
		Summary:       "Create requirement",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string                   `path:"project_id"`
		Body      CreateRequirementRequest `json:"body"`
	}) (*struct {
		Body domain.Requirement `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		_, userID, err := ownedProject(ctx, e, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		q, err := e.CreateRequirement(ctx, input.Body.toDomain(input.ProjectID), userID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Requirement `json:"body"`
		}{Body: q}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "requirement-stats",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/requirements/stats",
		Summary:     "Requirement counters for a project",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body domain.RequirementStats `json:"body"`
	}, error) {
		if _, _, err := ownedProject(ctx, e, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		stats, err := e.RequirementStats(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.RequirementStats `json:"body"`
		}{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-requirement",
		Method:      http.MethodGet,
		Path:        "/requirements/{requirement_id}",
		Summary:     "Get requirement",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *requirementPath) (*struct {
		Body domain.Requirement `json:"body"`
	}, error) {
		q, _, err := ownedRequirement(ctx, e, input.RequirementID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Requirement `json:"body"`
		}{Body: q}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-requirement",
		Method:      http.MethodPatch,
		Path:        "/requirements/{requirement_id}",
		Summary:     "Update requirement",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		RequirementID string                   `path:"requirement_id"`
		Body          UpdateRequirementRequest `json:"body"`
	}) (*struct {
		Body domain.Requirement `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		_, userID, err := ownedRequirement(ctx, e, input.RequirementID)
		if err != nil {
			return nil, handleError(err)
		}
		q, err := e.UpdateRequirement(ctx, input.RequirementID, input.Body.toDomain(), userID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Requirement `json:"body"`
		}{Body: q}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-requirement",
		Method:        http.MethodDelete,
		Path:          "/requirements/{requirement_id}",
		Summary:       "Delete requirement",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *requirementPath) (*struct{}, error) {
		if _, _, err := ownedRequirement(ctx, e, input.RequirementID); err != nil {
			return nil, handleError(err)
		}
		if err := e.DeleteRequirement(ctx, input.RequirementID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
