package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"clientportal/internal/domain"
	"clientportal/internal/engine"
)

var timeNow = time.Now

type projectPath struct {
	ProjectID string `path:"project_id"`
}

// ownedProject loads projectID and checks the caller owns it.
func ownedProject(ctx context.Context, e engine.Engine, projectID string) (domain.Project, string, error) {
	userID, authErr := userIDFromContext(ctx)
	if authErr != nil {
		return domain.Project{}, "", authErr
	}
	p, err := e.OwnedProject(ctx, projectID, userID)
	if err != nil {
		return domain.Project{}, "", err
	}
	return p, userID, nil
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List the caller's projects, newest first",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Status   string `query:"status" doc:"Filter by status"`
		Priority string `query:"priority" doc:"Filter by priority"`
		Search   string `query:"search" doc:"Case-insensitive match on title or description"`
	}) (*struct {
		Body ListProjectsResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.ListProjects(ctx, userID, domain.ProjectFilter{
			Status:   domain.ProjectStatus(input.Status),
			Priority: domain.ProjectPriority(input.Priority),
			Search:   input.Search,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ListProjectsResponse `json:"body"`
		}{Body: ListProjectsResponse{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreateProject(ctx, userID, input.Body.toDomain())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-stats",
		Method:      http.MethodGet,
		Path:        "/projects/stats",
		Summary:     "Project counters for the caller",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.ProjectStats `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		stats, err := e.ProjectStats(ctx, userID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectStats `json:"body"`
		}{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		p, _, err := ownedProject(ctx, e, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}",
		Summary:     "Update project",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		_, userID, err := ownedProject(ctx, e, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		p, err := e.UpdateProject(ctx, input.ProjectID, input.Body.toDomain(), userID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-project",
		Method:        http.MethodDelete,
		Path:          "/projects/{project_id}",
		Summary:       "Delete project with its requirements and activity",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct{}, error) {
		if _, _, err := ownedProject(ctx, e, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		if err := e.DeleteProject(ctx, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerActivity(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-activity",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/activity",
		Summary:     "Project activity, newest first",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		Limit     int    `query:"limit" minimum:"0" maximum:"500"`
		Type      string `query:"type" doc:"Filter by update_type"`
	}) (*struct {
		Body ListActivityResponse `json:"body"`
	}, error) {
		if _, _, err := ownedProject(ctx, e, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListActivity(ctx, domain.ActivityFilter{
			ProjectID:  input.ProjectID,
			UpdateType: domain.UpdateType(input.Type),
			Limit:      normalizeLimit(input.Limit),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ListActivityResponse `json:"body"`
		}{Body: ListActivityResponse{Items: mapActivity(items)}}, nil
	})
}
