package portalsdk

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clientportal/internal/db"
	"clientportal/internal/engine"
	"clientportal/internal/identity"
	"clientportal/internal/migrate"
	"clientportal/internal/server"
)

const testSecret = "sdk-test-secret"

func newTestClient(t *testing.T, userID string) *Client {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	logger := log.New(io.Discard, "", 0)
	handler, err := server.New(server.Config{
		Engine: engine.New(conn, logger),
		Auth:   server.AuthConfig{JWTSecret: testSecret, Logger: logger},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	token, err := identity.IssueToken(testSecret, "", userID, time.Hour, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return New(srv.URL, token)
}

func TestClientRoundTrip(t *testing.T) {
	c := newTestClient(t, "user-1")
	ctx := context.Background()

	p, err := c.CreateProject(ctx, "Website Redesign", map[string]any{"budget": 1200.0})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.Status != "new" || p.Budget == nil || *p.Budget != 1200 {
		t.Fatalf("unexpected project %+v", p)
	}
	if _, err := c.UpdateProject(ctx, p.ID, map[string]any{"status": "on_hold"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	q, err := c.CreateRequirement(ctx, p.ID, "Login", "critical")
	if err != nil {
		t.Fatalf("create requirement: %v", err)
	}
	if _, err := c.UpdateRequirement(ctx, q.ID, map[string]any{"status": "approved"}); err != nil {
		t.Fatalf("update requirement: %v", err)
	}

	stats, err := c.ProjectStats(ctx)
	if err != nil || stats.OnHold != 1 {
		t.Fatalf("project stats: %v %+v", err, stats)
	}
	rstats, err := c.RequirementStats(ctx, p.ID)
	if err != nil || rstats.Approved != 1 || rstats.HighPriority != 1 {
		t.Fatalf("requirement stats: %v %+v", err, rstats)
	}
	activity, err := c.Activity(ctx, p.ID, "", 0)
	if err != nil || len(activity) != 4 {
		t.Fatalf("activity: %v %+v", err, activity)
	}
	if activity[0].UpdateType != "requirement_updated" || activity[3].Message != "Project created" {
		t.Fatalf("unexpected order %+v", activity)
	}

	if err := c.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = c.GetProject(ctx, p.ID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "not_found" {
		t.Fatalf("expected not_found, got %v", err)
	}
}
