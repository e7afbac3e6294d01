package engine_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"clientportal/internal/db"
	"clientportal/internal/domain"
	"clientportal/internal/engine"
	"clientportal/internal/migrate"
	"clientportal/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Repo   repo.Repo
	Ctx    context.Context
	Log    *bytes.Buffer
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := repo.New(conn)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	var buf bytes.Buffer
	eng := engine.NewWithStore(r, log.New(&buf, "", 0))
	return testEnv{Engine: eng, Repo: r, Ctx: context.Background(), Log: &buf}
}

func (env testEnv) createProject(t *testing.T, owner, title string) domain.Project {
	t.Helper()
	p, err := env.Engine.CreateProject(env.Ctx, owner, domain.NewProject{Title: title})
	if err != nil {
		t.Fatalf("create project %q: %v", title, err)
	}
	return p
}

func (env testEnv) activity(t *testing.T, projectID string, typ domain.UpdateType) []domain.ActivityEntry {
	t.Helper()
	items, err := env.Engine.ListActivity(env.Ctx, domain.ActivityFilter{ProjectID: projectID, UpdateType: typ})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	return items
}

func TestCreateProjectRequiresTitle(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"", "   "} {
		_, err := env.Engine.CreateProject(env.Ctx, "user-1", domain.NewProject{Title: title})
		var verr *engine.ValidationError
		if !errors.As(err, &verr) || verr.Field != "title" {
			t.Fatalf("title %q: expected title validation error, got %v", title, err)
		}
	}
	items, err := env.Engine.ListProjects(env.Ctx, "user-1", domain.ProjectFilter{})
	if err != nil || len(items) != 0 {
		t.Fatalf("rejected create reached the store: %v %+v", err, items)
	}

	p := env.createProject(t, "user-1", "  Website Redesign ")
	if p.Title != "Website Redesign" {
		t.Fatalf("title not trimmed: %q", p.Title)
	}
	if p.Status != domain.ProjectNew || p.Priority != domain.ProjectPriorityMedium || p.Progress != 0 || p.ActualHours != 0 {
		t.Fatalf("unexpected defaults %+v", p)
	}
	if p.OwnerID != "user-1" || p.ID == "" {
		t.Fatalf("unexpected identity fields %+v", p)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	env := newTestEnv(t)
	negative := -1.0
	negHours := -5
	badDate := "01/02/2024"
	tests := []struct {
		name  string
		owner string
		in    domain.NewProject
		field string
	}{
		{"missing owner", "", domain.NewProject{Title: "x"}, "user_id"},
		{"bad status", "u", domain.NewProject{Title: "x", Status: "archived"}, "status"},
		{"bad priority", "u", domain.NewProject{Title: "x", Priority: "urgent"}, "priority"},
		{"negative budget", "u", domain.NewProject{Title: "x", Budget: &negative}, "budget"},
		{"negative hours", "u", domain.NewProject{Title: "x", EstimatedHours: &negHours}, "estimated_hours"},
		{"bad date", "u", domain.NewProject{Title: "x", StartDate: &badDate}, "start_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Engine.CreateProject(env.Ctx, tt.owner, tt.in)
			var verr *engine.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("expected %s validation error, got %v", tt.field, err)
			}
		})
	}
}

func TestEndDateBeforeStartDateIsAccepted(t *testing.T) {
	env := newTestEnv(t)
	start, end := "2024-06-01", "2024-01-01"
	if _, err := env.Engine.CreateProject(env.Ctx, "u", domain.NewProject{Title: "x", StartDate: &start, EndDate: &end}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestCreateProjectRecordsActivity(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "user-1", "Website Redesign")
	items := env.activity(t, p.ID, "")
	if len(items) != 1 {
		t.Fatalf("expected one entry, got %+v", items)
	}
	got := items[0]
	if got.UpdateType != domain.UpdateComment || got.Message != "Project created" || got.CreatedBy != "user-1" {
		t.Fatalf("unexpected entry %+v", got)
	}
}

func TestUpdateProjectStatusRecordsActivity(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "user-1", "p")
	status := domain.ProjectCompleted
	updated, err := env.Engine.UpdateProject(env.Ctx, p.ID, domain.ProjectPatch{Status: &status}, "user-2")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.ProjectCompleted {
		t.Fatalf("status = %s", updated.Status)
	}
	changes := env.activity(t, p.ID, domain.UpdateStatusChange)
	if len(changes) != 1 {
		t.Fatalf("expected one status change, got %+v", changes)
	}
	meta, ok := changes[0].Metadata.(domain.StatusChangeMetadata)
	if !ok || meta.NewStatus != domain.ProjectCompleted || changes[0].CreatedBy != "user-2" {
		t.Fatalf("unexpected entry %+v", changes[0])
	}
	if changes[0].Message != "Project status changed to completed" {
		t.Fatalf("message = %q", changes[0].Message)
	}

	progress := 40
	title := "renamed"
	if _, err := env.Engine.UpdateProject(env.Ctx, p.ID, domain.ProjectPatch{Title: &title, Progress: &progress}, "user-2"); err != nil {
		t.Fatalf("update without status: %v", err)
	}
	if got := env.activity(t, p.ID, domain.UpdateStatusChange); len(got) != 1 {
		t.Fatalf("patch without status recorded a change: %+v", got)
	}
}

func TestUpdateProjectValidation(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "user-1", "p")
	over := 101
	empty := ""
	for _, patch := range []domain.ProjectPatch{{Progress: &over}, {Title: &empty}} {
		if _, err := env.Engine.UpdateProject(env.Ctx, p.ID, patch, "user-1"); !engine.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
	got, err := env.Engine.GetProject(env.Ctx, p.ID)
	if err != nil || got.Title != "p" || got.Progress != 0 {
		t.Fatalf("rejected patch changed the row: %+v %v", got, err)
	}
	status := domain.ProjectOnHold
	if _, err := env.Engine.UpdateProject(env.Ctx, "missing", domain.ProjectPatch{Status: &status}, "user-1"); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListProjectsFilters(t *testing.T) {
	env := newTestEnv(t)
	a := env.createProject(t, "user-1", "Website Redesign")
	b, err := env.Engine.CreateProject(env.Ctx, "user-1", domain.NewProject{
		Title:       "Mobile app",
		Description: "Native WEBSITE companion",
		Priority:    domain.ProjectPriorityHigh,
	})
	if err != nil {
		t.Fatal(err)
	}
	env.createProject(t, "user-1", "Billing")
	env.createProject(t, "user-2", "Website for someone else")

	found, err := env.Engine.ListProjects(env.Ctx, "user-1", domain.ProjectFilter{Search: "website"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 2 || found[0].ID != b.ID || found[1].ID != a.ID {
		t.Fatalf("unexpected search result %+v", found)
	}
	high, err := env.Engine.ListProjects(env.Ctx, "user-1", domain.ProjectFilter{Priority: domain.ProjectPriorityHigh})
	if err != nil || len(high) != 1 || high[0].ID != b.ID {
		t.Fatalf("priority filter: %v %+v", err, high)
	}
	if _, err := env.Engine.ListProjects(env.Ctx, "user-1", domain.ProjectFilter{Status: "nope"}); !engine.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListProjectsIsStable(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"one", "two", "three"} {
		env.createProject(t, "user-1", title)
	}
	first, err := env.Engine.ListProjects(env.Ctx, "user-1", domain.ProjectFilter{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.Engine.ListProjects(env.Ctx, "user-1", domain.ProjectFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("lengths %d %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs at %d", i)
		}
	}
	if first[0].Title != "three" || first[2].Title != "one" {
		t.Fatalf("expected newest first, got %s..%s", first[0].Title, first[2].Title)
	}
}

func TestDeleteProject(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "user-1", "doomed")
	keep := env.createProject(t, "user-1", "keep")
	if _, err := env.Engine.CreateRequirement(env.Ctx, domain.NewRequirement{ProjectID: p.ID, Title: "r"}, "user-1"); err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteProject(env.Ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, err := env.Engine.ListProjects(env.Ctx, "user-1", domain.ProjectFilter{})
	if err != nil || len(items) != 1 || items[0].ID != keep.ID {
		t.Fatalf("unexpected list after delete: %v %+v", err, items)
	}
	if _, err := env.Engine.GetProject(env.Ctx, p.ID); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := env.Engine.DeleteProject(env.Ctx, p.ID); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
	reqs, err := env.Engine.ListRequirements(env.Ctx, p.ID)
	if err != nil || len(reqs) != 0 {
		t.Fatalf("requirements survived delete: %v %+v", err, reqs)
	}
}

func TestProjectStats(t *testing.T) {
	env := newTestEnv(t)
	statuses := []domain.ProjectStatus{
		domain.ProjectNew, domain.ProjectInProgress, domain.ProjectInProgress,
		domain.ProjectCompleted, domain.ProjectOnHold, domain.ProjectCancelled,
	}
	for i, s := range statuses {
		if _, err := env.Engine.CreateProject(env.Ctx, "user-1", domain.NewProject{Title: "p" + string(rune('a'+i)), Status: s}); err != nil {
			t.Fatal(err)
		}
	}
	env.createProject(t, "user-2", "not counted")

	stats, err := env.Engine.ProjectStats(env.Ctx, "user-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 6 || stats.Active != 2 || stats.Completed != 1 || stats.OnHold != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.ByStatus["cancelled"] != 1 || stats.ByPriority["medium"] != 6 || stats.ByPriority["high"] != 0 {
		t.Fatalf("unexpected breakdown %+v", stats)
	}

	empty, err := env.Engine.ProjectStats(env.Ctx, "nobody")
	if err != nil || empty.Total != 0 || len(empty.ByStatus) != len(domain.ProjectStatuses) {
		t.Fatalf("empty stats: %v %+v", err, empty)
	}
}

func TestRequirementLifecycle(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "user-1", "p")
	q, err := env.Engine.CreateRequirement(env.Ctx, domain.NewRequirement{ProjectID: p.ID, Title: "Checkout flow"}, "user-1")
	if err != nil {
		t.Fatalf("create requirement: %v", err)
	}
	if q.Status != domain.RequirementPending || q.Priority != domain.RequirementPriorityMedium || q.CreatedBy != "user-1" {
		t.Fatalf("unexpected defaults %+v", q)
	}
	added := env.activity(t, p.ID, domain.UpdateRequirementAdded)
	if len(added) != 1 || added[0].Message != "New requirement added: Checkout flow" {
		t.Fatalf("unexpected requirement_added entries %+v", added)
	}

	// pending straight to completed
	done := domain.RequirementCompleted
	q, err = env.Engine.UpdateRequirement(env.Ctx, q.ID, domain.RequirementPatch{Status: &done}, "user-2")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if q.Status != domain.RequirementCompleted {
		t.Fatalf("status = %s", q.Status)
	}
	updates := env.activity(t, p.ID, domain.UpdateRequirementUpdated)
	if len(updates) != 1 {
		t.Fatalf("expected one update entry, got %+v", updates)
	}
	meta, ok := updates[0].Metadata.(domain.RequirementUpdatedMetadata)
	if !ok || meta.RequirementID != q.ID || meta.NewStatus != domain.RequirementCompleted {
		t.Fatalf("unexpected metadata %#v", updates[0].Metadata)
	}
	if updates[0].Message != `Requirement "Checkout flow" status changed to completed` {
		t.Fatalf("message = %q", updates[0].Message)
	}

	assignee := "dev-7"
	q, err = env.Engine.UpdateRequirement(env.Ctx, q.ID, domain.RequirementPatch{AssignedTo: &assignee}, "user-2")
	if err != nil || q.AssignedTo == nil || *q.AssignedTo != "dev-7" {
		t.Fatalf("assign: %v %+v", err, q)
	}
	if got := env.activity(t, p.ID, domain.UpdateRequirementUpdated); len(got) != 1 {
		t.Fatalf("patch without status recorded an update: %+v", got)
	}

	if err := env.Engine.DeleteRequirement(env.Ctx, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.GetRequirement(env.Ctx, q.ID); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := env.activity(t, p.ID, ""); len(got) != 3 {
		t.Fatalf("delete should not be recorded, have %d entries", len(got))
	}
}

func TestCreateRequirementChecksProject(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateRequirement(env.Ctx, domain.NewRequirement{ProjectID: "missing", Title: "x"}, "user-1")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	p := env.createProject(t, "user-1", "p")
	_, err = env.Engine.CreateRequirement(env.Ctx, domain.NewRequirement{ProjectID: p.ID, Title: "x", Priority: "urgent"}, "user-1")
	if !engine.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequirementStats(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "user-1", "p")
	for _, pr := range []domain.RequirementPriority{
		domain.RequirementPriorityLow, domain.RequirementPriorityHigh,
		domain.RequirementPriorityCritical, domain.RequirementPriorityMedium,
	} {
		if _, err := env.Engine.CreateRequirement(env.Ctx, domain.NewRequirement{ProjectID: p.ID, Title: string(pr), Priority: pr}, "user-1"); err != nil {
			t.Fatal(err)
		}
	}
	stats, err := env.Engine.RequirementStats(env.Ctx, p.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 || stats.HighPriority != 2 || stats.Pending != 4 || stats.ByPriority["critical"] != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

type failingActivityStore struct {
	repo.Repo
}

func (failingActivityStore) InsertActivity(context.Context, domain.ActivityEntry) (domain.ActivityEntry, error) {
	return domain.ActivityEntry{}, errors.New("disk full")
}

func TestActivityFailureDoesNotFailMutation(t *testing.T) {
	env := newTestEnv(t)
	eng := engine.NewWithStore(failingActivityStore{Repo: env.Repo}, env.Engine.Logger)
	var reported []*engine.AuditWriteError
	eng.OnAuditError = func(err *engine.AuditWriteError) { reported = append(reported, err) }

	p, err := eng.CreateProject(env.Ctx, "user-1", domain.NewProject{Title: "p"})
	if err != nil {
		t.Fatalf("create should succeed despite audit failure: %v", err)
	}
	status := domain.ProjectInProgress
	if _, err := eng.UpdateProject(env.Ctx, p.ID, domain.ProjectPatch{Status: &status}, "user-1"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := eng.GetProject(env.Ctx, p.ID)
	if err != nil || got.Status != domain.ProjectInProgress {
		t.Fatalf("mutation not persisted: %v %+v", err, got)
	}
	if len(reported) != 2 || reported[0].ProjectID != p.ID || reported[1].UpdateType != domain.UpdateStatusChange {
		t.Fatalf("unexpected audit reports %+v", reported)
	}
	if !strings.Contains(env.Log.String(), "disk full") {
		t.Fatalf("audit failure not logged: %q", env.Log.String())
	}
}

func TestSummarizeRequirementsEmpty(t *testing.T) {
	stats := engine.SummarizeRequirements(nil)
	if stats.Total != 0 || len(stats.ByStatus) != len(domain.RequirementStatuses) || len(stats.ByPriority) != len(domain.RequirementPriorities) {
		t.Fatalf("unexpected empty stats %+v", stats)
	}
}

var errConstraint = errors.New("constraint violated")

// failingStore rejects project inserts and requirement updates.
type failingStore struct {
	repo.Repo
}

func (failingStore) InsertProject(context.Context, domain.Project) (domain.Project, error) {
	return domain.Project{}, errConstraint
}

func (failingStore) UpdateRequirement(context.Context, string, domain.RequirementPatch) (domain.Requirement, error) {
	return domain.Requirement{}, errConstraint
}

func (env testEnv) activityRows(t *testing.T) int {
	t.Helper()
	var n int
	if err := env.Repo.DB.QueryRow(`SELECT COUNT(*) FROM project_updates`).Scan(&n); err != nil {
		t.Fatalf("count activity: %v", err)
	}
	return n
}

func TestStoreFailureIsStoreError(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "user-1", "p")
	q, err := env.Engine.CreateRequirement(env.Ctx, domain.NewRequirement{ProjectID: p.ID, Title: "Login"}, "user-1")
	if err != nil {
		t.Fatalf("create requirement: %v", err)
	}
	before := env.activityRows(t)
	eng := engine.NewWithStore(failingStore{Repo: env.Repo}, env.Engine.Logger)

	checkStoreErr := func(op string, err error) {
		t.Helper()
		var serr *engine.StoreError
		if !errors.As(err, &serr) {
			t.Fatalf("%s: expected StoreError, got %T %v", op, err, err)
		}
		if serr.Op != op || errors.Unwrap(serr) != errConstraint || !errors.Is(err, errConstraint) {
			t.Fatalf("%s: cause not kept: %+v", op, serr)
		}
		if errors.Is(err, engine.ErrNotFound) || engine.IsValidation(err) {
			t.Fatalf("%s: misclassified %v", op, err)
		}
	}

	_, err = eng.CreateProject(env.Ctx, "user-1", domain.NewProject{Title: "never stored"})
	checkStoreErr("create project", err)

	status := domain.RequirementApproved
	_, err = eng.UpdateRequirement(env.Ctx, q.ID, domain.RequirementPatch{Status: &status}, "user-1")
	checkStoreErr("update requirement", err)

	if after := env.activityRows(t); after != before {
		t.Fatalf("activity written on failed mutation: %d -> %d", before, after)
	}
	got, err := env.Engine.GetRequirement(env.Ctx, q.ID)
	if err != nil || got.Status != domain.RequirementPending {
		t.Fatalf("requirement changed: %v %+v", err, got)
	}
}

func TestUpdateProjectClearsOptionalNumbers(t *testing.T) {
	env := newTestEnv(t)
	budget := 1200.0
	hours := 30
	p, err := env.Engine.CreateProject(env.Ctx, "user-1", domain.NewProject{Title: "p", Budget: &budget, EstimatedHours: &hours})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other := 5.0
	_, err = env.Engine.UpdateProject(env.Ctx, p.ID, domain.ProjectPatch{Budget: &other, ClearBudget: true}, "user-1")
	var verr *engine.ValidationError
	if !errors.As(err, &verr) || verr.Field != "budget" {
		t.Fatalf("expected budget validation error, got %v", err)
	}

	got, err := env.Engine.UpdateProject(env.Ctx, p.ID, domain.ProjectPatch{ClearBudget: true}, "user-1")
	if err != nil {
		t.Fatalf("clear budget: %v", err)
	}
	if got.Budget != nil || got.EstimatedHours == nil || *got.EstimatedHours != hours {
		t.Fatalf("unexpected project %+v", got)
	}
	got, err = env.Engine.UpdateProject(env.Ctx, p.ID, domain.ProjectPatch{ClearEstimatedHours: true}, "user-1")
	if err != nil || got.EstimatedHours != nil {
		t.Fatalf("clear estimated hours: %v %+v", err, got)
	}
}

func TestOwnedProject(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "user-1", "p")
	if got, err := env.Engine.OwnedProject(env.Ctx, p.ID, "user-1"); err != nil || got.ID != p.ID {
		t.Fatalf("owner: %v %+v", err, got)
	}
	_, err := env.Engine.OwnedProject(env.Ctx, p.ID, "user-2")
	var ferr *engine.ForbiddenError
	if !errors.Is(err, engine.ErrForbidden) || !errors.As(err, &ferr) || ferr.ProjectID != p.ID {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := env.Engine.OwnedProject(env.Ctx, "missing", "user-1"); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
