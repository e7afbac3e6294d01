package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"clientportal/internal/config"
	"clientportal/internal/domain"
	"clientportal/internal/events"
)

type recordedDelivery struct {
	event  string
	secret string
	body   ActivityResponse
}

func TestWebhookDeliversNewActivity(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()

	var (
		mu        sync.Mutex
		delivered []recordedDelivery
		fail      = true
	)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var body ActivityResponse
		_ = json.NewDecoder(r.Body).Decode(&body)
		delivered = append(delivered, recordedDelivery{
			event:  r.Header.Get("X-Portal-Event"),
			secret: r.Header.Get("X-Portal-Secret"),
			body:   body,
		})
	}))
	defer hook.Close()

	p, err := srv.Repo.InsertProject(ctx, domain.Project{OwnerID: "u", Title: "p", Status: domain.ProjectNew, Priority: domain.ProjectPriorityLow})
	if err != nil {
		t.Fatal(err)
	}
	writer := events.Writer{Sink: srv.Repo}
	// appended before the dispatcher starts: never delivered
	if _, err := writer.Append(ctx, events.ProjectCreated(p.ID, "u")); err != nil {
		t.Fatal(err)
	}

	d := newWebhookDispatcher(srv.Repo, []config.Webhook{{
		ID:     "ops",
		URL:    hook.URL,
		Secret: "s3cret",
		Events: []string{string(domain.UpdateStatusChange)},
	}}, log.New(io.Discard, "", 0))
	d.initCursors(ctx)

	if _, err := writer.Append(ctx, events.ProjectCreated(p.ID, "u")); err != nil {
		t.Fatal(err)
	}
	changed, err := writer.Append(ctx, events.ProjectStatusChanged(p.ID, domain.ProjectCompleted, "u"))
	if err != nil {
		t.Fatal(err)
	}

	d.dispatchAll(ctx)
	mu.Lock()
	if len(delivered) != 0 {
		t.Fatalf("delivered despite failing endpoint")
	}
	fail = false
	mu.Unlock()
	d.dispatchAll(ctx)
	d.dispatchAll(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 {
		t.Fatalf("expected one delivery, got %+v", delivered)
	}
	got := delivered[0]
	if got.event != "status_change" || got.secret != "s3cret" || got.body.ID != changed.ID || got.body.Metadata["new_status"] != "completed" {
		t.Fatalf("unexpected delivery %+v", got)
	}
}

func TestEventFilter(t *testing.T) {
	if !newEventFilter(nil).match("comment") {
		t.Fatalf("empty filter should match everything")
	}
	f := newEventFilter([]string{" comment ", ""})
	if !f.match("comment") || f.match("status_change") {
		t.Fatalf("unexpected filter %+v", f)
	}
}
