package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"clientportal/internal/config"
	"clientportal/internal/domain"
)

const (
	defaultWebhookInterval = 2 * time.Second
	defaultWebhookTimeout  = 5 * time.Second
	defaultWebhookBatch    = 100
)

// ActivityFeed reads the activity log in append order. repo.Repo
// satisfies it.
type ActivityFeed interface {
	ActivityAfter(ctx context.Context, cursor int64, limit int) ([]domain.ActivityEntry, error)
	LatestActivityID(ctx context.Context) (int64, error)
}

type webhookDispatcher struct {
	feed     ActivityFeed
	webhooks []config.Webhook
	client   *http.Client
	logger   *log.Logger
	interval time.Duration
	mu       sync.Mutex
	cursors  map[string]int64
}

func newWebhookDispatcher(feed ActivityFeed, hooks []config.Webhook, logger *log.Logger) *webhookDispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &webhookDispatcher{
		feed:     feed,
		webhooks: hooks,
		client:   &http.Client{Timeout: defaultWebhookTimeout},
		logger:   logger,
		interval: defaultWebhookInterval,
		cursors:  make(map[string]int64),
	}
}

// StartWebhookDispatcher delivers new activity entries to every enabled
// webhook until ctx is done. Entries appended before the call are not sent.
func StartWebhookDispatcher(ctx context.Context, feed ActivityFeed, hooks []config.Webhook, logger *log.Logger) {
	if len(hooks) == 0 {
		return
	}
	d := newWebhookDispatcher(feed, hooks, logger)
	d.initCursors(ctx)
	go d.run(ctx)
}

func (d *webhookDispatcher) run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		d.dispatchAll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *webhookDispatcher) initCursors(ctx context.Context) {
	for _, hook := range d.webhooks {
		d.cursorFor(ctx, hook)
	}
}

func (d *webhookDispatcher) dispatchAll(ctx context.Context) {
	for _, hook := range d.webhooks {
		if !hook.IsEnabled() {
			continue
		}
		if strings.TrimSpace(hook.URL) == "" {
			continue
		}
		d.dispatchWebhook(ctx, hook)
	}
}

func (d *webhookDispatcher) dispatchWebhook(ctx context.Context, hook config.Webhook) {
	cursor := d.cursorFor(ctx, hook)
	entries, err := d.feed.ActivityAfter(ctx, cursor, defaultWebhookBatch)
	if err != nil {
		d.logger.Printf("webhook %s: fetch activity failed: %v", hook.ID, err)
		return
	}
	filter := newEventFilter(hook.Events)
	for _, entry := range entries {
		if !filter.match(string(entry.UpdateType)) {
			d.setCursor(hook.ID, entry.ID)
			continue
		}
		if err := d.postEntry(ctx, hook, entry); err != nil {
			// retried from the same cursor on the next tick
			d.logger.Printf("webhook %s: deliver to %s failed: %v", hook.ID, hook.URL, err)
			return
		}
		d.setCursor(hook.ID, entry.ID)
	}
}

func (d *webhookDispatcher) cursorFor(ctx context.Context, hook config.Webhook) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.cursors[hook.ID]; ok {
		return cur
	}
	cur, err := d.feed.LatestActivityID(ctx)
	if err != nil {
		d.logger.Printf("webhook %s: init cursor failed: %v", hook.ID, err)
		cur = 0
	}
	d.cursors[hook.ID] = cur
	return cur
}

func (d *webhookDispatcher) setCursor(id string, value int64) {
	d.mu.Lock()
	d.cursors[id] = value
	d.mu.Unlock()
}

func (d *webhookDispatcher) postEntry(ctx context.Context, hook config.Webhook, entry domain.ActivityEntry) error {
	data, err := json.Marshal(activityResponse(entry))
	if err != nil {
		return err
	}
	client := d.client
	if hook.TimeoutSeconds > 0 {
		if timeout := time.Duration(hook.TimeoutSeconds) * time.Second; timeout != d.client.Timeout {
			client = &http.Client{Timeout: timeout}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Portal-Event", string(entry.UpdateType))
	req.Header.Set("X-Portal-Delivery", fmt.Sprintf("%d", entry.ID))
	req.Header.Set("X-Portal-Project", entry.ProjectID)
	if strings.TrimSpace(hook.Secret) != "" {
		req.Header.Set("X-Portal-Secret", hook.Secret)
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return nil
}

type eventFilter struct {
	all bool
	set map[string]struct{}
}

func newEventFilter(events []string) eventFilter {
	if len(events) == 0 {
		return eventFilter{all: true}
	}
	set := make(map[string]struct{}, len(events))
	for _, evt := range events {
		key := strings.TrimSpace(evt)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	if len(set) == 0 {
		return eventFilter{all: true}
	}
	return eventFilter{set: set}
}

func (f eventFilter) match(evt string) bool {
	if f.all {
		return true
	}
	_, ok := f.set[evt]
	return ok
}
