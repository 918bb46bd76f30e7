// Package subscriptions delivers graph mutation events to webhooks.
// A Manager receives events from the graph's emitter, matches them
// against registered patterns, and posts a Notification for each match.
package subscriptions

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// ErrNotFound is returned for an unknown subscription id
var ErrNotFound = errors.New("subscription not found")

// Manager handles subscription lifecycle and event processing
type Manager struct {
	subscriptions map[string]*Subscription
	eventChan     chan graph.Event
	notifier      *Notifier
	logger        *slog.Logger
	mu            sync.RWMutex
	closed        bool
	seq           uint64
	ctx           context.Context
	cancel        context.CancelFunc
	loop          sync.WaitGroup
	deliveries    sync.WaitGroup
}

// NewManager creates a new subscription manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		subscriptions: make(map[string]*Subscription),
		eventChan:     make(chan graph.Event, 1000),
		notifier:      NewNotifier(logger),
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start begins processing events
func (m *Manager) Start() {
	m.loop.Add(1)
	go m.processEvents()
}

// Stop drains queued events and waits for in-flight deliveries until ctx
// is done. Deliveries still running then are cancelled.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.eventChan)
	m.mu.Unlock()

	m.loop.Wait()

	done := make(chan struct{})
	go func() {
		m.deliveries.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("cancelling pending webhook deliveries", slog.Any("error", ctx.Err()))
	}
	m.cancel()
	<-done
}

// Emit queues an event for matching. It never blocks; events are dropped
// when the queue is full or the manager is stopped.
func (m *Manager) Emit(event graph.Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.eventChan <- event:
	default:
		m.logger.Warn("event channel full, dropping event", slog.String("type", event.Type))
	}
}

// Register adds a new subscription
func (m *Manager) Register(req *CreateRequest) (*Subscription, error) {
	if req.Name == "" {
		return nil, errors.New("subscription name is required")
	}
	if err := validateWebhook(req.Webhook); err != nil {
		return nil, err
	}

	now := time.Now()
	sub := &Subscription{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Pattern:     req.Pattern,
		Webhook:     req.Webhook,
		Enabled:     true,
		Created:     now,
		Modified:    now,
	}

	m.mu.Lock()
	m.seq++
	sub.seq = m.seq
	m.subscriptions[sub.ID] = sub
	m.mu.Unlock()

	m.logger.Info("registered subscription", slog.String("id", sub.ID), slog.String("name", sub.Name))
	return sub.clone(), nil
}

// Unregister removes a subscription
func (m *Manager) Unregister(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.subscriptions[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.subscriptions, id)
	return nil
}

// Update modifies an existing subscription
func (m *Manager) Update(id string, req *UpdateRequest) (*Subscription, error) {
	if req.Webhook != nil {
		if err := validateWebhook(*req.Webhook); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, exists := m.subscriptions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if req.Name != nil {
		sub.Name = *req.Name
	}
	if req.Description != nil {
		sub.Description = *req.Description
	}
	if req.Pattern != nil {
		sub.Pattern = *req.Pattern
	}
	if req.Webhook != nil {
		sub.Webhook = *req.Webhook
	}
	if req.Enabled != nil {
		sub.Enabled = *req.Enabled
	}
	sub.Modified = time.Now()

	return sub.clone(), nil
}

// Get returns a subscription by ID
func (m *Manager) Get(id string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, exists := m.subscriptions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sub.clone(), nil
}

// List returns all subscriptions, oldest first
func (m *Manager) List() []*Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		result = append(result, sub.clone())
	}
	slices.SortFunc(result, func(a, b *Subscription) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return result
}

// processEvents is the main event processing loop
func (m *Manager) processEvents() {
	defer m.loop.Done()

	for event := range m.eventChan {
		m.handleEvent(event)
	}
}

// handleEvent matches one event against every enabled subscription and
// starts a delivery for each match
func (m *Manager) handleEvent(event graph.Event) {
	now := time.Now()
	var fired []Subscription

	m.mu.Lock()
	for _, sub := range m.subscriptions {
		if !sub.Enabled || !Match(event, sub.Pattern) {
			continue
		}
		sub.LastFired = &now
		sub.FireCount++
		fired = append(fired, *sub)
	}
	m.mu.Unlock()

	for _, sub := range fired {
		notification := Notification{
			SubscriptionID:   sub.ID,
			SubscriptionName: sub.Name,
			Event:            event,
			MatchedAt:        now,
		}

		m.deliveries.Add(1)
		go func(webhook string) {
			defer m.deliveries.Done()
			if err := m.notifier.SendWebhook(m.ctx, webhook, notification); err != nil {
				m.logger.Warn("webhook delivery failed",
					slog.String("subscription", notification.SubscriptionID),
					slog.Any("error", err))
			}
		}(sub.Webhook)
	}
}

func (s *Subscription) clone() *Subscription {
	c := *s
	if s.LastFired != nil {
		t := *s.LastFired
		c.LastFired = &t
	}
	return &c
}

func validateWebhook(raw string) error {
	if raw == "" {
		return errors.New("subscription webhook is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid webhook url: %s", raw)
	}
	return nil
}
