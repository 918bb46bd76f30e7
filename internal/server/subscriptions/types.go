package subscriptions

import (
	"time"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Pattern defines what graph events a subscription matches. Empty
// fields match everything.
type Pattern struct {
	EventTypes []string `json:"event_types,omitempty"` // vertex.added, edge.added
	Labels     []string `json:"labels,omitempty"`      // edge labels, edge events only
	VertexIDs  []string `json:"vertex_ids,omitempty"`  // the vertex, or either edge endpoint
}

// Subscription represents a standing watch that fires a webhook when a
// mutation matches its pattern
type Subscription struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Pattern Pattern `json:"pattern"`
	Webhook string  `json:"webhook"`

	Enabled   bool       `json:"enabled"`
	Created   time.Time  `json:"created"`
	Modified  time.Time  `json:"modified"`
	LastFired *time.Time `json:"last_fired,omitempty"`
	FireCount int        `json:"fire_count"`

	seq uint64
}

// Notification is sent when a subscription pattern matches
type Notification struct {
	SubscriptionID   string      `json:"subscription_id"`
	SubscriptionName string      `json:"subscription_name"`
	Event            graph.Event `json:"event"`
	MatchedAt        time.Time   `json:"matched_at"`
}

// CreateRequest is the API request to create a subscription
type CreateRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Pattern     Pattern `json:"pattern"`
	Webhook     string  `json:"webhook"`
}

// UpdateRequest is the API request to update a subscription
type UpdateRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Pattern     *Pattern `json:"pattern,omitempty"`
	Webhook     *string  `json:"webhook,omitempty"`
	Enabled     *bool    `json:"enabled,omitempty"`
}

// ListResponse is the API response for listing subscriptions
type ListResponse struct {
	Subscriptions []*Subscription `json:"subscriptions"`
	Count         int             `json:"count"`
}
