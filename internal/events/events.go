package events

import (
	"time"
)

const (
	TypeProductCreated = "product.created"
	TypeProductUpdated = "product.updated"
	TypeProductDeleted = "product.deleted"
)

// ProductEvent is published after a successful catalog mutation.
type ProductEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	ShopID    string    `json:"shop_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
