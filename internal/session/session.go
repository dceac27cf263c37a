// Package session tracks per-(shop, sender) conversation state: whether a
// slot selection is pending and which slots were offered. Two shops with
// the same customer phone number hold distinct sessions.
package session

import (
	"context"
	"fmt"

	"github.com/quoteline/autobody-ai-platform/internal/slots"
)

// Session is the conversation state for one (shop, sender) pair.
// Invariant: Slots is non-empty whenever AwaitingTime is true.
type Session struct {
	AwaitingTime bool         `json:"awaiting_time"`
	Slots        []slots.Slot `json:"slots"`
}

// Store is a concurrency-safe session store. Get returns (nil, nil) for an
// absent or expired session. Implementations must expire entries after
// their TTL to bound memory growth.
type Store interface {
	Get(ctx context.Context, shopID, sender string) (*Session, error)
	Put(ctx context.Context, shopID, sender string, sess *Session) error
	Delete(ctx context.Context, shopID, sender string) error
}

// Key builds the storage key for a (shop, sender) pair.
func Key(shopID, sender string) string {
	return fmt.Sprintf("session:%s:%s", shopID, sender)
}
