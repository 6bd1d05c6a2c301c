package model

import "time"

type EventType string

const (
	EventItemListed          EventType = "ItemListed"
	EventItemUpdated         EventType = "ItemUpdated"
	EventItemRented          EventType = "ItemRented"
	EventItemRedeemed        EventType = "ItemRedeemed"
	EventItemCanceled        EventType = "ItemCanceled"
	EventProceedsWithdrawn   EventType = "ProceedsWithdrawn"
	EventProceedsDeposited   EventType = "ProceedsDeposited"
	EventPayTokenAdded       EventType = "PayTokenAdded"
	EventPayTokenRemoved     EventType = "PayTokenRemoved"
	EventPlatformFeeUpdated  EventType = "PlatformFeeUpdated"
	EventFeeRecipientUpdated EventType = "FeeRecipientUpdated"
)

// Event is the outbox record written in the same transaction as the state
// change it describes. Exactly one event per state-changing operation.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
