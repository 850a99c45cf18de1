package model

import "time"

// BookingAction selects the state transition applied by PUT on a booking.
type BookingAction string

const (
	ActionToggle BookingAction = "toggle"
	ActionCancel BookingAction = "cancel"
	ActionRebook BookingAction = "rebook"
)

type StatusChange struct {
	Action BookingAction `json:"action" validate:"omitempty,oneof=toggle cancel rebook"`
}

// SlotLock is an advisory lock document. Its id names the court or venue
// whose calendar is being written; Owner identifies the holder for release.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// SearchRequest asks for venues with a free court. Date is a single instant;
// otherwise Start and End bound the slot.
type SearchRequest struct {
	Date  *time.Time `json:"date,omitempty"`
	Start *time.Time `json:"start_time,omitempty"`
	End   *time.Time `json:"end_time,omitempty"`
}
