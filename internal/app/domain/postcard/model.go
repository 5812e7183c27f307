// Package postcard defines the space postcard record and its fulfillment
// lifecycle.
package postcard

import (
	"fmt"
	"time"
)

// Status tracks a postcard through fulfillment. Transitions are linear:
// created -> launched_to_space -> returned_to_earth -> mailed_to_owner.
type Status string

const (
	StatusCreated       Status = "created"
	StatusLaunched      Status = "launched_to_space"
	StatusReturned      Status = "returned_to_earth"
	StatusMailedToOwner Status = "mailed_to_owner"
)

// Statuses lists the lifecycle states in transition order.
var Statuses = []Status{
	StatusCreated,
	StatusLaunched,
	StatusReturned,
	StatusMailedToOwner,
}

// ParseStatus validates a raw string against the lifecycle states.
func ParseStatus(raw string) (Status, error) {
	for _, s := range Statuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid postcard status %q", raw)
}

// Rank returns the position of the status in the lifecycle, or -1 for an
// unknown value. A transition is legal only when the rank strictly
// increases.
func (s Status) Rank() int {
	for i, known := range Statuses {
		if s == known {
			return i
		}
	}
	return -1
}

// Next returns the following lifecycle state, or false once the lifecycle
// is complete.
func (s Status) Next() (Status, bool) {
	rank := s.Rank()
	if rank < 0 || rank+1 >= len(Statuses) {
		return "", false
	}
	return Statuses[rank+1], true
}

// Postcard is a message queued for a space flight batch. The id and batch
// are assigned once at creation; status advances monotonically and the
// date fields are stamped by the fulfillment process.
type Postcard struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Content       string     `json:"content"`
	WalletAddress *string    `json:"walletAddress"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	LaunchDate    *time.Time `json:"launchDate"`
	ReturnDate    *time.Time `json:"returnDate"`
	BatchID       int        `json:"batchId"`
	NFTTokenID    *string    `json:"nftTokenId"`
	ImageURL      *string    `json:"imageUrl"`
}

// StatusStats is the fixed-key status aggregation.
type StatusStats struct {
	Total    int `json:"total"`
	Created  int `json:"created"`
	Launched int `json:"launched_to_space"`
	Returned int `json:"returned_to_earth"`
	Mailed   int `json:"mailed_to_owner"`
}
