// Package models defines the records persisted by the memorial service.
package models

import (
	"fmt"
	"time"
)

// Status is the moderation state of a Submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Statuses lists every moderation state in display order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

// ParseStatus accepts exactly the three moderation states.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Submission is one memory contributed by a visitor.
type Submission struct {
	ID                      string    `json:"id"`
	ContributorName         *string   `json:"contributor_name"`
	ContributorRelationship *string   `json:"contributor_relationship"`
	ContributorEmail        *string   `json:"contributor_email,omitempty"`
	Title                   string    `json:"title"`
	Body                    string    `json:"body"`
	ConsentGiven            bool      `json:"consent_given"`
	Status                  Status    `json:"status"`
	CreatedAt               time.Time `json:"created_at"`

	Photos []*Photo `json:"photos,omitempty"`
}
