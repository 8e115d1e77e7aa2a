// Package models contains the marketplace types exchanged with the backend.
// The backend owns these entities; the web front end only holds transient copies.
package models

import (
	"strings"
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// Project status constants.
const (
	StatusPending    ProjectStatus = "PENDING"
	StatusOpen       ProjectStatus = "OPEN"
	StatusInProgress ProjectStatus = "IN_PROGRESS"
	StatusCompleted  ProjectStatus = "COMPLETED"
)

// Normalize upper-cases the status so lookups tolerate backend casing.
func (s ProjectStatus) Normalize() ProjectStatus {
	return ProjectStatus(strings.ToUpper(string(s)))
}

// Project is a buyer-posted unit of work.
type Project struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	BudgetMin   float64       `json:"budgetMin"`
	BudgetMax   float64       `json:"budgetMax"`
	Deadline    string        `json:"deadline"`
	Status      ProjectStatus `json:"status"`
	BuyerID     int64         `json:"buyerId"`
	SellerID    *int64        `json:"sellerId"` // nil until a bid is accepted
}

// deadlineLayouts are the formats the backend has been seen to use for deadlines.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// DeadlineDate returns the deadline as a date-only string (2006-01-02).
// Unparseable values are returned unchanged.
func (p *Project) DeadlineDate() string {
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, p.Deadline); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return p.Deadline
}

// AssignedTo reports whether the project's seller is userID.
func (p *Project) AssignedTo(userID int64) bool {
	return p.SellerID != nil && *p.SellerID == userID
}

// CreateProjectRequest is the body of POST /projects.
type CreateProjectRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	BudgetMin   float64 `json:"budgetMin"`
	BudgetMax   float64 `json:"budgetMax"`
	Deadline    string  `json:"deadline"`
	BuyerID     int64   `json:"buyerId"`
}

// AcceptBidRequest is the body of POST /projects/accept-bid.
type AcceptBidRequest struct {
	ProjectID int64 `json:"projectId"`
	SellerID  int64 `json:"sellerId"`
}
