package models

import "time"

// Notification kinds emitted by the plan workflow.
const (
	NotifyPlanSubmitted = "plan.submitted"
	NotifyPlanApproved  = "plan.approved"
	NotifyPlanRejected  = "plan.rejected"
	NotifyPlanRevision  = "plan.revision"
)

type Notification struct {
	ID        string
	UserID    string
	Kind      string
	PlanID    string
	Message   string
	Read      bool
	CreatedAt time.Time
}
