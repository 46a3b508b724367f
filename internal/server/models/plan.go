package models

import "time"

// Plan workflow statuses.
const (
	PlanDraft    = "draft"
	PlanInReview = "in_review"
	PlanApproved = "approved"
	PlanRejected = "rejected"
	PlanObsolete = "obsolete"
)

// Plan is an engineering drawing tracked through upload, revisioning and the
// approval workflow. StorageKey points at the current revision's file in
// object storage; it is empty until the first upload completes.
type Plan struct {
	ID         string
	Code       string
	Title      string
	Zone       string
	Discipline string
	Status     string
	Revision   int
	StorageKey string
	UploadedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PlanRevision is one historical upload of a plan's drawing file.
type PlanRevision struct {
	ID         string
	PlanID     string
	Revision   int
	StorageKey string
	UploadedBy string
	Note       string
	CreatedAt  time.Time
}

// CanTransition reports whether a plan may move from its current status to
// the target status.
func (p *Plan) CanTransition(target string) bool {
	switch p.Status {
	case PlanDraft:
		return target == PlanInReview || target == PlanObsolete
	case PlanInReview:
		return target == PlanApproved || target == PlanRejected
	case PlanApproved:
		return target == PlanObsolete
	case PlanRejected:
		return target == PlanInReview || target == PlanObsolete
	}
	return false
}

// PlanFilter narrows and orders plan listings. Zero values mean "no
// constraint". Search matches code and title as a case-insensitive
// substring.
type PlanFilter struct {
	Zone       string
	Discipline string
	Status     string
	Search     string
	SortBy     string // code | title | zone | status | updated_at
	SortDesc   bool
	Limit      int
	Offset     int
}
