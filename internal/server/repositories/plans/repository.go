// Package plans declares the server-side repository contract for engineering
// drawings and their revision history.
package plans

import (
	"context"

	"github.com/planhub/planhub/internal/server/models"
)

// Repository defines persistence operations for plans and their revisions.
type Repository interface {
	// Create inserts a new plan and returns it with the generated ID and
	// timestamps set.
	Create(ctx context.Context, plan *models.Plan) (*models.Plan, error)

	// GetByID looks a plan up by ID. Returns common.ErrorNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.Plan, error)

	// GetByCode looks a plan up by its drawing code.
	// Returns common.ErrorNotFound when absent.
	GetByCode(ctx context.Context, code string) (*models.Plan, error)

	// List returns plans matching the filter, with total being the match
	// count before pagination.
	List(ctx context.Context, filter *models.PlanFilter) (items []*models.Plan, total int, err error)

	// Update rewrites the descriptive fields (title, zone, discipline).
	Update(ctx context.Context, plan *models.Plan) error

	// UpdateStatus moves a plan to a new workflow status.
	UpdateStatus(ctx context.Context, id string, status string) error

	// AddRevision records a new file revision and bumps the plan's current
	// revision number and storage key. Returns the stored revision.
	AddRevision(ctx context.Context, rev *models.PlanRevision) (*models.PlanRevision, error)

	// ListRevisions returns all revisions of a plan, newest first.
	ListRevisions(ctx context.Context, planID string) ([]*models.PlanRevision, error)

	// Delete removes a plan and its revisions.
	Delete(ctx context.Context, id string) error
}
