package plans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/dbx"
	"github.com/planhub/planhub/internal/server/models"
)

// PostgresRepository implements plan storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const planColumns = `id, code, title, zone, discipline, status, revision, storage_key, uploaded_by, created_at, updated_at`

// sortColumns whitelists the ORDER BY targets accepted from filters.
var sortColumns = map[string]string{
	"code":       "code",
	"title":      "title",
	"zone":       "zone",
	"status":     "status",
	"updated_at": "updated_at",
}

func (r *PostgresRepository) Create(ctx context.Context, plan *models.Plan) (*models.Plan, error) {

	query :=
		`INSERT INTO plans (code, title, zone, discipline, status, revision, storage_key, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		plan.Code, plan.Title, plan.Zone, plan.Discipline, plan.Status,
		plan.Revision, plan.StorageKey, nullString(plan.UploadedBy)).
		Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return plan, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE code = $1`
	return r.getOne(ctx, query, code)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Plan, error) {
	plan := &models.Plan{}
	var uploadedBy sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&plan.ID, &plan.Code, &plan.Title, &plan.Zone, &plan.Discipline,
		&plan.Status, &plan.Revision, &plan.StorageKey, &uploadedBy,
		&plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	plan.UploadedBy = uploadedBy.String
	return plan, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter *models.PlanFilter) ([]*models.Plan, int, error) {
	if filter == nil {
		filter = &models.PlanFilter{}
	}

	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Zone != "" {
		add("zone = $%d", filter.Zone)
	}
	if filter.Discipline != "" {
		add("discipline = $%d", filter.Discipline)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(code ILIKE $%d OR title ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM plans` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "code"
	}
	dir := "ASC"
	if filter.SortDesc {
		dir = "DESC"
	}

	query := `SELECT ` + planColumns + ` FROM plans` + where +
		fmt.Sprintf(" ORDER BY %s %s", orderBy, dir)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Plan
	for rows.Next() {
		var item models.Plan
		var uploadedBy sql.NullString
		if err := rows.Scan(
			&item.ID, &item.Code, &item.Title, &item.Zone, &item.Discipline,
			&item.Status, &item.Revision, &item.StorageKey, &uploadedBy,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		item.UploadedBy = uploadedBy.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, plan *models.Plan) error {
	query :=
		`UPDATE plans SET title = $2, zone = $3, discipline = $4, updated_at = NOW()
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, plan.ID, plan.Title, plan.Zone, plan.Discipline)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	query :=
		`UPDATE plans SET status = $2, updated_at = NOW()
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (r *PostgresRepository) AddRevision(ctx context.Context, rev *models.PlanRevision) (*models.PlanRevision, error) {

	query :=
		`INSERT INTO plan_revisions (plan_id, revision, storage_key, uploaded_by, note)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		rev.PlanID, rev.Revision, rev.StorageKey, nullString(rev.UploadedBy), rev.Note).
		Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	bump :=
		`UPDATE plans SET revision = $2, storage_key = $3, updated_at = NOW()
		 WHERE id = $1
		 `
	if _, err := r.db.ExecContext(ctx, bump, rev.PlanID, rev.Revision, rev.StorageKey); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rev, nil
}

func (r *PostgresRepository) ListRevisions(ctx context.Context, planID string) ([]*models.PlanRevision, error) {
	query :=
		`SELECT id, plan_id, revision, storage_key, uploaded_by, note, created_at FROM plan_revisions
		 WHERE plan_id = $1
		 ORDER BY revision DESC
		 `
	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.PlanRevision
	for rows.Next() {
		var item models.PlanRevision
		var uploadedBy sql.NullString
		if err := rows.Scan(
			&item.ID, &item.PlanID, &item.Revision, &item.StorageKey,
			&uploadedBy, &item.Note, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.UploadedBy = uploadedBy.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query :=
		`DELETE FROM plans
		 WHERE id = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
