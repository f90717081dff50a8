package compliance

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RedLynx101/MedCompliance-AI/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type flagRepoPG struct{ pool *pgxpool.Pool }

func NewFlagRepoPG(pool *pgxpool.Pool) FlagRepository { return &flagRepoPG{pool: pool} }

func (r *flagRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const flagCols = `id, encounter_id, flag_type, severity, message, explanation,
	is_resolved, user_action, resolved_at, created_at, updated_at`

func (r *flagRepoPG) scanFlag(row pgx.Row) (*ComplianceFlag, error) {
	var f ComplianceFlag
	err := row.Scan(&f.ID, &f.EncounterID, &f.FlagType, &f.Severity, &f.Message, &f.Explanation,
		&f.IsResolved, &f.UserAction, &f.ResolvedAt, &f.CreatedAt, &f.UpdatedAt)
	return &f, err
}

func (r *flagRepoPG) Create(ctx context.Context, f *ComplianceFlag) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO compliance_flag (id, encounter_id, flag_type, severity, message, explanation)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		f.ID, f.EncounterID, f.FlagType, f.Severity, f.Message, f.Explanation)
	return err
}

func (r *flagRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ComplianceFlag, error) {
	return r.scanFlag(r.conn(ctx).QueryRow(ctx, `SELECT `+flagCols+` FROM compliance_flag WHERE id = $1`, id))
}

func (r *flagRepoPG) ListByEncounter(ctx context.Context, encounterID uuid.UUID) ([]*ComplianceFlag, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+flagCols+` FROM compliance_flag WHERE encounter_id = $1 ORDER BY created_at`, encounterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ComplianceFlag
	for rows.Next() {
		f, err := r.scanFlag(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, nil
}

func (r *flagRepoPG) List(ctx context.Context, limit, offset int) ([]*ComplianceFlag, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM compliance_flag`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+flagCols+` FROM compliance_flag ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ComplianceFlag
	for rows.Next() {
		f, err := r.scanFlag(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, nil
}

func (r *flagRepoPG) ListSince(ctx context.Context, days int) ([]*ComplianceFlag, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+flagCols+` FROM compliance_flag WHERE created_at > NOW() - make_interval(days => $1)`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ComplianceFlag
	for rows.Next() {
		f, err := r.scanFlag(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, nil
}

func (r *flagRepoPG) Resolve(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE compliance_flag SET is_resolved = TRUE, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

func (r *flagRepoPG) SetUserAction(ctx context.Context, id uuid.UUID, action string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE compliance_flag SET user_action = $2, updated_at = NOW()
		WHERE id = $1`, id, action)
	return err
}
