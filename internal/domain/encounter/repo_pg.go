package encounter

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const encounterCols = `id, patient_id, provider_id, status, encounter_type, appointment_time,
	chief_complaint, subjective, objective, assessment, plan,
	icd_codes, cpt_codes, transcript, claim_risk_score, created_at, updated_at`

func (r *repoPG) scanEncounter(row pgx.Row) (*Encounter, error) {
	var e Encounter
	err := row.Scan(&e.ID, &e.PatientID, &e.ProviderID, &e.Status, &e.EncounterType, &e.AppointmentTime,
		&e.ChiefComplaint, &e.Subjective, &e.Objective, &e.Assessment, &e.Plan,
		&e.ICDCodes, &e.CPTCodes, &e.Transcript, &e.ClaimRiskScore, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Encounter) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO encounter (id, patient_id, provider_id, status, encounter_type, appointment_time,
			chief_complaint, subjective, objective, assessment, plan,
			icd_codes, cpt_codes, transcript)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		e.ID, e.PatientID, e.ProviderID, e.Status, e.EncounterType, e.AppointmentTime,
		e.ChiefComplaint, e.Subjective, e.Objective, e.Assessment, e.Plan,
		e.ICDCodes, e.CPTCodes, e.Transcript)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	return r.scanEncounter(r.conn(ctx).QueryRow(ctx, `SELECT `+encounterCols+` FROM encounter WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, e *Encounter) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE encounter SET provider_id=$2, status=$3, encounter_type=$4, appointment_time=$5,
			chief_complaint=$6, subjective=$7, objective=$8, assessment=$9, plan=$10,
			icd_codes=$11, cpt_codes=$12, transcript=$13, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.ProviderID, e.Status, e.EncounterType, e.AppointmentTime,
		e.ChiefComplaint, e.Subjective, e.Objective, e.Assessment, e.Plan,
		e.ICDCodes, e.CPTCodes, e.Transcript)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM encounter WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Encounter, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM encounter`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+encounterCols+` FROM encounter ORDER BY appointment_time DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Encounter
	for rows.Next() {
		e, err := r.scanEncounter(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM encounter WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+encounterCols+` FROM encounter WHERE patient_id = $1 ORDER BY appointment_time DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Encounter
	for rows.Next() {
		e, err := r.scanEncounter(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}

func (r *repoPG) SetClaimRiskScore(ctx context.Context, id uuid.UUID, score int) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE encounter SET claim_risk_score=$2, updated_at=NOW() WHERE id = $1`, id, score)
	return err
}
