package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
)

// TokenFilter narrows day-scoped token queries.
type TokenFilter struct {
	Statuses    []domain.TokenStatus
	IsEmergency *bool
}

// TokenRepository is the token ledger. Create commits a candidate sequence
// number under the partition unique index; guarded status updates return
// the conflict sentinels from errors.go so callers can re-read and retry.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.Token) error
	GetByID(ctx context.Context, id string) (*domain.Token, error)
	ListForDay(ctx context.Context, day time.Time, shift domain.Shift, filter TokenFilter) ([]domain.Token, error)
	ListForPatientDay(ctx context.Context, patientID string, day time.Time) ([]domain.Token, error)
	FindPatientToken(ctx context.Context, patientID string, day time.Time, shift domain.Shift) (*domain.Token, error)
	FindPatientEmergency(ctx context.Context, patientID string, day time.Time) (*domain.Token, error)
	CountPartition(ctx context.Context, day time.Time, shift domain.Shift, isEmergency bool) (int, error)
	MarkServing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, servedAt time.Time) error
	MarkMissed(ctx context.Context, ids []string, missedAt time.Time) error
}

type tokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository instantiates the ledger over a pgx pool.
func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

const tokenColumns = `id, patient_id, shift, day, is_emergency, sequence_number, status, created_at, served_at, missed_at`

func (r *tokenRepository) Create(ctx context.Context, token *domain.Token) error {
	const query = `
        INSERT INTO tokens (patient_id, shift, day, is_emergency, sequence_number, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		token.PatientID,
		token.Shift,
		token.Day,
		token.IsEmergency,
		token.SequenceNumber,
		token.Status,
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		if conflict := constraintConflict(err); conflict != nil {
			return conflict
		}
		return err
	}
	return nil
}

func (r *tokenRepository) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	query := fmt.Sprintf(`SELECT %s FROM tokens WHERE id=$1`, tokenColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *tokenRepository) ListForDay(ctx context.Context, day time.Time, shift domain.Shift, filter TokenFilter) ([]domain.Token, error) {
	clauses := []string{"day=$1", "shift=$2"}
	args := []any{day, shift}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.IsEmergency != nil {
		args = append(args, *filter.IsEmergency)
		clauses = append(clauses, fmt.Sprintf("is_emergency=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM tokens WHERE %s ORDER BY is_emergency DESC, sequence_number ASC, created_at ASC`,
		tokenColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTokens(rows)
}

func (r *tokenRepository) ListForPatientDay(ctx context.Context, patientID string, day time.Time) ([]domain.Token, error) {
	query := fmt.Sprintf(`SELECT %s FROM tokens WHERE patient_id=$1 AND day=$2 ORDER BY created_at DESC`, tokenColumns)
	rows, err := r.pool.Query(ctx, query, patientID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTokens(rows)
}

// FindPatientToken returns the patient's token for the (day, shift) pair or
// nil when none exists.
func (r *tokenRepository) FindPatientToken(ctx context.Context, patientID string, day time.Time, shift domain.Shift) (*domain.Token, error) {
	query := fmt.Sprintf(`SELECT %s FROM tokens WHERE patient_id=$1 AND day=$2 AND shift=$3`, tokenColumns)
	token, err := r.fetchSingle(ctx, query, patientID, day, shift)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return token, err
}

// FindPatientEmergency returns the patient's emergency token for the day,
// any shift, or nil when none exists.
func (r *tokenRepository) FindPatientEmergency(ctx context.Context, patientID string, day time.Time) (*domain.Token, error) {
	query := fmt.Sprintf(`SELECT %s FROM tokens WHERE patient_id=$1 AND day=$2 AND is_emergency`, tokenColumns)
	token, err := r.fetchSingle(ctx, query, patientID, day)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return token, err
}

func (r *tokenRepository) CountPartition(ctx context.Context, day time.Time, shift domain.Shift, isEmergency bool) (int, error) {
	const query = `SELECT COUNT(*) FROM tokens WHERE day=$1 AND shift=$2 AND is_emergency=$3`
	var count int
	if err := r.pool.QueryRow(ctx, query, day, shift, isEmergency).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkServing promotes a pending token. The partial unique index on serving
// tokens rejects the write when another token for the (day, shift) already
// serves, surfaced as ErrServingExists; a non-pending token yields
// ErrStatusConflict.
func (r *tokenRepository) MarkServing(ctx context.Context, id string) error {
	const query = `UPDATE tokens SET status=$1 WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, domain.TokenStatusServing, id, domain.TokenStatusPending)
	if err != nil {
		if conflict := constraintConflict(err); conflict != nil {
			return conflict
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

// MarkCompleted finalizes a token still in flight (pending or serving).
func (r *tokenRepository) MarkCompleted(ctx context.Context, id string, servedAt time.Time) error {
	const query = `UPDATE tokens SET status=$1, served_at=$2 WHERE id=$3 AND status IN ($4,$5)`
	cmd, err := r.pool.Exec(ctx, query,
		domain.TokenStatusCompleted, servedAt, id, domain.TokenStatusPending, domain.TokenStatusServing)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

// MarkMissed demotes still-pending tokens; already-transitioned ids are
// skipped, which keeps the missed cascade idempotent.
func (r *tokenRepository) MarkMissed(ctx context.Context, ids []string, missedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE tokens SET status=$1, missed_at=$2 WHERE id = ANY($3) AND status=$4`
	_, err := r.pool.Exec(ctx, query, domain.TokenStatusMissed, missedAt, ids, domain.TokenStatusPending)
	return err
}

func (r *tokenRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Token, error) {
	var token domain.Token
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&token.ID,
		&token.PatientID,
		&token.Shift,
		&token.Day,
		&token.IsEmergency,
		&token.SequenceNumber,
		&token.Status,
		&token.CreatedAt,
		&token.ServedAt,
		&token.MissedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func scanTokens(rows pgx.Rows) ([]domain.Token, error) {
	var result []domain.Token
	for rows.Next() {
		var token domain.Token
		if err := rows.Scan(
			&token.ID,
			&token.PatientID,
			&token.Shift,
			&token.Day,
			&token.IsEmergency,
			&token.SequenceNumber,
			&token.Status,
			&token.CreatedAt,
			&token.ServedAt,
			&token.MissedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, token)
	}
	return result, rows.Err()
}
