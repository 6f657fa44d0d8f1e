package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/membership-service/internal/domain"
)

// ErrStatusConflict signals that a conditional status update matched no row:
// the record's status changed underneath the caller. The caller must re-read
// before deciding how to report it.
var ErrStatusConflict = errors.New("membership record status conflict")

// MembershipFilter captures admin search parameters.
type MembershipFilter struct {
	PersonID *string
	Statuses []domain.MembershipStatus
	Limit    int
	Offset   int
}

// MembershipRepository encapsulates membership record persistence.
type MembershipRepository interface {
	Create(ctx context.Context, record *domain.MembershipRecord) error
	GetByID(ctx context.Context, id string) (*domain.MembershipRecord, error)
	// GetLatestByPerson returns the authoritative record: most recent by
	// creation time.
	GetLatestByPerson(ctx context.Context, personID string) (*domain.MembershipRecord, error)
	GetActiveByPerson(ctx context.Context, personID string) (*domain.MembershipRecord, error)
	ListByPerson(ctx context.Context, personID string) ([]domain.MembershipRecord, error)
	ListWithFilter(ctx context.Context, filter MembershipFilter) ([]domain.MembershipRecord, error)
	// UpdateIfStatus writes every mutable field in one conditional statement
	// guarded by the expected current status. Returns ErrStatusConflict when
	// no row matched.
	UpdateIfStatus(ctx context.Context, record *domain.MembershipRecord, expected domain.MembershipStatus) error
}

type membershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository instantiates the repository.
func NewMembershipRepository(pool *pgxpool.Pool) MembershipRepository {
	return &membershipRepository{pool: pool}
}

const membershipColumns = `id, person_id, status, joined_at,
               approved_at, approved_by,
               rejected_at, rejected_by, rejection_reason,
               removed_at, removed_by, removal_reason_current,
               restored_at, restored_by, restoration_reason,
               removal_history,
               is_reapplication, reapplication_at, reapplication_reason,
               motivation, experience, expectations, commitment,
               created_at, updated_at`

func (r *membershipRepository) Create(ctx context.Context, record *domain.MembershipRecord) error {
	const query = `
        INSERT INTO membership_records
            (person_id, status, joined_at, removal_history,
             is_reapplication, reapplication_at, reapplication_reason,
             motivation, experience, expectations, commitment)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	history := record.RemovalHistory
	if history == nil {
		history = []domain.RemovalCycle{}
	}

	return r.pool.QueryRow(ctx, query,
		record.PersonID,
		record.Status,
		record.JoinedAt,
		history,
		record.IsReapplication,
		record.ReapplicationAt,
		record.ReapplicationReason,
		record.Application.Motivation,
		record.Application.Experience,
		record.Application.Expectations,
		record.Application.Commitment,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

func (r *membershipRepository) GetByID(ctx context.Context, id string) (*domain.MembershipRecord, error) {
	const query = `
        SELECT ` + membershipColumns + `
        FROM membership_records WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *membershipRepository) GetLatestByPerson(ctx context.Context, personID string) (*domain.MembershipRecord, error) {
	const query = `
        SELECT ` + membershipColumns + `
        FROM membership_records WHERE person_id=$1
        ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, personID)
}

func (r *membershipRepository) GetActiveByPerson(ctx context.Context, personID string) (*domain.MembershipRecord, error) {
	const query = `
        SELECT ` + membershipColumns + `
        FROM membership_records WHERE person_id=$1 AND status=$2
        ORDER BY created_at DESC LIMIT 1`

	var record domain.MembershipRecord
	if err := r.pool.QueryRow(ctx, query, personID, domain.MembershipStatusActive).Scan(scanTargets(&record)...); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *membershipRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.MembershipRecord, error) {
	var record domain.MembershipRecord
	if err := r.pool.QueryRow(ctx, query, arg).Scan(scanTargets(&record)...); err != nil {
		return nil, err
	}
	return &record, nil
}

func scanTargets(record *domain.MembershipRecord) []any {
	return []any{
		&record.ID,
		&record.PersonID,
		&record.Status,
		&record.JoinedAt,
		&record.ApprovedAt,
		&record.ApprovedBy,
		&record.RejectedAt,
		&record.RejectedBy,
		&record.RejectionReason,
		&record.RemovedAt,
		&record.RemovedBy,
		&record.RemovalReasonCurrent,
		&record.RestoredAt,
		&record.RestoredBy,
		&record.RestorationReason,
		&record.RemovalHistory,
		&record.IsReapplication,
		&record.ReapplicationAt,
		&record.ReapplicationReason,
		&record.Application.Motivation,
		&record.Application.Experience,
		&record.Application.Expectations,
		&record.Application.Commitment,
		&record.CreatedAt,
		&record.UpdatedAt,
	}
}

func (r *membershipRepository) ListByPerson(ctx context.Context, personID string) ([]domain.MembershipRecord, error) {
	filter := MembershipFilter{PersonID: &personID, Limit: 100}
	return r.ListWithFilter(ctx, filter)
}

func (r *membershipRepository) ListWithFilter(ctx context.Context, filter MembershipFilter) ([]domain.MembershipRecord, error) {
	base := `SELECT ` + membershipColumns + ` FROM membership_records`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.PersonID != nil {
		args = append(args, *filter.PersonID)
		clauses = append(clauses, fmt.Sprintf("person_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *membershipRepository) UpdateIfStatus(ctx context.Context, record *domain.MembershipRecord, expected domain.MembershipStatus) error {
	const query = `
        UPDATE membership_records SET
            status=$1, joined_at=$2,
            approved_at=$3, approved_by=$4,
            rejected_at=$5, rejected_by=$6, rejection_reason=$7,
            removed_at=$8, removed_by=$9, removal_reason_current=$10,
            restored_at=$11, restored_by=$12, restoration_reason=$13,
            removal_history=$14,
            is_reapplication=$15, reapplication_at=$16, reapplication_reason=$17,
            updated_at=NOW()
        WHERE id=$18 AND status=$19`

	history := record.RemovalHistory
	if history == nil {
		history = []domain.RemovalCycle{}
	}

	cmd, err := r.pool.Exec(ctx, query,
		record.Status,
		record.JoinedAt,
		record.ApprovedAt,
		record.ApprovedBy,
		record.RejectedAt,
		record.RejectedBy,
		record.RejectionReason,
		record.RemovedAt,
		record.RemovedBy,
		record.RemovalReasonCurrent,
		record.RestoredAt,
		record.RestoredBy,
		record.RestorationReason,
		history,
		record.IsReapplication,
		record.ReapplicationAt,
		record.ReapplicationReason,
		record.ID,
		expected,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

func scanRecords(rows pgx.Rows) ([]domain.MembershipRecord, error) {
	var result []domain.MembershipRecord
	for rows.Next() {
		var record domain.MembershipRecord
		if err := rows.Scan(scanTargets(&record)...); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
