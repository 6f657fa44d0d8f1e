package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/membership-service/internal/domain"
)

// PersonRepository defines persistence access for identity records.
type PersonRepository interface {
	Create(ctx context.Context, person *domain.Person) error
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
	ListByRoles(ctx context.Context, roles []domain.Role) ([]domain.Person, error)
	MarkDeleted(ctx context.Context, id string, actor domain.ActorSnapshot, reason string, at time.Time) error
	Restore(ctx context.Context, id string) error
}

type personRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository returns a Postgres-backed implementation.
func NewPersonRepository(pool *pgxpool.Pool) PersonRepository {
	return &personRepository{pool: pool}
}

const personColumns = `id, name, email, external_code, assigned_role, credential_hash,
               soft_deleted, deleted_at, deleted_by, deletion_reason, created_at, updated_at`

func (r *personRepository) Create(ctx context.Context, person *domain.Person) error {
	const query = `
        INSERT INTO persons (name, email, external_code, assigned_role, credential_hash)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		person.Name,
		person.Email,
		person.ExternalCode,
		person.AssignedRole,
		person.CredentialHash,
	).Scan(&person.ID, &person.CreatedAt, &person.UpdatedAt)
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	const query = `
        SELECT ` + personColumns + `
        FROM persons WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *personRepository) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	const query = `
        SELECT ` + personColumns + `
        FROM persons WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *personRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Person, error) {
	var person domain.Person
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&person.ID,
		&person.Name,
		&person.Email,
		&person.ExternalCode,
		&person.AssignedRole,
		&person.CredentialHash,
		&person.SoftDeleted,
		&person.DeletedAt,
		&person.DeletedBy,
		&person.DeletionReason,
		&person.CreatedAt,
		&person.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *personRepository) ListByRoles(ctx context.Context, roles []domain.Role) ([]domain.Person, error) {
	const query = `
        SELECT ` + personColumns + `
        FROM persons
        WHERE assigned_role = ANY($1) AND soft_deleted = FALSE
        ORDER BY created_at DESC`

	values := make([]string, len(roles))
	for i, role := range roles {
		values[i] = string(role)
	}

	rows, err := r.pool.Query(ctx, query, values)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Person
	for rows.Next() {
		var person domain.Person
		if err := rows.Scan(
			&person.ID,
			&person.Name,
			&person.Email,
			&person.ExternalCode,
			&person.AssignedRole,
			&person.CredentialHash,
			&person.SoftDeleted,
			&person.DeletedAt,
			&person.DeletedBy,
			&person.DeletionReason,
			&person.CreatedAt,
			&person.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, person)
	}
	return result, rows.Err()
}

func (r *personRepository) MarkDeleted(ctx context.Context, id string, actor domain.ActorSnapshot, reason string, at time.Time) error {
	const query = `
        UPDATE persons
        SET soft_deleted=TRUE, deleted_at=$1, deleted_by=$2, deletion_reason=$3, updated_at=NOW()
        WHERE id=$4 AND soft_deleted=FALSE`

	cmd, err := r.pool.Exec(ctx, query, at, actor, reason, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *personRepository) Restore(ctx context.Context, id string) error {
	const query = `
        UPDATE persons
        SET soft_deleted=FALSE, deleted_at=NULL, deleted_by=NULL, deletion_reason=NULL, updated_at=NOW()
        WHERE id=$1 AND soft_deleted=TRUE`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
