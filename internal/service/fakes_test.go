package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/repository"
)

type fakePersonRepo struct {
	mu      sync.Mutex
	seq     int
	persons map[string]*domain.Person
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{persons: make(map[string]*domain.Person)}
}

func (r *fakePersonRepo) add(person domain.Person) *domain.Person {
	r.mu.Lock()
	defer r.mu.Unlock()
	if person.ID == "" {
		r.seq++
		person.ID = fmt.Sprintf("person-%d", r.seq)
	}
	stored := person
	r.persons[person.ID] = &stored
	return &person
}

func (r *fakePersonRepo) Create(_ context.Context, person *domain.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	person.ID = fmt.Sprintf("person-%d", r.seq)
	stored := *person
	r.persons[person.ID] = &stored
	return nil
}

func (r *fakePersonRepo) GetByID(_ context.Context, id string) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.persons[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	person := *stored
	return &person, nil
}

func (r *fakePersonRepo) GetByEmail(_ context.Context, email string) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.persons {
		if stored.Email == email {
			person := *stored
			return &person, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePersonRepo) ListByRoles(_ context.Context, roles []domain.Role) ([]domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Person
	for _, stored := range r.persons {
		if stored.SoftDeleted {
			continue
		}
		for _, role := range roles {
			if stored.AssignedRole == role {
				result = append(result, *stored)
				break
			}
		}
	}
	return result, nil
}

func (r *fakePersonRepo) MarkDeleted(_ context.Context, id string, actor domain.ActorSnapshot, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.persons[id]
	if !ok || stored.SoftDeleted {
		return pgx.ErrNoRows
	}
	stored.SoftDeleted = true
	stored.DeletedAt = &at
	stored.DeletedBy = &actor
	stored.DeletionReason = &reason
	return nil
}

func (r *fakePersonRepo) Restore(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.persons[id]
	if !ok || !stored.SoftDeleted {
		return pgx.ErrNoRows
	}
	stored.SoftDeleted = false
	stored.DeletedAt = nil
	stored.DeletedBy = nil
	stored.DeletionReason = nil
	return nil
}

type fakeMembershipRepo struct {
	mu      sync.Mutex
	seq     int
	base    time.Time
	records []*domain.MembershipRecord

	failNextUpdate error
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{base: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func copyRecord(record *domain.MembershipRecord) *domain.MembershipRecord {
	clone := *record
	clone.RemovalHistory = append([]domain.RemovalCycle(nil), record.RemovalHistory...)
	return &clone
}

func (r *fakeMembershipRepo) Create(_ context.Context, record *domain.MembershipRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	record.ID = fmt.Sprintf("rec-%d", r.seq)
	record.CreatedAt = r.base.Add(time.Duration(r.seq) * time.Second)
	record.UpdatedAt = record.CreatedAt
	r.records = append(r.records, copyRecord(record))
	return nil
}

func (r *fakeMembershipRepo) GetByID(_ context.Context, id string) (*domain.MembershipRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.records {
		if stored.ID == id {
			return copyRecord(stored), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMembershipRepo) GetLatestByPerson(_ context.Context, personID string) (*domain.MembershipRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.MembershipRecord
	for _, stored := range r.records {
		if stored.PersonID != personID {
			continue
		}
		if latest == nil || stored.CreatedAt.After(latest.CreatedAt) {
			latest = stored
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return copyRecord(latest), nil
}

func (r *fakeMembershipRepo) GetActiveByPerson(_ context.Context, personID string) (*domain.MembershipRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.records {
		if stored.PersonID == personID && stored.Status == domain.MembershipStatusActive {
			return copyRecord(stored), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMembershipRepo) ListByPerson(_ context.Context, personID string) ([]domain.MembershipRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.MembershipRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].PersonID == personID {
			result = append(result, *copyRecord(r.records[i]))
		}
	}
	return result, nil
}

func (r *fakeMembershipRepo) ListWithFilter(_ context.Context, filter repository.MembershipFilter) ([]domain.MembershipRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.MembershipRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		stored := r.records[i]
		if filter.PersonID != nil && stored.PersonID != *filter.PersonID {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if stored.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, *copyRecord(stored))
	}
	return result, nil
}

func (r *fakeMembershipRepo) UpdateIfStatus(_ context.Context, record *domain.MembershipRecord, expected domain.MembershipStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextUpdate != nil {
		err := r.failNextUpdate
		r.failNextUpdate = nil
		return err
	}
	for i, stored := range r.records {
		if stored.ID != record.ID {
			continue
		}
		if stored.Status != expected {
			return repository.ErrStatusConflict
		}
		clone := copyRecord(record)
		clone.CreatedAt = stored.CreatedAt
		r.records[i] = clone
		return nil
	}
	return repository.ErrStatusConflict
}

// mutate edits the stored record directly, simulating a concurrent writer.
func (r *fakeMembershipRepo) mutate(id string, fn func(*domain.MembershipRecord)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.records {
		if stored.ID == id {
			fn(stored)
			return
		}
	}
}
