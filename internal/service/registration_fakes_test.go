package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
)

// fakeRegistrationStore mimics the registration tables and their unique
// constraints. InTx applies writes only when fn succeeds.
type fakeRegistrationStore struct {
	mu sync.Mutex

	schools   []models.School
	accounts  map[string]*models.Account
	teachers  []models.TeacherProfile
	parents   []models.ParentProfile
	students  []models.StudentProfile
	sequences map[string]int

	// takenNumbers simulates numbers allocated before the sequence existed.
	takenNumbers map[string]bool
	seqErr       error
	// insertCollisions makes the next N student inserts fail as if a
	// concurrent transaction committed the same number first.
	insertCollisions int
	txCalls      int
}

func newFakeRegistrationStore(schools ...models.School) *fakeRegistrationStore {
	return &fakeRegistrationStore{
		schools:      schools,
		accounts:     map[string]*models.Account{},
		sequences:    map[string]int{},
		takenNumbers: map[string]bool{},
	}
}

func (f *fakeRegistrationStore) InTx(ctx context.Context, fn func(tx repository.RegistrationTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCalls++
	tx := &fakeRegistrationTx{store: f, sequences: map[string]int{}}
	for k, v := range f.sequences {
		tx.sequences[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	f.sequences = tx.sequences
	for _, a := range tx.accounts {
		f.accounts[a.Email] = a
	}
	f.teachers = append(f.teachers, tx.teachers...)
	f.parents = append(f.parents, tx.parents...)
	f.students = append(f.students, tx.students...)
	return nil
}

type fakeRegistrationTx struct {
	store     *fakeRegistrationStore
	accounts  []*models.Account
	teachers  []models.TeacherProfile
	parents   []models.ParentProfile
	students  []models.StudentProfile
	sequences map[string]int
}

func (t *fakeRegistrationTx) CreateAccount(ctx context.Context, account *models.Account) error {
	if _, ok := t.store.accounts[account.Email]; ok {
		return repository.ErrEmailTaken
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	t.accounts = append(t.accounts, account)
	return nil
}

func (t *fakeRegistrationTx) FindSchool(ctx context.Context, id string) (*models.School, error) {
	for i := range t.store.schools {
		if t.store.schools[i].ID == id {
			s := t.store.schools[i]
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (t *fakeRegistrationTx) FirstSchool(ctx context.Context) (*models.School, error) {
	if len(t.store.schools) == 0 {
		return nil, sql.ErrNoRows
	}
	s := t.store.schools[0]
	return &s, nil
}

func (t *fakeRegistrationTx) CreateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error {
	p.ID = uuid.NewString()
	t.teachers = append(t.teachers, *p)
	return nil
}

func (t *fakeRegistrationTx) CreateParentProfile(ctx context.Context, p *models.ParentProfile) error {
	p.ID = uuid.NewString()
	t.parents = append(t.parents, *p)
	return nil
}

// NextStudentSequence increments a transaction-local copy of the counter, so a
// rollback discards the increment as postgres would.
func (t *fakeRegistrationTx) NextStudentSequence(ctx context.Context, prefix string, year int) (int, error) {
	if t.store.seqErr != nil {
		return 0, t.store.seqErr
	}
	key := fmt.Sprintf("%s:%d", prefix, year)
	t.sequences[key]++
	return t.sequences[key], nil
}

func (t *fakeRegistrationTx) StudentNumberExists(ctx context.Context, number string) (bool, error) {
	if t.store.takenNumbers[number] {
		return true, nil
	}
	for _, s := range t.store.students {
		if s.StudentNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeRegistrationTx) CreateStudentProfile(ctx context.Context, p *models.StudentProfile) error {
	if t.store.insertCollisions > 0 {
		t.store.insertCollisions--
		return repository.ErrStudentNumberTaken
	}
	if t.store.takenNumbers[p.StudentNumber] {
		return repository.ErrStudentNumberTaken
	}
	for _, s := range t.store.students {
		if s.StudentNumber == p.StudentNumber {
			return repository.ErrStudentNumberTaken
		}
	}
	p.ID = uuid.NewString()
	t.students = append(t.students, *p)
	return nil
}
