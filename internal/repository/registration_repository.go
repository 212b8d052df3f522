package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/pkg/database"
)

// Constraint names from migrations/0001_init.sql.
const (
	constraintUsersEmail           = "users_email_key"
	constraintStudentNumber        = "student_profiles_student_number_key"
	constraintTeacherProfileUserID = "teacher_profiles_user_id_key"
	constraintStudentProfileUserID = "student_profiles_user_id_key"
	constraintParentProfileUserID  = "parent_profiles_user_id_key"
)

var (
	// ErrEmailTaken is returned when the users email constraint rejects an insert.
	ErrEmailTaken = errors.New("email already registered")
	// ErrStudentNumberTaken is returned when a generated student number already exists.
	ErrStudentNumberTaken = errors.New("student number already allocated")
	// ErrProfileExists is returned when the account already owns a profile.
	ErrProfileExists = errors.New("account already has a profile")
)

// RegistrationTx is the set of writes performed inside one registration
// transaction.
type RegistrationTx interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	FindSchool(ctx context.Context, id string) (*models.School, error)
	FirstSchool(ctx context.Context) (*models.School, error)
	CreateTeacherProfile(ctx context.Context, profile *models.TeacherProfile) error
	CreateParentProfile(ctx context.Context, profile *models.ParentProfile) error
	NextStudentSequence(ctx context.Context, prefix string, year int) (int, error)
	StudentNumberExists(ctx context.Context, number string) (bool, error)
	CreateStudentProfile(ctx context.Context, profile *models.StudentProfile) error
}

// RegistrationRepository runs account creation and profile provisioning in a
// single database transaction.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository creates a new instance of RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// InTx executes fn in a transaction. Any error returned by fn rolls back every
// write, including the account row.
func (r *RegistrationRepository) InTx(ctx context.Context, fn func(tx RegistrationTx) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&registrationTx{tx: tx})
	})
}

type registrationTx struct {
	tx *sqlx.Tx
}

func (r *registrationTx) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	const query = `INSERT INTO users (id, email, password_hash, first_name, last_name, role, phone, is_active, created_at, updated_at) VALUES (:id, :email, :password_hash, :first_name, :last_name, :role, :phone, :is_active, :created_at, :updated_at)`
	if _, err := r.tx.NamedExecContext(ctx, query, account); err != nil {
		if database.IsUniqueViolation(err, constraintUsersEmail) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *registrationTx) FindSchool(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, name, address, phone, email, district_id, is_active, created_at, updated_at FROM schools WHERE id = $1 AND is_active = TRUE LIMIT 1`
	var school models.School
	if err := r.tx.GetContext(ctx, &school, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	return &school, nil
}

// FirstSchool is the placeholder selection: the oldest active school with id
// as the tie breaker.
func (r *registrationTx) FirstSchool(ctx context.Context) (*models.School, error) {
	const query = `SELECT id, name, address, phone, email, district_id, is_active, created_at, updated_at FROM schools WHERE is_active = TRUE ORDER BY created_at ASC, id ASC LIMIT 1`
	var school models.School
	if err := r.tx.GetContext(ctx, &school, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("first school: %w", err)
	}
	return &school, nil
}

func (r *registrationTx) CreateTeacherProfile(ctx context.Context, profile *models.TeacherProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_profiles (id, user_id, school_id, subjects, grade, created_at) VALUES (:id, :user_id, :school_id, :subjects, :grade, :created_at)`
	if _, err := r.tx.NamedExecContext(ctx, query, profile); err != nil {
		if database.IsUniqueViolation(err, constraintTeacherProfileUserID) {
			return ErrProfileExists
		}
		return fmt.Errorf("create teacher profile: %w", err)
	}
	return nil
}

func (r *registrationTx) CreateParentProfile(ctx context.Context, profile *models.ParentProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO parent_profiles (id, user_id, created_at) VALUES (:id, :user_id, :created_at)`
	if _, err := r.tx.NamedExecContext(ctx, query, profile); err != nil {
		if database.IsUniqueViolation(err, constraintParentProfileUserID) {
			return ErrProfileExists
		}
		return fmt.Errorf("create parent profile: %w", err)
	}
	return nil
}

// NextStudentSequence atomically allocates the next value of the (prefix, year)
// counter. Concurrent callers serialise on the counter row.
func (r *registrationTx) NextStudentSequence(ctx context.Context, prefix string, year int) (int, error) {
	const query = `INSERT INTO student_number_sequences (prefix, year, last_value) VALUES ($1, $2, 1)
ON CONFLICT (prefix, year) DO UPDATE SET last_value = student_number_sequences.last_value + 1
RETURNING last_value`
	var next int
	if err := r.tx.GetContext(ctx, &next, query, prefix, year); err != nil {
		return 0, fmt.Errorf("allocate student sequence: %w", err)
	}
	return next, nil
}

func (r *registrationTx) StudentNumberExists(ctx context.Context, number string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM student_profiles WHERE student_number = $1)`
	var exists bool
	if err := r.tx.GetContext(ctx, &exists, query, number); err != nil {
		return false, fmt.Errorf("check student number: %w", err)
	}
	return exists, nil
}

func (r *registrationTx) CreateStudentProfile(ctx context.Context, profile *models.StudentProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_profiles (id, user_id, school_id, parent_id, student_number, grade, subjects, created_at) VALUES (:id, :user_id, :school_id, :parent_id, :student_number, :grade, :subjects, :created_at)`
	if _, err := r.tx.NamedExecContext(ctx, query, profile); err != nil {
		switch {
		case database.IsUniqueViolation(err, constraintStudentNumber):
			return ErrStudentNumberTaken
		case database.IsUniqueViolation(err, constraintStudentProfileUserID):
			return ErrProfileExists
		}
		return fmt.Errorf("create student profile: %w", err)
	}
	return nil
}
