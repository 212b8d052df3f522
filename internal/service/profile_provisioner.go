package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

const (
	defaultGrade     = "Grade 6"
	maxSequenceSkips = 50
)

var (
	defaultTeacherSubjects = []string{"Mathematics", "Science"}
	defaultStudentSubjects = []string{"Mathematics", "Science", "English", "History", "Geography"}
)

// SchoolPolicy decides which school a TEACHER or STUDENT registration lands in
// when the request does not name one.
type SchoolPolicy struct {
	DefaultSchoolID     string
	FirstSchoolFallback bool
}

// ProfileProvisioner creates the role profile for a freshly inserted account
// inside the registration transaction.
type ProfileProvisioner struct {
	policy SchoolPolicy
	now    func() time.Time
	logger *zap.Logger
}

// NewProfileProvisioner constructs a provisioner. now defaults to time.Now.
func NewProfileProvisioner(policy SchoolPolicy, now func() time.Time, logger *zap.Logger) *ProfileProvisioner {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileProvisioner{policy: policy, now: now, logger: logger}
}

// Provision creates exactly one profile matching the account role, or none for
// admin roles. repository.ErrStudentNumberTaken is returned unchanged so the
// caller can retry the whole transaction.
func (p *ProfileProvisioner) Provision(ctx context.Context, tx repository.RegistrationTx, account *models.Account, schoolID *string) (*models.ProvisionedProfile, error) {
	switch account.Role {
	case models.RoleTeacher:
		return p.provisionTeacher(ctx, tx, account, schoolID)
	case models.RoleStudent:
		return p.provisionStudent(ctx, tx, account, schoolID)
	case models.RoleParent:
		profile := &models.ParentProfile{UserID: account.ID}
		if err := tx.CreateParentProfile(ctx, profile); err != nil {
			return nil, err
		}
		return &models.ProvisionedProfile{Kind: models.ProfileParent, ID: profile.ID}, nil
	case models.RoleSchoolAdmin, models.RoleDistrictAdmin:
		return &models.ProvisionedProfile{Kind: models.ProfileNone}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid role")
	}
}

func (p *ProfileProvisioner) provisionTeacher(ctx context.Context, tx repository.RegistrationTx, account *models.Account, schoolID *string) (*models.ProvisionedProfile, error) {
	school, err := p.selectSchool(ctx, tx, schoolID)
	if err != nil {
		return nil, err
	}
	grade := defaultGrade
	profile := &models.TeacherProfile{
		UserID:   account.ID,
		SchoolID: school.ID,
		Subjects: append([]string(nil), defaultTeacherSubjects...),
		Grade:    &grade,
	}
	if err := tx.CreateTeacherProfile(ctx, profile); err != nil {
		return nil, err
	}
	return &models.ProvisionedProfile{Kind: models.ProfileTeacher, ID: profile.ID, SchoolID: school.ID}, nil
}

func (p *ProfileProvisioner) provisionStudent(ctx context.Context, tx repository.RegistrationTx, account *models.Account, schoolID *string) (*models.ProvisionedProfile, error) {
	school, err := p.selectSchool(ctx, tx, schoolID)
	if err != nil {
		return nil, err
	}
	number, err := p.allocateStudentNumber(ctx, tx, school)
	if err != nil {
		return nil, err
	}
	profile := &models.StudentProfile{
		UserID:        account.ID,
		SchoolID:      school.ID,
		StudentNumber: number,
		Grade:         defaultGrade,
		Subjects:      append([]string(nil), defaultStudentSubjects...),
	}
	if err := tx.CreateStudentProfile(ctx, profile); err != nil {
		return nil, err
	}
	return &models.ProvisionedProfile{
		Kind:          models.ProfileStudent,
		ID:            profile.ID,
		SchoolID:      school.ID,
		StudentNumber: profile.StudentNumber,
	}, nil
}

// allocateStudentNumber draws from the (prefix, year) counter, skipping values
// already taken by numbers issued outside the counter. Skipped values stay
// consumed because the increments commit with the registration.
func (p *ProfileProvisioner) allocateStudentNumber(ctx context.Context, tx repository.RegistrationTx, school *models.School) (string, error) {
	prefix := StudentNumberPrefix(school.Name)
	year := p.now().UTC().Year()
	for i := 0; i < maxSequenceSkips; i++ {
		seq, err := tx.NextStudentSequence(ctx, prefix, year)
		if err != nil {
			return "", err
		}
		number := FormatStudentNumber(prefix, year, seq)
		taken, err := tx.StudentNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
		p.logger.Debug("student number already taken, advancing sequence", zap.String("student_number", number))
	}
	return "", appErrors.Clone(appErrors.ErrProvisioningFailed, "could not allocate a student number")
}

// selectSchool applies, in order: the requested school, the configured
// default, then the oldest school when the fallback is enabled.
func (p *ProfileProvisioner) selectSchool(ctx context.Context, tx repository.RegistrationTx, requested *string) (*models.School, error) {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		school, err := tx.FindSchool(ctx, strings.TrimSpace(*requested))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrProvisioningFailed, "requested school does not exist")
		}
		return school, err
	}

	if p.policy.DefaultSchoolID != "" {
		school, err := tx.FindSchool(ctx, p.policy.DefaultSchoolID)
		switch {
		case err == nil:
			return school, nil
		case errors.Is(err, sql.ErrNoRows):
			p.logger.Warn("configured default school not found", zap.String("school_id", p.policy.DefaultSchoolID))
		default:
			return nil, err
		}
	}

	if p.policy.FirstSchoolFallback {
		school, err := tx.FirstSchool(ctx)
		if err == nil {
			return school, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	return nil, appErrors.Clone(appErrors.ErrProvisioningFailed, "no school available for this registration")
}

// StudentNumberPrefix takes the first three letters of the school name,
// uppercased. Non-letters are skipped and short names are padded with X.
func StudentNumberPrefix(schoolName string) string {
	var b strings.Builder
	for _, r := range schoolName {
		if b.Len() == 3 {
			break
		}
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	for b.Len() < 3 {
		b.WriteByte('X')
	}
	return b.String()
}

// FormatStudentNumber renders prefix, 4-digit year and a sequence padded to at
// least three digits, e.g. RIV2024001.
func FormatStudentNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s%04d%03d", prefix, year, seq)
}
