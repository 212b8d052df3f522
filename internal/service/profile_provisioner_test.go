package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, 3, 1, 9, 0, 0, 0, time.UTC) }
}

func rivonia() models.School {
	return models.School{ID: "school-1", Name: "Rivonia Primary School", Active: true}
}

func provisionOnce(t *testing.T, store *fakeRegistrationStore, p *ProfileProvisioner, role models.UserRole, schoolID *string) (*models.ProvisionedProfile, error) {
	t.Helper()
	var out *models.ProvisionedProfile
	err := store.InTx(context.Background(), func(tx repository.RegistrationTx) error {
		account := &models.Account{Email: string(role) + "@b.co", Role: role}
		if err := tx.CreateAccount(context.Background(), account); err != nil {
			return err
		}
		var err error
		out, err = p.Provision(context.Background(), tx, account, schoolID)
		return err
	})
	return out, err
}

func TestStudentNumberExample(t *testing.T) {
	store := newFakeRegistrationStore(rivonia())
	p := NewProfileProvisioner(SchoolPolicy{FirstSchoolFallback: true}, fixedClock(2024), nil)

	profile, err := provisionOnce(t, store, p, models.RoleStudent, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStudent, profile.Kind)
	assert.Equal(t, "RIV2024001", profile.StudentNumber)
	require.Len(t, store.students, 1)
	assert.Equal(t, "Grade 6", store.students[0].Grade)
	assert.Equal(t, []string{"Mathematics", "Science", "English", "History", "Geography"}, []string(store.students[0].Subjects))
}

func TestEveryRoleHasProvisioningDecision(t *testing.T) {
	expected := map[models.UserRole]models.ProfileKind{
		models.RoleTeacher:       models.ProfileTeacher,
		models.RoleParent:        models.ProfileParent,
		models.RoleStudent:       models.ProfileStudent,
		models.RoleSchoolAdmin:   models.ProfileNone,
		models.RoleDistrictAdmin: models.ProfileNone,
	}
	require.Len(t, expected, len(models.AllRoles()))

	for _, role := range models.AllRoles() {
		t.Run(string(role), func(t *testing.T) {
			store := newFakeRegistrationStore(rivonia())
			p := NewProfileProvisioner(SchoolPolicy{FirstSchoolFallback: true}, fixedClock(2024), nil)
			profile, err := provisionOnce(t, store, p, role, nil)
			require.NoError(t, err)
			want, ok := expected[role]
			require.True(t, ok, "no expectation for role %s", role)
			assert.Equal(t, want, profile.Kind)
		})
	}
}

func TestProvisionUnknownRole(t *testing.T) {
	store := newFakeRegistrationStore(rivonia())
	p := NewProfileProvisioner(SchoolPolicy{FirstSchoolFallback: true}, nil, nil)
	_, err := provisionOnce(t, store, p, models.UserRole("JANITOR"), nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, store.accounts)
}

func TestTeacherWithoutSchoolFailsAndRollsBack(t *testing.T) {
	store := newFakeRegistrationStore()
	p := NewProfileProvisioner(SchoolPolicy{FirstSchoolFallback: true}, nil, nil)

	_, err := provisionOnce(t, store, p, models.RoleTeacher, nil)
	assert.ErrorIs(t, err, appErrors.ErrProvisioningFailed)
	assert.Empty(t, store.accounts)
	assert.Empty(t, store.teachers)
}

func TestSchoolSelectionOrder(t *testing.T) {
	first := rivonia()
	second := models.School{ID: "school-2", Name: "Sandton High", Active: true}

	t.Run("explicit school wins", func(t *testing.T) {
		store := newFakeRegistrationStore(first, second)
		p := NewProfileProvisioner(SchoolPolicy{DefaultSchoolID: "school-1", FirstSchoolFallback: true}, fixedClock(2024), nil)
		id := "school-2"
		profile, err := provisionOnce(t, store, p, models.RoleStudent, &id)
		require.NoError(t, err)
		assert.Equal(t, "school-2", profile.SchoolID)
		assert.Equal(t, "SAN2024001", profile.StudentNumber)
	})

	t.Run("unknown explicit school fails", func(t *testing.T) {
		store := newFakeRegistrationStore(first)
		p := NewProfileProvisioner(SchoolPolicy{FirstSchoolFallback: true}, nil, nil)
		id := "nope"
		_, err := provisionOnce(t, store, p, models.RoleTeacher, &id)
		assert.ErrorIs(t, err, appErrors.ErrProvisioningFailed)
	})

	t.Run("configured default", func(t *testing.T) {
		store := newFakeRegistrationStore(first, second)
		p := NewProfileProvisioner(SchoolPolicy{DefaultSchoolID: "school-2"}, nil, nil)
		profile, err := provisionOnce(t, store, p, models.RoleTeacher, nil)
		require.NoError(t, err)
		assert.Equal(t, "school-2", profile.SchoolID)
	})

	t.Run("fallback disabled", func(t *testing.T) {
		store := newFakeRegistrationStore(first)
		p := NewProfileProvisioner(SchoolPolicy{}, nil, nil)
		_, err := provisionOnce(t, store, p, models.RoleStudent, nil)
		assert.ErrorIs(t, err, appErrors.ErrProvisioningFailed)
	})
}

func TestStudentNumberSkipsTakenValues(t *testing.T) {
	store := newFakeRegistrationStore(rivonia())
	store.takenNumbers["RIV2024001"] = true
	store.takenNumbers["RIV2024002"] = true
	p := NewProfileProvisioner(SchoolPolicy{FirstSchoolFallback: true}, fixedClock(2024), nil)

	profile, err := provisionOnce(t, store, p, models.RoleStudent, nil)
	require.NoError(t, err)
	assert.Equal(t, "RIV2024003", profile.StudentNumber)
	assert.Equal(t, 3, store.sequences["RIV:2024"])
}

func TestSequenceErrorPropagates(t *testing.T) {
	store := newFakeRegistrationStore(rivonia())
	store.seqErr = errors.New("db down")
	p := NewProfileProvisioner(SchoolPolicy{FirstSchoolFallback: true}, fixedClock(2024), nil)

	_, err := provisionOnce(t, store, p, models.RoleStudent, nil)
	assert.EqualError(t, err, "db down")
	assert.Empty(t, store.accounts)
}

func TestStudentNumberPrefix(t *testing.T) {
	cases := map[string]string{
		"Rivonia Primary School": "RIV",
		"st. mary's":             "STM",
		"A1":                     "AXX",
		"":                       "XXX",
		"École":                  "COL",
	}
	for name, want := range cases {
		assert.Equal(t, want, StudentNumberPrefix(name), name)
	}
}

func TestFormatStudentNumberWidens(t *testing.T) {
	assert.Equal(t, "RIV2024001", FormatStudentNumber("RIV", 2024, 1))
	assert.Equal(t, "RIV2024999", FormatStudentNumber("RIV", 2024, 999))
	assert.Equal(t, "RIV20241000", FormatStudentNumber("RIV", 2024, 1000))
}
