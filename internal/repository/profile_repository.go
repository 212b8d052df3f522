package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduportal-api/internal/models"
)

// ProfileRepository resolves the profile ids attached to an account.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindRefs returns every profile reference of the account. The school is taken
// from the admin, teacher or student profile in that order and the district
// from the admin profile or else from that school.
func (r *ProfileRepository) FindRefs(ctx context.Context, userID string) (*models.ProfileRefs, error) {
	const query = `SELECT tp.id AS teacher_profile_id, sp.id AS student_profile_id, pp.id AS parent_profile_id, ap.id AS admin_profile_id,
COALESCE(ap.school_id, tp.school_id, sp.school_id) AS school_id,
COALESCE(ap.district_id, sch.district_id) AS district_id
FROM users u
LEFT JOIN teacher_profiles tp ON tp.user_id = u.id
LEFT JOIN student_profiles sp ON sp.user_id = u.id
LEFT JOIN parent_profiles pp ON pp.user_id = u.id
LEFT JOIN admin_profiles ap ON ap.user_id = u.id
LEFT JOIN schools sch ON sch.id = COALESCE(ap.school_id, tp.school_id, sp.school_id)
WHERE u.id = $1
LIMIT 1`
	var refs models.ProfileRefs
	if err := r.db.GetContext(ctx, &refs, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile refs: %w", err)
	}
	return &refs, nil
}
