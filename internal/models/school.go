package models

import "time"

// District groups schools for DISTRICT_ADMIN scoping.
type District struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Region    *string   `db:"region" json:"region,omitempty"`
	Active    bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// School is the tenant boundary for teachers, students and classes.
type School struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Address    *string   `db:"address" json:"address,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Email      *string   `db:"email" json:"email,omitempty"`
	DistrictID *string   `db:"district_id" json:"districtId,omitempty"`
	Active     bool      `db:"is_active" json:"isActive"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}
