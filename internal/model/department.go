package model

import (
	"time"

	"github.com/google/uuid"
)

// Department groups users and scopes approver resolution.
// Each department may have any number of users with the department_approver
// role; the resolver picks the lowest id deterministically.
type Department struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
