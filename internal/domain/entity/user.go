package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents the centralized authentication table
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoleID    int       `gorm:"not null;index" json:"role_id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:text;not null" json:"-"`
	FullName  string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone,omitempty"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Role          Role           `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	DoctorProfile *DoctorProfile `gorm:"foreignKey:UserID" json:"doctor_profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsDoctor checks if the user is a practitioner
func (u *User) IsDoctor() bool {
	return u.RoleID == RoleIDDoctor
}

// DisplayName returns the full name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
