package entity

// Role represents a user role in the system
type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Role ID constants, seeded by the initial migration
const (
	RoleIDAdmin   = 1
	RoleIDDoctor  = 2
	RoleIDPatient = 3
)

// RoleNames constants
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// RoleName maps a role id to its name.
func RoleName(roleID int) string {
	switch roleID {
	case RoleIDAdmin:
		return RoleAdmin
	case RoleIDDoctor:
		return RoleDoctor
	case RoleIDPatient:
		return RolePatient
	}
	return ""
}
