package models

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the credential record. The two hash columns never leave the
// service; handlers always answer with PublicUser.
type User struct {
	ID               uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Email            string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash     string    `gorm:"not null"                  json:"-"`
	RefreshTokenHash *string   `gorm:"column:refresh_token_hash" json:"-"`
	FirstName        string    `json:"firstName,omitempty"`
	LastName         string    `json:"lastName,omitempty"`
	Role             string    `gorm:"not null;default:USER"     json:"role"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type PublicUser struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) LoggedIn() bool { return u.RefreshTokenHash != nil }
