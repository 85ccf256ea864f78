package users

import "time"

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Gender       *string    `json:"gender,omitempty"`
	GoogleID     *string    `json:"-"`
	AuthProvider string     `json:"auth_provider"`
	CreatedAt    time.Time  `json:"created_at"`
}

// BirthDateWire returns the birth date in the YYYY-MM-DD wire format.
func (u *User) BirthDateWire() *string {
	if u.BirthDate == nil {
		return nil
	}
	s := u.BirthDate.Format("2006-01-02")
	return &s
}
