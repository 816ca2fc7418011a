package models

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Issuer       string `gorm:"not null"                 json:"issuer"`
	TokenID      string `gorm:"not null"                 json:"-"`
	TokenSecret  string `gorm:"not null"                 json:"-"`
	Status       string `gorm:"not null;default:active"  json:"status"`
}

// Identity is the read-only projection of a User that the token core needs.
type Identity struct {
	ID          uint
	Issuer      string
	TokenID     string
	TokenSecret string
	Active      bool
}

func (u *User) Identity() Identity {
	return Identity{
		ID:          u.ID,
		Issuer:      u.Issuer,
		TokenID:     u.TokenID,
		TokenSecret: u.TokenSecret,
		Active:      u.Status == StatusActive,
	}
}
