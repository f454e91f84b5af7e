package domain

import "time"

// AccessLevel orders user privileges. Exactly one of the derived role
// predicates is true for any level; a banned user is never also a moderator
// or an admin.
type AccessLevel int

const (
	AccessBanned    AccessLevel = -1
	AccessNormal    AccessLevel = 0
	AccessModerator AccessLevel = 1
	AccessAdmin     AccessLevel = 2
)

type User struct {
	ID           int64       `gorm:"primaryKey" db:"id" json:"id"`
	Email        string      `gorm:"type:text;not null;uniqueIndex:ux_users_email" db:"email" json:"email"`
	Username     string      `gorm:"type:text;not null" db:"username" json:"username"`
	PasswordHash string      `gorm:"type:text;not null" db:"password_hash" json:"-"`
	AccessLevel  AccessLevel `gorm:"not null;default:0" db:"access_level" json:"accessLevel"`
	OtpKey       string      `gorm:"type:text;not null;default:''" db:"otp_key" json:"-"`
	LastOtp      string      `gorm:"type:text;not null;default:''" db:"last_otp" json:"-"`
	ResetCode    string      `gorm:"type:text;not null;default:''" db:"reset_code" json:"-"`
	CreatedAt    time.Time   `gorm:"not null" db:"created_at" json:"createdAt"`
}

func (User) TableName() string { return "users" }

func (u *User) Banned() bool    { return u.AccessLevel == AccessBanned }
func (u *User) Moderator() bool { return u.AccessLevel == AccessModerator }
func (u *User) Admin() bool     { return u.AccessLevel == AccessAdmin }

// TwoFactorEnabled reports whether the user has completed TOTP enrollment.
// An empty OtpKey means two-factor was never configured.
func (u *User) TwoFactorEnabled() bool { return u.OtpKey != "" }
