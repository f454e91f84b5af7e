package domain

import "time"

// File is a stored upload. Public URLs address files by Token, never by the
// sequential ID.
type File struct {
	ID          int64     `gorm:"primaryKey" db:"id" json:"id"`
	Token       string    `gorm:"type:text;not null;uniqueIndex:ux_files_token" db:"token" json:"token"`
	Name        string    `gorm:"type:text;not null" db:"name" json:"name"`
	Description string    `gorm:"type:text;not null;default:''" db:"description" json:"description"`
	AuthorID    int64     `gorm:"not null;index" db:"author_id" json:"authorId"`
	Author      *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Public      bool      `gorm:"not null;default:false" db:"public" json:"public"`
	ContentType string    `gorm:"type:text;not null;default:''" db:"content_type" json:"contentType"`
	Content     []byte    `gorm:"type:bytea" db:"content" json:"-"`
	CreatedAt   time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
}

func (File) TableName() string { return "files" }
