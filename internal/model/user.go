package model

// MaxAccountNameLength bounds User.Username (narrower than Note.Username).
const MaxAccountNameLength = 50

// User is a registered account. Accounts are created on registration and
// never updated or deleted.
type User struct {
	ID             int64  `json:"id"       gorm:"primaryKey;autoIncrement"`
	Username       string `json:"username" gorm:"size:50;uniqueIndex;not null"`
	HashedPassword string `json:"-"        gorm:"column:hashed_password;size:255;not null"`
}

func (User) TableName() string { return "users" }
