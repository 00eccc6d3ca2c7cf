package user

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;size:36" db:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" db:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" db:"password_hash"`
	DisplayName  string    `gorm:"column:display_name;not null;default:''" db:"display_name"`
	CollegeName  string    `gorm:"column:college_name;not null;default:''" db:"college_name"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" db:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null" db:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
