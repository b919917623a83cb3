package user

import "time"

type User struct {
	ID         int64     `gorm:"primaryKey"`
	Email      string    `gorm:"column:email;uniqueIndex;not null"`
	Name       string    `gorm:"column:name;not null"`
	Role       string    `gorm:"column:role;not null;default:employee"`
	Department string    `gorm:"column:department;not null;default:''"`
	CreatedAt  time.Time `gorm:"column:created_at;index"`
}

func (User) TableName() string {
	return "users"
}
