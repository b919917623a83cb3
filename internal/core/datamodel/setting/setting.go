package setting

import "time"

type CompanySetting struct {
	ID        int64     `gorm:"primaryKey"`
	Key       string    `gorm:"column:key;uniqueIndex;not null"`
	Value     string    `gorm:"column:value;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (CompanySetting) TableName() string {
	return "company_settings"
}
