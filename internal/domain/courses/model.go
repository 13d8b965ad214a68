package courses

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	YearMonth string `gorm:"column:year_month;size:7"`
	TeacherID uint   `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
