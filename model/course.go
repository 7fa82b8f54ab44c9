package model

import (
	"time"
)

// Skill levels a course can require
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

// Course is a single program offered by a bootcamp
type Course struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	CreatedAt            time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
	Title                string    `gorm:"not null" json:"title"`
	Description          string    `gorm:"type:text;not null" json:"description"`
	Weeks                int       `gorm:"not null" json:"weeks"`
	Tuition              float64   `gorm:"not null" json:"tuition"`
	MinimumSkill         string    `gorm:"type:varchar(20);not null" json:"minimumSkill"`
	ScholarshipAvailable bool      `json:"scholarshipAvailable"`
	BootcampID           uint      `gorm:"not null;index" json:"bootcampId"` // Set once on create

	// Relationships
	Bootcamp *Bootcamp `gorm:"foreignKey:BootcampID" json:"bootcamp,omitempty"`
}
