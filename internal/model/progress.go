package model

import (
	"time"
)

// CourseProgress 每个用户在每门课程上的完成状态，(user_id, course_id) 唯一。
// 只允许通过 ProgressRepository.Upsert 写入；completed 一旦为 true 不再回退。
type CourseProgress struct {
	BaseModel
	UserID      uint       `gorm:"uniqueIndex:idx_user_course;type:bigint unsigned;not null" json:"userId"`
	CourseID    uint       `gorm:"uniqueIndex:idx_user_course;type:bigint unsigned;not null" json:"courseId"`
	TrackID     uint       `gorm:"index;type:bigint unsigned" json:"trackId"`
	Percentage  int        `gorm:"default:0" json:"percentage"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}
