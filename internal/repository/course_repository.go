package repository

import (
	"sharklearning_backend/internal/model"

	"gorm.io/gorm"
)

// CourseRepository 课程目录协作方的只读访问层，本服务不写这两张表
type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) FindByID(courseID uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, courseID).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) CountPublishedByTrack(trackID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Course{}).
		Where("track_id = ? AND is_published = ?", trackID, true).
		Count(&count).Error
	return count, err
}
