package repository

import (
	"sharklearning_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByUserAndCourse(userID, courseID uint) (*model.CourseProgress, error) {
	var progress model.CourseProgress
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// Upsert 依赖 (user_id, course_id) 唯一索引做原子 insert-or-update，
// 并发写同一行时不会产生重复行，started_at 只在首次插入时生效
func (r *ProgressRepository) Upsert(progress *model.CourseProgress) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"percentage", "completed", "completed_at", "track_id", "updated_at",
		}),
	}).Create(progress).Error
}

func (r *ProgressRepository) FindByUser(userID uint) ([]model.CourseProgress, error) {
	var rows []model.CourseProgress
	err := r.DB.Where("user_id = ?", userID).Order("updated_at desc").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProgressRepository) FindRecentByUser(userID uint, limit int) ([]model.CourseProgress, error) {
	var rows []model.CourseProgress
	err := r.DB.Where("user_id = ?", userID).
		Order("updated_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProgressRepository) CountCompleted(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&count).Error
	return count, err
}

// TrackCompletion 用户在某方向上已完成的课程数
type TrackCompletion struct {
	TrackID        uint
	CompletedCount int64
}

func (r *ProgressRepository) CompletedByTrack(userID uint) ([]TrackCompletion, error) {
	var rows []TrackCompletion
	err := r.DB.Model(&model.CourseProgress{}).
		Select("track_id, COUNT(*) as completed_count").
		Where("user_id = ? AND completed = ?", userID, true).
		Group("track_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// OverallStats 进度总览聚合
type OverallStats struct {
	TotalEnrolled          int64   `json:"totalEnrolled"`
	CompletedCourses       int64   `json:"completedCourses"`
	AverageProgressPercent float64 `json:"averageProgressPercent"`
}

func (r *ProgressRepository) Stats(userID uint) (*OverallStats, error) {
	var stats OverallStats

	err := r.DB.Model(&model.CourseProgress{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalEnrolled).Error
	if err != nil {
		return nil, err
	}

	err = r.DB.Model(&model.CourseProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&stats.CompletedCourses).Error
	if err != nil {
		return nil, err
	}

	if stats.TotalEnrolled > 0 {
		err = r.DB.Model(&model.CourseProgress{}).
			Where("user_id = ?", userID).
			Select("AVG(percentage)").
			Scan(&stats.AverageProgressPercent).Error
		if err != nil {
			return nil, err
		}
	}

	return &stats, nil
}
