package service

import (
	"errors"
	"sharklearning_backend/internal/model"
	"sharklearning_backend/internal/repository"
	"sharklearning_backend/internal/util"
	"sharklearning_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressService 进度存储：每用户每课程一行，完成转变时同步触发成就评估
type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	CourseRepo   *repository.CourseRepository
	Achievement  *AchievementService
}

func NewProgressService(
	progressRepo *repository.ProgressRepository,
	courseRepo *repository.CourseRepository,
	achievement *AchievementService,
) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		CourseRepo:   courseRepo,
		Achievement:  achievement,
	}
}

// UpsertProgress 覆盖写 percentage；completed 置真后保持粘性，
// 且完成后的百分比回退会被拒绝。完成转变同步评估成就，
// 评估失败只记日志，不影响进度更新本身。
func (s *ProgressService) UpsertProgress(userID, courseID uint, percentage int, completed bool) (*model.CourseProgress, error) {
	if percentage < 0 || percentage > 100 {
		return nil, util.ErrInvalidPercentage
	}

	// 课程必须能在目录协作方解析出归属方向
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	existing, err := s.ProgressRepo.FindByUserAndCourse(userID, courseID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wasCompleted := existing != nil && existing.Completed
	if wasCompleted && percentage < existing.Percentage {
		return nil, util.ErrProgressRegression
	}

	now := time.Now()
	progress := &model.CourseProgress{
		UserID:     userID,
		CourseID:   courseID,
		TrackID:    course.TrackID,
		Percentage: percentage,
		Completed:  completed || wasCompleted, // completed 粘性
		StartedAt:  now,
	}
	if existing != nil {
		progress.StartedAt = existing.StartedAt
		progress.CompletedAt = existing.CompletedAt
	}
	if progress.Completed && progress.CompletedAt == nil {
		progress.CompletedAt = &now
	}

	if err := s.ProgressRepo.Upsert(progress); err != nil {
		return nil, err
	}

	// 回读落库行，更新路径上 Create 不回填已有行的主键和时间戳
	saved, err := s.ProgressRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, err
	}

	if saved.Completed && !wasCompleted {
		if _, err := s.Achievement.EvaluateAndAward(userID); err != nil {
			logger.Log.Error("achievement evaluation after completion failed",
				zap.Uint("userId", userID), zap.Uint("courseId", courseID), zap.Error(err))
		}
	}

	return saved, nil
}

// GetProgress 无记录时返回零值默认，而不是 NotFound
func (s *ProgressService) GetProgress(userID, courseID uint) (*model.CourseProgress, error) {
	progress, err := s.ProgressRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.CourseProgress{
				UserID:     userID,
				CourseID:   courseID,
				Percentage: 0,
				Completed:  false,
			}, nil
		}
		return nil, err
	}
	return progress, nil
}

// ProgressOverview 进度总览
type ProgressOverview struct {
	CompletedCourses       int64                          `json:"completedCourses"`
	TotalEnrolled          int64                          `json:"totalEnrolled"`
	AverageProgressPercent float64                        `json:"averageProgressPercent"`
	TotalPoints            int                            `json:"totalPoints"`
	RecentProgress         []model.CourseProgress         `json:"recentProgress"`
	Achievements           []repository.EarnedAchievement `json:"achievements"`
}

func (s *ProgressService) GetOverview(userID uint) (*ProgressOverview, error) {
	stats, err := s.ProgressRepo.Stats(userID)
	if err != nil {
		return nil, err
	}

	totalPoints, err := s.Achievement.AchievementRepo.TotalPoints(userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.ProgressRepo.FindRecentByUser(userID, 5)
	if err != nil {
		return nil, err
	}

	earned, err := s.Achievement.GetUserAchievements(userID)
	if err != nil {
		return nil, err
	}

	return &ProgressOverview{
		CompletedCourses:       stats.CompletedCourses,
		TotalEnrolled:          stats.TotalEnrolled,
		AverageProgressPercent: stats.AverageProgressPercent,
		TotalPoints:            totalPoints,
		RecentProgress:         recent,
		Achievements:           earned,
	}, nil
}
