package repository

import (
	"errors"
	"sharklearning_backend/internal/model"
	"sharklearning_backend/internal/util"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) FindPublishedByCourse(courseID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("course_id = ? AND is_published = ?", courseID, true).
		Order("created_at asc").
		Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *QuizRepository) FindWithQuestions(quizID string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_questions.order_index asc")
	}).First(&quiz, "id = ?", quizID).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) CountAttempts(userID uint, quizID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	return count, err
}

// CreateAttempt 在同一事务里做次数校验和插入，attempt_number 顺序分配；
// 并发提交撞上唯一索引时重分配一次再试，保证永不超过 maxAttempts
func (r *QuizRepository) CreateAttempt(attempt *model.QuizAttempt, maxAttempts int) error {
	const allocRetries = 2

	var err error
	for i := 0; i < allocRetries; i++ {
		err = r.DB.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&model.QuizAttempt{}).
				Where("user_id = ? AND quiz_id = ?", attempt.UserID, attempt.QuizID).
				Count(&count).Error; err != nil {
				return err
			}
			if maxAttempts > 0 && count >= int64(maxAttempts) {
				return util.ErrAttemptLimitExceeded
			}
			attempt.AttemptNumber = int(count) + 1
			return tx.Create(attempt).Error
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		// 撞号后清掉主键重新走一遍分配
		attempt.ID = ""
	}
	return err
}

func (r *QuizRepository) FindAttempts(userID uint, quizID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("attempt_number asc").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// StartSession 记录服务端计时起点；已有会话时保留最早的开始时间
func (r *QuizRepository) StartSession(userID uint, quizID string) error {
	session := model.QuizTakingSession{
		UserID:    userID,
		QuizID:    quizID,
		StartedAt: time.Now(),
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "quiz_id"}},
		DoNothing: true,
	}).Create(&session).Error
}

func (r *QuizRepository) FindSession(userID uint, quizID string) (*model.QuizTakingSession, error) {
	var session model.QuizTakingSession
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ClearSession 物理删除，否则唯一索引会挡住下一轮计时
func (r *QuizRepository) ClearSession(userID uint, quizID string) error {
	return r.DB.Unscoped().
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Delete(&model.QuizTakingSession{}).Error
}
