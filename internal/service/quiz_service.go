package service

import (
	"errors"
	"math"
	"sharklearning_backend/internal/model"
	"sharklearning_backend/internal/repository"
	"sharklearning_backend/internal/util"
	"sharklearning_backend/pkg/logger"
	"sharklearning_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuizService 测验引擎：发题（隐藏答案）、判分、限次、服务端限时
type QuizService struct {
	QuizRepo   *repository.QuizRepository
	CourseRepo *repository.CourseRepository

	SubmitGrace time.Duration
}

func NewQuizService(quizRepo *repository.QuizRepository, courseRepo *repository.CourseRepository, submitGrace time.Duration) *QuizService {
	return &QuizService{
		QuizRepo:    quizRepo,
		CourseRepo:  courseRepo,
		SubmitGrace: submitGrace,
	}
}

// QuizSummary 课程下的测验列表项，不含题目
type QuizSummary struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	TimeLimitMinutes    int    `json:"timeLimitMinutes"`
	PassingScorePercent int    `json:"passingScorePercent"`
	MaxAttempts         int    `json:"maxAttempts"`
}

func (s *QuizService) ListForCourse(courseID uint) ([]QuizSummary, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	quizzes, err := s.QuizRepo.FindPublishedByCourse(courseID)
	if err != nil {
		return nil, err
	}

	summaries := make([]QuizSummary, len(quizzes))
	for i, q := range quizzes {
		summaries[i] = QuizSummary{
			ID:                  q.ID,
			Title:               q.Title,
			Description:         q.Description,
			TimeLimitMinutes:    q.TimeLimitMinutes,
			PassingScorePercent: q.PassingScorePercent,
			MaxAttempts:         q.MaxAttempts,
		}
	}
	return summaries, nil
}

// GetQuizForTaking 返回含题目的测验，正确答案不出现在响应里
// （QuizQuestion.Answer 序列化被屏蔽）。取题同时记录服务端计时起点。
func (s *QuizService) GetQuizForTaking(userID uint, quizID string) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}

	if quiz.TimeLimitMinutes > 0 {
		// 计时失败不阻塞取题，只是放弃该次的服务端限时
		if err := s.QuizRepo.StartSession(userID, quizID); err != nil {
			logger.Log.Warn("quiz taking session start failed",
				zap.Uint("userId", userID), zap.String("quizId", quizID), zap.Error(err))
		}
	}

	return quiz, nil
}

// QuestionResult 提交后的逐题回显，正确答案只在这里揭示
type QuestionResult struct {
	QuestionID    string `json:"questionId"`
	Text          string `json:"text"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	PointsEarned  int    `json:"pointsEarned"`
	Points        int    `json:"points"`
}

// AttemptResult 一次提交的判分结果
type AttemptResult struct {
	Attempt   *model.QuizAttempt `json:"attempt"`
	Breakdown []QuestionResult   `json:"breakdown"`
}

// SubmitAttempt 判分并落库一次提交。
// 次数校验在插入事务内完成，唯一索引兜底并发分配；
// 漏答按空串判错，不作为校验错误。
func (s *QuizService) SubmitAttempt(userID uint, quizID string, answers map[string]string, timeSpentSeconds int) (*AttemptResult, error) {
	quiz, err := s.QuizRepo.FindWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}

	if err := s.checkTimeLimit(userID, quiz); err != nil {
		return nil, err
	}

	if answers == nil {
		answers = map[string]string{}
	}

	earnedPoints := 0
	totalPoints := 0
	breakdown := make([]QuestionResult, 0, len(quiz.Questions))

	for _, q := range quiz.Questions {
		userAnswer := answers[q.ID]
		// 精确区分大小写比较；判断题比较 "true"/"false" 字面量
		isCorrect := userAnswer == q.Answer

		pointsEarned := 0
		if isCorrect {
			pointsEarned = q.Points
			earnedPoints += q.Points
		}
		totalPoints += q.Points

		breakdown = append(breakdown, QuestionResult{
			QuestionID:    q.ID,
			Text:          q.Text,
			UserAnswer:    userAnswer,
			CorrectAnswer: q.Answer,
			IsCorrect:     isCorrect,
			PointsEarned:  pointsEarned,
			Points:        q.Points,
		})
	}

	scorePercent := 0
	if totalPoints > 0 {
		scorePercent = int(math.Round(float64(earnedPoints) / float64(totalPoints) * 100))
	}
	passed := scorePercent >= quiz.PassingScorePercent

	attempt := &model.QuizAttempt{
		UserID:           userID,
		QuizID:           quizID,
		Answers:          answers,
		ScorePercent:     scorePercent,
		EarnedPoints:     earnedPoints,
		TotalPoints:      totalPoints,
		Passed:           passed,
		TimeSpentSeconds: timeSpentSeconds,
		SubmittedAt:      time.Now(),
	}

	if err := s.QuizRepo.CreateAttempt(attempt, quiz.MaxAttempts); err != nil {
		return nil, err
	}

	if quiz.TimeLimitMinutes > 0 {
		if err := s.QuizRepo.ClearSession(userID, quizID); err != nil {
			logger.Log.Warn("quiz taking session clear failed",
				zap.Uint("userId", userID), zap.String("quizId", quizID), zap.Error(err))
		}
	}

	result := "failed"
	if passed {
		result = "passed"
	}
	monitoring.QuizAttempts.WithLabelValues(result).Inc()

	return &AttemptResult{Attempt: attempt, Breakdown: breakdown}, nil
}

// checkTimeLimit 服务端限时：以取题时记录的会话为锚点，
// 超过时限加宽限期的提交被拒绝，不信任客户端上报的用时
func (s *QuizService) checkTimeLimit(userID uint, quiz *model.Quiz) error {
	if quiz.TimeLimitMinutes <= 0 {
		return nil
	}

	session, err := s.QuizRepo.FindSession(userID, quiz.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 没有会话（取题前直接提交，或计时记录失败），无从限时
			return nil
		}
		return err
	}

	deadline := session.StartedAt.
		Add(time.Duration(quiz.TimeLimitMinutes) * time.Minute).
		Add(s.SubmitGrace)
	if time.Now().After(deadline) {
		// 会话作废，重新取题后重新计时
		if err := s.QuizRepo.ClearSession(userID, quiz.ID); err != nil {
			logger.Log.Warn("expired quiz session clear failed",
				zap.Uint("userId", userID), zap.String("quizId", quiz.ID), zap.Error(err))
		}
		return util.ErrQuizTimeExpired
	}
	return nil
}

func (s *QuizService) GetAttempts(userID uint, quizID string) ([]model.QuizAttempt, error) {
	if _, err := s.QuizRepo.FindWithQuestions(quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return s.QuizRepo.FindAttempts(userID, quizID)
}
