package model

import (
	"encoding/json"
	"time"
)

const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
)

// Quiz 测验定义，归属于一门课程。
type Quiz struct {
	UUIDBase
	CourseID            uint           `gorm:"index;type:bigint unsigned" json:"courseId"`
	Title               string         `gorm:"size:255;not null" json:"title"`
	Description         string         `gorm:"type:text" json:"description"`
	// 零值语义：TimeLimitMinutes 0 表示不限时，MaxAttempts 0 表示不限次，
	// 因此这几列不能挂列默认值，否则零值在 INSERT 时会被默认值顶掉
	TimeLimitMinutes    int            `json:"timeLimitMinutes"`
	PassingScorePercent int            `json:"passingScorePercent"`
	MaxAttempts         int            `json:"maxAttempts"`
	IsPublished         bool           `json:"isPublished"`
	Questions           []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion 测验题目。Answer 永不出现在取题响应里，仅在判分和
// 提交结果回显中使用。
type QuizQuestion struct {
	UUIDBase
	QuizID       string          `gorm:"index;type:varchar(36)" json:"quizId"`
	QuestionType string          `gorm:"size:50;not null" json:"questionType"` // multiple_choice, true_false
	Text         string          `gorm:"type:text;not null" json:"text"`
	Options      json.RawMessage `gorm:"type:json" json:"options,omitempty"` // JSON: []string
	Answer       string          `gorm:"type:text" json:"-"`
	Points       int             `gorm:"default:0" json:"points"`
	OrderIndex   int             `gorm:"default:0" json:"orderIndex"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizAttempt 一次已判分的提交，提交后不再修改。
// attempt_number 对 (user_id, quiz_id) 递增，唯一索引兜底并发分配。
type QuizAttempt struct {
	UUIDBase
	UserID           uint              `gorm:"uniqueIndex:idx_user_quiz_attempt;type:bigint unsigned;not null" json:"userId"`
	QuizID           string            `gorm:"uniqueIndex:idx_user_quiz_attempt;type:varchar(36);not null" json:"quizId"`
	AttemptNumber    int               `gorm:"uniqueIndex:idx_user_quiz_attempt;not null" json:"attemptNumber"`
	Answers          map[string]string `gorm:"serializer:json" json:"answers"`
	ScorePercent     int               `gorm:"default:0" json:"scorePercent"`
	EarnedPoints     int               `gorm:"default:0" json:"earnedPoints"`
	TotalPoints      int               `gorm:"default:0" json:"totalPoints"`
	Passed           bool              `gorm:"default:false" json:"passed"`
	TimeSpentSeconds int               `gorm:"default:0" json:"timeSpentSeconds"`
	SubmittedAt      time.Time         `json:"submittedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// QuizTakingSession 服务端计时锚点：学生取题即开始计时，提交落库后清除。
type QuizTakingSession struct {
	BaseModel
	UserID    uint      `gorm:"uniqueIndex:idx_user_quiz_session;type:bigint unsigned;not null" json:"userId"`
	QuizID    string    `gorm:"uniqueIndex:idx_user_quiz_session;type:varchar(36);not null" json:"quizId"`
	StartedAt time.Time `json:"startedAt"`
}

func (QuizTakingSession) TableName() string {
	return "quiz_taking_sessions"
}
