package repository

import (
	"sharklearning_backend/internal/model"
	"sharklearning_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAttemptQuiz(t *testing.T, repo *QuizRepository, maxAttempts int) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{
		CourseID:    1,
		Title:       "测验",
		MaxAttempts: maxAttempts,
		IsPublished: true,
	}
	require.NoError(t, repo.DB.Create(quiz).Error)
	return quiz
}

func TestQuizZeroValueLimitsPersist(t *testing.T) {
	db := newTestDB(t)

	// 0 是这些列的语义取值（不限时/不限次/无及格线），落库后必须原样读回
	quiz := &model.Quiz{
		CourseID:            1,
		Title:               "不限次测验",
		TimeLimitMinutes:    0,
		PassingScorePercent: 0,
		MaxAttempts:         0,
		IsPublished:         false,
	}
	require.NoError(t, db.Create(quiz).Error)

	var saved model.Quiz
	require.NoError(t, db.First(&saved, "id = ?", quiz.ID).Error)
	assert.Equal(t, 0, saved.TimeLimitMinutes)
	assert.Equal(t, 0, saved.PassingScorePercent)
	assert.Equal(t, 0, saved.MaxAttempts)
	assert.False(t, saved.IsPublished)
}

func TestCreateAttemptAllocatesSequentialNumbers(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuizRepository(db)
	quiz := seedAttemptQuiz(t, repo, 3)

	for i := 1; i <= 3; i++ {
		attempt := &model.QuizAttempt{UserID: 1, QuizID: quiz.ID, SubmittedAt: time.Now()}
		require.NoError(t, repo.CreateAttempt(attempt, quiz.MaxAttempts))
		assert.Equal(t, i, attempt.AttemptNumber)
	}

	attempt := &model.QuizAttempt{UserID: 1, QuizID: quiz.ID, SubmittedAt: time.Now()}
	err := repo.CreateAttempt(attempt, quiz.MaxAttempts)
	assert.ErrorIs(t, err, util.ErrAttemptLimitExceeded)
}

func TestCreateAttemptUnlimitedWhenZero(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuizRepository(db)
	quiz := seedAttemptQuiz(t, repo, 0)

	for i := 1; i <= 5; i++ {
		attempt := &model.QuizAttempt{UserID: 7, QuizID: quiz.ID, SubmittedAt: time.Now()}
		require.NoError(t, repo.CreateAttempt(attempt, quiz.MaxAttempts))
		assert.Equal(t, i, attempt.AttemptNumber)
	}
}

func TestCreateAttemptCountsPerUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuizRepository(db)
	quiz := seedAttemptQuiz(t, repo, 1)

	a1 := &model.QuizAttempt{UserID: 1, QuizID: quiz.ID, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateAttempt(a1, quiz.MaxAttempts))

	// 其他用户不受影响
	a2 := &model.QuizAttempt{UserID: 2, QuizID: quiz.ID, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateAttempt(a2, quiz.MaxAttempts))
	assert.Equal(t, 1, a2.AttemptNumber)
}

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuizRepository(db)
	quiz := seedAttemptQuiz(t, repo, 3)

	require.NoError(t, repo.StartSession(1, quiz.ID))
	session, err := repo.FindSession(1, quiz.ID)
	require.NoError(t, err)
	startedAt := session.StartedAt

	// 重复取题不重置计时起点
	require.NoError(t, repo.StartSession(1, quiz.ID))
	session, err = repo.FindSession(1, quiz.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, startedAt, session.StartedAt, time.Second)

	require.NoError(t, repo.ClearSession(1, quiz.ID))
	_, err = repo.FindSession(1, quiz.ID)
	assert.Error(t, err)

	// 清除后可重新开始计时
	require.NoError(t, repo.StartSession(1, quiz.ID))
}
