package repository

import (
	"sharklearning_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertKeepsSingleRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	started := time.Now().Add(-time.Hour)
	first := &model.CourseProgress{
		UserID:     1,
		CourseID:   10,
		TrackID:    3,
		Percentage: 20,
		StartedAt:  started,
	}
	require.NoError(t, repo.Upsert(first))

	now := time.Now()
	second := &model.CourseProgress{
		UserID:      1,
		CourseID:    10,
		TrackID:     3,
		Percentage:  100,
		Completed:   true,
		StartedAt:   started,
		CompletedAt: &now,
	}
	require.NoError(t, repo.Upsert(second))

	var count int64
	require.NoError(t, db.Model(&model.CourseProgress{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	saved, err := repo.FindByUserAndCourse(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, saved.Percentage)
	assert.True(t, saved.Completed)
	require.NotNil(t, saved.CompletedAt)
}

func TestCompletedByTrack(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	now := time.Now()
	rows := []model.CourseProgress{
		{UserID: 1, CourseID: 10, TrackID: 3, Percentage: 100, Completed: true, StartedAt: now, CompletedAt: &now},
		{UserID: 1, CourseID: 11, TrackID: 3, Percentage: 100, Completed: true, StartedAt: now, CompletedAt: &now},
		{UserID: 1, CourseID: 20, TrackID: 4, Percentage: 60, StartedAt: now},
		{UserID: 2, CourseID: 10, TrackID: 3, Percentage: 100, Completed: true, StartedAt: now, CompletedAt: &now},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	completions, err := repo.CompletedByTrack(1)
	require.NoError(t, err)
	require.Len(t, completions, 1, "only tracks with completions, only for this user")
	assert.EqualValues(t, 3, completions[0].TrackID)
	assert.EqualValues(t, 2, completions[0].CompletedCount)
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	now := time.Now()
	rows := []model.CourseProgress{
		{UserID: 1, CourseID: 10, TrackID: 3, Percentage: 100, Completed: true, StartedAt: now, CompletedAt: &now},
		{UserID: 1, CourseID: 11, TrackID: 3, Percentage: 40, StartedAt: now},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	stats, err := repo.Stats(1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalEnrolled)
	assert.EqualValues(t, 1, stats.CompletedCourses)
	assert.InDelta(t, 70.0, stats.AverageProgressPercent, 0.01)
}
