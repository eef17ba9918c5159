package service

import (
	"sharklearning_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAndAwardIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice")
	track := env.createTrack(t, "Go 后端")
	course := env.createCourse(t, track.ID, "Go 入门", true)
	env.createCourse(t, track.ID, "Go 进阶", true) // 方向未通关，只触发 first_completion

	_, err := env.progressSvc.UpsertProgress(user.ID, course.ID, 100, true)
	require.NoError(t, err)

	// 完成时已评估过一次，手动重跑不应再颁发
	awarded, err := env.achievementSvc.EvaluateAndAward(user.ID)
	require.NoError(t, err)
	assert.Empty(t, awarded)

	var count int64
	require.NoError(t, env.db.Model(&model.UserAchievement{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEvaluateAndAwardNoCompletions(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "bob")
	track := env.createTrack(t, "前端")
	course := env.createCourse(t, track.ID, "CSS", true)

	_, err := env.progressSvc.UpsertProgress(user.ID, course.ID, 80, false)
	require.NoError(t, err)

	awarded, err := env.achievementSvc.EvaluateAndAward(user.ID)
	require.NoError(t, err)
	assert.Empty(t, awarded)
}

func TestTrackMasteryAwardedOnce(t *testing.T) {
	env := newTestEnv(t)
	track := env.createTrack(t, "数据")
	c1 := env.createCourse(t, track.ID, "SQL", true)
	c2 := env.createCourse(t, track.ID, "NoSQL", true)

	// 完成顺序不影响结果
	orders := [][]uint{{c1.ID, c2.ID}, {c2.ID, c1.ID}}
	for i, order := range orders {
		user := env.createUser(t, "student"+string(rune('a'+i)))

		_, err := env.progressSvc.UpsertProgress(user.ID, order[0], 100, true)
		require.NoError(t, err)

		earned, err := env.achievementSvc.GetUserAchievements(user.ID)
		require.NoError(t, err)
		require.Len(t, earned, 1, "only first_completion after one of two courses")

		_, err = env.progressSvc.UpsertProgress(user.ID, order[1], 100, true)
		require.NoError(t, err)

		earned, err = env.achievementSvc.GetUserAchievements(user.ID)
		require.NoError(t, err)
		require.Len(t, earned, 2)

		// 重复评估也只留一行
		_, err = env.achievementSvc.EvaluateAndAward(user.ID)
		require.NoError(t, err)
		var count int64
		require.NoError(t, env.db.Model(&model.UserAchievement{}).
			Where("user_id = ?", user.ID).Count(&count).Error)
		assert.EqualValues(t, 2, count)
	}
}

func TestTrackMasteryCountsPublishedOnly(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "carol")
	track := env.createTrack(t, "算法")
	c1 := env.createCourse(t, track.ID, "排序", true)
	env.createCourse(t, track.ID, "图论（草稿）", false)

	_, err := env.progressSvc.UpsertProgress(user.ID, c1.ID, 100, true)
	require.NoError(t, err)

	// 未发布课程不计入分母，单门已发布课程完成即通关该方向
	earned, err := env.achievementSvc.GetUserAchievements(user.ID)
	require.NoError(t, err)
	ruleIDs := make([]string, 0, len(earned))
	for _, e := range earned {
		ruleIDs = append(ruleIDs, e.RuleID)
	}
	assert.Contains(t, ruleIDs, model.RuleTrackMastery)
}

func TestLeaderboardOrdering(t *testing.T) {
	env := newTestEnv(t)

	extra := model.Achievement{
		Title:      "测验达人",
		PointValue: 10,
		RuleID:     "quiz_whiz",
	}
	require.NoError(t, env.db.Create(&extra).Error)

	var firstCompletion model.Achievement
	require.NoError(t, env.db.Where("rule_id = ?", model.RuleFirstCompletion).First(&firstCompletion).Error)
	var trackMastery model.Achievement
	require.NoError(t, env.db.Where("rule_id = ?", model.RuleTrackMastery).First(&trackMastery).Error)

	high := env.createUser(t, "high")
	manySmall := env.createUser(t, "manySmall")
	oneSmall := env.createUser(t, "oneSmall")
	tied := env.createUser(t, "tied")
	zero := env.createUser(t, "zero")

	award := func(userID, achievementID uint) {
		inserted, err := env.achievement.Award(userID, achievementID)
		require.NoError(t, err)
		require.True(t, inserted)
	}

	award(high.ID, trackMastery.ID)     // 50 分 1 项
	award(manySmall.ID, firstCompletion.ID) // 10+10 分 2 项
	award(manySmall.ID, extra.ID)
	award(oneSmall.ID, firstCompletion.ID) // 10 分 1 项
	award(tied.ID, extra.ID) // 10 分 1 项，与 oneSmall 完全并列

	entries, err := env.achievementSvc.GetLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	// 总分降序、成就数降序、user_id 升序，rank 连续
	assert.Equal(t, high.ID, entries[0].UserID)
	assert.Equal(t, 50, entries[0].TotalPoints)
	assert.Equal(t, manySmall.ID, entries[1].UserID)
	assert.Equal(t, 20, entries[1].TotalPoints)
	assert.Equal(t, oneSmall.ID, entries[2].UserID, "tie broken by lower user id first")
	assert.Equal(t, tied.ID, entries[3].UserID)
	assert.Equal(t, zero.ID, entries[4].UserID, "zero-point users rank below point holders")
	assert.Equal(t, 0, entries[4].TotalPoints)

	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestLeaderboardMovesAfterCompletion(t *testing.T) {
	env := newTestEnv(t)
	track := env.createTrack(t, "云原生")
	course := env.createCourse(t, track.ID, "Docker", true)
	env.createCourse(t, track.ID, "Kubernetes", true)

	idle := env.createUser(t, "idle")
	learner := env.createUser(t, "learner")

	entries, err := env.achievementSvc.GetLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, idle.ID, entries[0].UserID, "all-zero board ordered by user id")

	_, err = env.progressSvc.UpsertProgress(learner.ID, course.ID, 100, true)
	require.NoError(t, err)

	entries, err = env.achievementSvc.GetLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, learner.ID, entries[0].UserID)
	assert.Equal(t, 10, entries[0].TotalPoints)
	assert.Equal(t, idle.ID, entries[1].UserID)
}

func TestLeaderboardExcludesDisabledUsers(t *testing.T) {
	env := newTestEnv(t)
	active := env.createUser(t, "active")
	disabled := env.createUser(t, "disabled")
	require.NoError(t, env.db.Model(&model.User{}).
		Where("id = ?", disabled.ID).Update("disabled", true).Error)

	entries, err := env.achievementSvc.GetLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, active.ID, entries[0].UserID)
}

func TestReconcileAllAwardsForActiveUsers(t *testing.T) {
	env := newTestEnv(t)
	track := env.createTrack(t, "运维")
	course := env.createCourse(t, track.ID, "Linux", true)

	user := env.createUser(t, "alice")
	stale := env.createUser(t, "stale")
	require.NoError(t, env.db.Model(&model.User{}).
		Where("id = ?", stale.ID).
		Update("last_seen", time.Now().Add(-90*24*time.Hour)).Error)

	// 直接写完成记录，绕过 UpsertProgress 的在线评估，模拟漏发
	for _, uid := range []uint{user.ID, stale.ID} {
		now := time.Now()
		require.NoError(t, env.db.Create(&model.CourseProgress{
			UserID:      uid,
			CourseID:    course.ID,
			TrackID:     track.ID,
			Percentage:  100,
			Completed:   true,
			StartedAt:   now,
			CompletedAt: &now,
		}).Error)
	}

	env.achievementSvc.ReconcileAll()

	earned, err := env.achievementSvc.GetUserAchievements(user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, earned)

	// 窗口外的用户留给下个活跃周期
	earned, err = env.achievementSvc.GetUserAchievements(stale.ID)
	require.NoError(t, err)
	assert.Empty(t, earned)
}
