package service

import (
	"context"
	"encoding/json"
	"sharklearning_backend/internal/model"
	"sharklearning_backend/internal/repository"
	"sharklearning_backend/internal/util"
	"sharklearning_backend/pkg/logger"
	"sharklearning_backend/pkg/monitoring"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const leaderboardCacheKey = "leaderboard:top"

// ruleFunc 成就规则谓词：对用户当前的课程进度集合做纯判断
type ruleFunc func(userID uint) (bool, error)

// AchievementService 成就引擎：进度完成时同步评估，巡检时批量补偿。
// 颁发以 (user_id, achievement_id) 唯一索引兜底，天然幂等。
type AchievementService struct {
	AchievementRepo *repository.AchievementRepository
	ProgressRepo    *repository.ProgressRepository
	CourseRepo      *repository.CourseRepository
	UserRepo        *repository.UserRepository
	Redis           *redis.Client

	CacheTTL         time.Duration
	ActiveUserWindow time.Duration

	rules map[string]ruleFunc
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	progressRepo *repository.ProgressRepository,
	courseRepo *repository.CourseRepository,
	userRepo *repository.UserRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
	activeUserWindow time.Duration,
) *AchievementService {
	s := &AchievementService{
		AchievementRepo:  achievementRepo,
		ProgressRepo:     progressRepo,
		CourseRepo:       courseRepo,
		UserRepo:         userRepo,
		Redis:            rdb,
		CacheTTL:         cacheTTL,
		ActiveUserWindow: activeUserWindow,
	}

	// 规则封闭集：新增成就时在这里登记谓词，目录种子按 rule_id 关联
	s.rules = map[string]ruleFunc{
		model.RuleFirstCompletion: s.checkFirstCompletion,
		model.RuleTrackMastery:    s.checkTrackMastery,
	}

	return s
}

// checkFirstCompletion 完成课程数达到 1 即满足
func (s *AchievementService) checkFirstCompletion(userID uint) (bool, error) {
	count, err := s.ProgressRepo.CountCompleted(userID)
	if err != nil {
		return false, err
	}
	return count >= 1, nil
}

// checkTrackMastery 某个方向下已完成课程数等于该方向的已发布课程总数。
// 全量关系而非百分比阈值。
func (s *AchievementService) checkTrackMastery(userID uint) (bool, error) {
	completions, err := s.ProgressRepo.CompletedByTrack(userID)
	if err != nil {
		return false, err
	}

	for _, tc := range completions {
		if tc.TrackID == 0 {
			continue
		}
		total, err := s.CourseRepo.CountPublishedByTrack(tc.TrackID)
		if err != nil {
			return false, err
		}
		if total > 0 && tc.CompletedCount >= total {
			return true, nil
		}
	}
	return false, nil
}

// EvaluateAndAward 对用户评估全部规则并颁发新满足的成就。
// 单条规则失败只记日志不中断其余规则，重复颁发按无操作处理。
func (s *AchievementService) EvaluateAndAward(userID uint) ([]model.Achievement, error) {
	catalog, err := s.AchievementRepo.ListCatalog()
	if err != nil {
		return nil, err
	}

	var awarded []model.Achievement
	for _, achievement := range catalog {
		rule, ok := s.rules[achievement.RuleID]
		if !ok {
			logger.Log.Warn("achievement has no registered rule",
				zap.Uint("achievementId", achievement.ID),
				zap.String("ruleId", achievement.RuleID))
			continue
		}

		exists, err := s.AchievementRepo.Exists(userID, achievement.ID)
		if err != nil {
			logger.Log.Error("achievement existence check failed",
				zap.Uint("userId", userID), zap.String("ruleId", achievement.RuleID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		satisfied, err := rule(userID)
		if err != nil {
			logger.Log.Error("achievement rule evaluation failed",
				zap.Uint("userId", userID), zap.String("ruleId", achievement.RuleID), zap.Error(err))
			continue
		}
		if !satisfied {
			continue
		}

		inserted, err := s.AchievementRepo.Award(userID, achievement.ID)
		if err != nil {
			logger.Log.Error("achievement award failed",
				zap.Uint("userId", userID), zap.String("ruleId", achievement.RuleID), zap.Error(err))
			continue
		}
		if inserted {
			awarded = append(awarded, achievement)
			monitoring.AchievementsAwarded.WithLabelValues(achievement.RuleID).Inc()
		}
	}

	if len(awarded) > 0 {
		s.invalidateLeaderboardCache()
	}

	return awarded, nil
}

// ReconcileAll 成就补偿巡检：遍历窗口期内的活跃用户重评规则，
// 单个用户失败不影响其他用户
func (s *AchievementService) ReconcileAll() {
	since := time.Now().Add(-s.ActiveUserWindow)
	ids, err := s.UserRepo.FindActiveIDs(since)
	if err != nil {
		logger.Log.Error("achievement sweep: listing active users failed", zap.Error(err))
		return
	}

	var awardedTotal int
	for _, userID := range ids {
		awarded, err := s.EvaluateAndAward(userID)
		if err != nil {
			logger.Log.Error("achievement sweep: evaluation failed",
				zap.Uint("userId", userID), zap.Error(err))
			continue
		}
		awardedTotal += len(awarded)
	}

	logger.Log.Info("achievement sweep completed",
		zap.Int("users", len(ids)), zap.Int("awarded", awardedTotal))
}

func (s *AchievementService) ListCatalog() ([]model.Achievement, error) {
	return s.AchievementRepo.ListCatalog()
}

func (s *AchievementService) GetUserAchievements(userID uint) ([]repository.EarnedAchievement, error) {
	return s.AchievementRepo.FindEarnedByUser(userID)
}

// LeaderboardEntry 排行成绩单行，rank 按排序位置 1..N 连续分配（无并列跳号）
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	UserID           uint   `json:"userId"`
	UserName         string `json:"userName"`
	TotalPoints      int    `json:"totalPoints"`
	AchievementCount int    `json:"achievementCount"`
}

// GetLeaderboard 读取时派生排行榜。缓存整个 top-N 前缀，任意 limit 取前缀即可
func (s *AchievementService) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = util.DefaultLeaderboardLimit
	}
	if limit > util.MaxLeaderboardLimit {
		limit = util.MaxLeaderboardLimit
	}

	entries, err := s.loadLeaderboard()
	if err != nil {
		return nil, err
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *AchievementService) loadLeaderboard() ([]LeaderboardEntry, error) {
	if s.Redis != nil {
		val, err := s.Redis.Get(context.Background(), leaderboardCacheKey).Result()
		if err == nil {
			var cached []LeaderboardEntry
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}

	rows, err := s.AchievementRepo.Leaderboard(util.MaxLeaderboardLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = LeaderboardEntry{
			Rank:             i + 1,
			UserID:           row.UserID,
			UserName:         row.UserName,
			TotalPoints:      row.TotalPoints,
			AchievementCount: row.AchievementCount,
		}
	}

	if s.Redis != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := s.Redis.Set(context.Background(), leaderboardCacheKey, data, s.CacheTTL).Err(); err != nil {
				logger.Log.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}

	return entries, nil
}

func (s *AchievementService) invalidateLeaderboardCache() {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(context.Background(), leaderboardCacheKey).Err(); err != nil {
		logger.Log.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}
