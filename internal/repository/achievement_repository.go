package repository

import (
	"sharklearning_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) ListCatalog() ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.Order("id asc").Find(&achievements).Error
	if err != nil {
		return nil, err
	}
	return achievements, nil
}

// EarnedAchievement 用户成就与目录的连接视图
type EarnedAchievement struct {
	AchievementID uint      `json:"achievementId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	PointValue    int       `json:"pointValue"`
	RuleID        string    `json:"ruleId"`
	EarnedAt      time.Time `json:"earnedAt"`
}

func (r *AchievementRepository) FindEarnedByUser(userID uint) ([]EarnedAchievement, error) {
	var rows []EarnedAchievement
	err := r.DB.Table("user_achievements").
		Select("achievements.id as achievement_id, achievements.title, achievements.description, achievements.icon, achievements.point_value, achievements.rule_id, user_achievements.earned_at").
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id AND achievements.deleted_at IS NULL").
		Where("user_achievements.user_id = ? AND user_achievements.deleted_at IS NULL", userID).
		Order("user_achievements.earned_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AchievementRepository) Exists(userID, achievementID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Count(&count).Error
	return count > 0, err
}

// Award 幂等颁发：唯一索引挡住并发重复插入，冲突按无操作处理。
// 返回值表示本次是否真正新插入了一行。
func (r *AchievementRepository) Award(userID, achievementID uint) (bool, error) {
	ua := model.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		EarnedAt:      time.Now(),
	}
	result := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(&ua)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *AchievementRepository) TotalPoints(userID uint) (int, error) {
	var total int
	err := r.DB.Table("user_achievements").
		Select("COALESCE(SUM(achievements.point_value), 0)").
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id AND achievements.deleted_at IS NULL").
		Where("user_achievements.user_id = ? AND user_achievements.deleted_at IS NULL", userID).
		Scan(&total).Error
	return total, err
}

// LeaderboardRow 排行榜读取时派生，不落库
type LeaderboardRow struct {
	UserID           uint   `json:"userId"`
	UserName         string `json:"userName"`
	TotalPoints      int    `json:"totalPoints"`
	AchievementCount int    `json:"achievementCount"`
}

// Leaderboard 总分降序，成就数降序，user_id 升序兜底保证排序可复现
func (r *AchievementRepository) Leaderboard(limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := r.DB.Table("users").
		Select("users.id as user_id, users.name as user_name, COALESCE(SUM(achievements.point_value), 0) as total_points, COUNT(user_achievements.id) as achievement_count").
		Joins("LEFT JOIN user_achievements ON user_achievements.user_id = users.id AND user_achievements.deleted_at IS NULL").
		Joins("LEFT JOIN achievements ON achievements.id = user_achievements.achievement_id AND achievements.deleted_at IS NULL").
		Where("users.deleted_at IS NULL AND users.disabled = ?", false).
		Group("users.id, users.name").
		Order("total_points DESC, achievement_count DESC, users.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
