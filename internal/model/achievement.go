package model

import "time"

// 成就规则的封闭集合，新增规则时在 service 的规则表中登记对应谓词。
const (
	RuleFirstCompletion = "first_completion"
	RuleTrackMastery    = "track_mastery"
)

// Achievement 成就目录（读多写少），由启动种子维护。
type Achievement struct {
	BaseModel
	Title       string `gorm:"size:100;not null" json:"title"`
	Description string `gorm:"size:255" json:"description"`
	Icon        string `gorm:"size:255" json:"icon"`
	PointValue  int    `gorm:"default:0" json:"pointValue"`
	RuleID      string `gorm:"size:50;uniqueIndex;not null" json:"ruleId"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement 用户已获得的成就，(user_id, achievement_id) 唯一。
// 唯一索引是幂等颁发的并发闸门：重复插入按无操作处理。
type UserAchievement struct {
	BaseModel
	UserID        uint      `gorm:"uniqueIndex:idx_user_achievement;type:bigint unsigned;not null" json:"userId"`
	AchievementID uint      `gorm:"uniqueIndex:idx_user_achievement;type:bigint unsigned;not null" json:"achievementId"`
	EarnedAt      time.Time `json:"earnedAt"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
