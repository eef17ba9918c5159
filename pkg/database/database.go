package database

import (
	"fmt"
	"log"
	"sharklearning_backend/internal/config"
	"sharklearning_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

// Migrate 建表并补齐成就目录种子，测试用的内存库复用同一套迁移
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Track{},
		&model.Course{},
		&model.CourseProgress{},
		&model.Achievement{},
		&model.UserAchievement{},
		&model.Quiz{},
		&model.QuizQuestion{},
		&model.QuizAttempt{},
		&model.QuizTakingSession{},
	)
	if err != nil {
		return err
	}

	return seedAchievements(db)
}

// 成就目录为封闭规则集，按 rule_id 幂等补种
func seedAchievements(db *gorm.DB) error {
	defaults := []model.Achievement{
		{
			Title:       "First Completion",
			Description: "完成第一门课程",
			Icon:        "🎯",
			PointValue:  10,
			RuleID:      model.RuleFirstCompletion,
		},
		{
			Title:       "Track Mastery",
			Description: "完成一个方向下的全部已发布课程",
			Icon:        "🏆",
			PointValue:  50,
			RuleID:      model.RuleTrackMastery,
		},
	}

	for _, a := range defaults {
		var count int64
		if err := db.Model(&model.Achievement{}).Where("rule_id = ?", a.RuleID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&a).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
