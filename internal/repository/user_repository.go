package repository

import (
	"sharklearning_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(userID uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_seen", time.Now()).Error
}

// FindActiveIDs 返回窗口期内活跃且未停用的用户，供成就补偿巡检遍历
func (r *UserRepository) FindActiveIDs(since time.Time) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.User{}).
		Where("disabled = ? AND last_seen >= ?", false, since).
		Order("id asc").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
