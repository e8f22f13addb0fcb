package repository

import (
	"context"

	"github.com/gemmoherb/portal/pkg/models"
	"gorm.io/gorm"
)

type MySQLUsers struct{ db *gorm.DB }

var _ UserRepository = (*MySQLUsers)(nil)

func NewMySQLUsers(db *gorm.DB) *MySQLUsers {
	return &MySQLUsers{db: db}
}

func (r *MySQLUsers) Create(ctx context.Context, u *models.User) error {
	return translate(conn(ctx, r.db).Create(u).Error)
}

func (r *MySQLUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := conn(ctx, r.db).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *MySQLUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := conn(ctx, r.db).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *MySQLUsers) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := conn(ctx, r.db).Order("name").Order("id").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *MySQLUsers) Update(ctx context.Context, u *models.User) error {
	return translate(conn(ctx, r.db).Model(u).Select("*").Omit("id", "created_at").Updates(u).Error)
}

func (r *MySQLUsers) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.User{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
