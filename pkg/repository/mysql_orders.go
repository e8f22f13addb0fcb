package repository

import (
	"context"
	"unicode/utf8"

	"github.com/gemmoherb/portal/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MySQLOrders struct{ db *gorm.DB }

var _ OrderRepository = (*MySQLOrders)(nil)

func NewMySQLOrders(db *gorm.DB) *MySQLOrders {
	return &MySQLOrders{db: db}
}

func (r *MySQLOrders) Create(ctx context.Context, o *models.Order) error {
	return translate(conn(ctx, r.db).Create(o).Error)
}

func (r *MySQLOrders) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&o, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *MySQLOrders) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

func (r *MySQLOrders) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := conn(ctx, r.db).Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

func (r *MySQLOrders) LatestNumber(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := conn(ctx, r.db).Model(&models.Order{}).
		Where("order_number REGEXP ?", numberRegexp(prefix)).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "CAST(SUBSTRING(order_number, ?) AS UNSIGNED) DESC",
			Vars: []interface{}{utf8.RuneCountInString(prefix) + 2},
		}}).
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil {
		return "", translate(err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (r *MySQLOrders) Update(ctx context.Context, o *models.Order) error {
	return translate(conn(ctx, r.db).Model(o).
		Select("status", "payment_method", "payment_status", "discount_amount", "total_ttc", "updated_at").
		Updates(o).Error)
}

func (r *MySQLOrders) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
