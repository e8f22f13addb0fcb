package repository

import (
	"context"

	"github.com/gemmoherb/portal/pkg/models"
	"gorm.io/gorm"
)

type MySQLProducts struct{ db *gorm.DB }

var _ ProductRepository = (*MySQLProducts)(nil)

func NewMySQLProducts(db *gorm.DB) *MySQLProducts {
	return &MySQLProducts{db: db}
}

func (r *MySQLProducts) Create(ctx context.Context, p *models.Product) error {
	return translate(conn(ctx, r.db).Create(p).Error)
}

func (r *MySQLProducts) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := conn(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *MySQLProducts) GetByReference(ctx context.Context, reference string) (*models.Product, error) {
	var p models.Product
	if err := conn(ctx, r.db).Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *MySQLProducts) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := conn(ctx, r.db).
		Where("is_active = ?", true).
		Order("category").Order("name").Order("id").
		Find(&products).Error
	if err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func (r *MySQLProducts) Update(ctx context.Context, p *models.Product) error {
	return translate(conn(ctx, r.db).Model(p).Select("*").Omit("id", "created_at").Updates(p).Error)
}
