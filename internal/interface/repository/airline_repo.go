package repository

import (
	"context"
	"time"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"

	"gorm.io/gorm"
)

// GormAirlineRepository implements the AirlineRepository interface
type GormAirlineRepository struct {
	db *gorm.DB
}

// NewGormAirlineRepository creates a new GORM airline repository
func NewGormAirlineRepository(db *gorm.DB) repository.AirlineRepository {
	return &GormAirlineRepository{
		db: db,
	}
}

// Airlines GORM model for database mapping
type Airlines struct {
	ID                uint           `gorm:"primaryKey"`
	Code              string         `gorm:"column:code;unique"`
	Name              string         `gorm:"column:name"`
	CodeshareOperator string         `gorm:"column:codeshare_operator"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName overrides the default table name
func (Airlines) TableName() string {
	return "m_airlines"
}

// GetByCode finds an airline by code
func (r *GormAirlineRepository) GetByCode(ctx context.Context, code string) (*entity.Airline, error) {
	var airline Airlines
	result := r.db.WithContext(ctx).Where("code = ?", code).First(&airline)

	if result.Error != nil {
		return nil, result.Error
	}

	a := toAirline(airline)
	return &a, nil
}

// ListAll returns every active airline
func (r *GormAirlineRepository) ListAll(ctx context.Context) ([]entity.Airline, error) {
	var rows []Airlines
	if err := r.db.WithContext(ctx).Order("code").Find(&rows).Error; err != nil {
		return nil, err
	}

	airlines := make([]entity.Airline, 0, len(rows))
	for _, row := range rows {
		airlines = append(airlines, toAirline(row))
	}
	return airlines, nil
}

// Convert GORM model to domain entity
func toAirline(row Airlines) entity.Airline {
	return entity.Airline{
		Code:              row.Code,
		Name:              row.Name,
		CodeshareOperator: row.CodeshareOperator,
	}
}
