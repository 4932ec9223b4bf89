package repository

import (
	"context"
	"strings"
	"time"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"

	"gorm.io/gorm"
)

// GormAirportRepository implements the AirportRepository interface
type GormAirportRepository struct {
	db *gorm.DB
}

// NewGormAirportRepository creates a new GORM airport repository
func NewGormAirportRepository(db *gorm.DB) repository.AirportRepository {
	return &GormAirportRepository{
		db: db,
	}
}

// Airports GORM model for database mapping
type Airports struct {
	ID          uint           `gorm:"primaryKey"`
	AirportCode string         `gorm:"column:airportcode;unique"`
	DisplayName string         `gorm:"column:display_name"`
	Aliases     string         `gorm:"column:aliases"` // comma separated
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the default table name
func (Airports) TableName() string {
	return "m_airports"
}

// ListAll returns every active airport with its aliases
func (r *GormAirportRepository) ListAll(ctx context.Context) ([]entity.Airport, error) {
	var rows []Airports
	if err := r.db.WithContext(ctx).Order("airportcode").Find(&rows).Error; err != nil {
		return nil, err
	}

	airports := make([]entity.Airport, 0, len(rows))
	for _, row := range rows {
		airports = append(airports, toAirport(row))
	}
	return airports, nil
}

func toAirport(row Airports) entity.Airport {
	var aliases []string
	for _, alias := range strings.Split(row.Aliases, ",") {
		if alias = strings.TrimSpace(alias); alias != "" {
			aliases = append(aliases, alias)
		}
	}
	return entity.Airport{
		Code:        strings.ToUpper(strings.TrimSpace(row.AirportCode)),
		DisplayName: strings.TrimSpace(row.DisplayName),
		Aliases:     aliases,
	}
}
