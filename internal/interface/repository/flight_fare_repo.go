package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"
	"airfare-collector/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultUpsertBatchSize is the number of rows per upsert transaction
const DefaultUpsertBatchSize = 5000

// maxBindParameters is the PostgreSQL limit on parameters in one statement
const maxBindParameters = 65535

// uniqueFlightConstraint guards the natural key of flight_info
const uniqueFlightConstraint = "unique_flight"

// flightKeyColumns are the natural key columns in key order
var flightKeyColumns = []string{
	"agency_code", "code",
	"depDate", "depTime", "depCity",
	"arrDate", "arrTime", "arrCity",
	"carCode", "opCarCode",
	"mainFlt", "classCode", "classDesc",
}

// flightUpdateColumns are overwritten when a newer observation of the same key arrives
var flightUpdateColumns = []string{
	"depDay", "depDesc", "arrDay", "arrDesc",
	"carDesc", "opCarDesc", "seat",
	"total_price", "fare", "fareOrigin", "fuelChg", "airTax", "tasf",
	"scraped_date", "source_file", "updated_at",
}

// flightInsertColumns is the number of bound values per inserted row
var flightInsertColumns = len(flightKeyColumns) + len(flightUpdateColumns) + 1 // created_at

// rowsPerStatement splits a batch into INSERTs that stay under maxBindParameters
var rowsPerStatement = maxBindParameters / flightInsertColumns

// GormFlightFareRepository implements the FlightFareRepository interface
type GormFlightFareRepository struct {
	db        *gorm.DB
	batchSize int
	logger    logger.Logger
}

// NewGormFlightFareRepository creates a new GORM flight fare repository
func NewGormFlightFareRepository(db *gorm.DB, batchSize int, logger logger.Logger) repository.FlightFareRepository {
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}
	return &GormFlightFareRepository{
		db:        db,
		batchSize: batchSize,
		logger:    logger,
	}
}

// FlightInfo GORM model for database mapping
type FlightInfo struct {
	ID          uint       `gorm:"primaryKey"`
	AgencyCode  string     `gorm:"column:agency_code;size:8;not null"`
	Code        string     `gorm:"column:code;size:32;not null"`
	DepDate     time.Time  `gorm:"column:depDate;type:date;not null"`
	DepDay      string     `gorm:"column:depDay;size:3"`
	DepTime     *string    `gorm:"column:depTime;type:time"`
	DepCity     string     `gorm:"column:depCity;size:8;not null"`
	DepDesc     string     `gorm:"column:depDesc;size:64"`
	ArrDate     *time.Time `gorm:"column:arrDate;type:date"`
	ArrDay      string     `gorm:"column:arrDay;size:3"`
	ArrTime     *string    `gorm:"column:arrTime;type:time"`
	ArrCity     string     `gorm:"column:arrCity;size:8;not null"`
	ArrDesc     string     `gorm:"column:arrDesc;size:64"`
	CarCode     string     `gorm:"column:carCode;size:8;not null"`
	CarDesc     string     `gorm:"column:carDesc;size:64"`
	OpCarCode   string     `gorm:"column:opCarCode;size:8;not null"`
	OpCarDesc   string     `gorm:"column:opCarDesc;size:64"`
	MainFlt     string     `gorm:"column:mainFlt;size:16;not null"`
	ClassCode   string     `gorm:"column:classCode;size:8;not null"`
	ClassDesc   string     `gorm:"column:classDesc;size:64;not null"`
	Seat        int        `gorm:"column:seat"`
	TotalPrice  int        `gorm:"column:total_price"`
	Fare        int        `gorm:"column:fare"`
	FareOrigin  int        `gorm:"column:fareOrigin"`
	FuelChg     int        `gorm:"column:fuelChg"`
	AirTax      int        `gorm:"column:airTax"`
	Tasf        int        `gorm:"column:tasf"`
	ScrapedDate time.Time  `gorm:"column:scraped_date;type:date;index"`
	SourceFile  string     `gorm:"column:source_file"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the default table name
func (FlightInfo) TableName() string {
	return "flight_info"
}

// MigrateFlightFares creates flight_info and its natural key constraint.
// Nullable key columns compare equal when NULL, which needs PostgreSQL 15 or later.
func MigrateFlightFares(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&FlightInfo{}); err != nil {
		return fmt.Errorf("failed to migrate flight_info: %w", err)
	}
	if db.Migrator().HasConstraint(&FlightInfo{}, uniqueFlightConstraint) {
		return nil
	}

	quoted := make([]string, len(flightKeyColumns))
	for i, col := range flightKeyColumns {
		quoted[i] = `"` + col + `"`
	}
	stmt := fmt.Sprintf(`ALTER TABLE "flight_info" ADD CONSTRAINT %q UNIQUE NULLS NOT DISTINCT (%s)`,
		uniqueFlightConstraint, strings.Join(quoted, ", "))
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to add %s constraint: %w", uniqueFlightConstraint, err)
	}
	return nil
}

// upsertClause replaces a stored row only when the incoming observation was
// scraped on the same day or later. Older back-filled rows leave it untouched.
func upsertClause() clause.OnConflict {
	return clause.OnConflict{
		OnConstraint: uniqueFlightConstraint,
		DoUpdates:    clause.AssignmentColumns(flightUpdateColumns),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: `"flight_info"."scraped_date" <= "excluded"."scraped_date"`},
		}},
	}
}

// BulkUpsert writes records in batches, one transaction per batch. A newer
// observation of an existing key replaces the stored row. A failed batch
// rolls back alone; earlier batches stay committed. Rows left untouched by
// the recency guard count as skipped.
func (r *GormFlightFareRepository) BulkUpsert(ctx context.Context, records []entity.FlightRecord) (entity.UpsertResult, error) {
	var result entity.UpsertResult

	for start := 0; start < len(records); start += r.batchSize {
		end := min(start+r.batchSize, len(records))
		rows := make([]FlightInfo, 0, end-start)
		for _, rec := range records[start:end] {
			rows = append(rows, toFlightInfo(rec))
		}

		var affected int64
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Clauses(upsertClause()).CreateInBatches(&rows, rowsPerStatement)
			if res.Error != nil {
				return res.Error
			}
			affected = res.RowsAffected
			return nil
		})
		if err != nil {
			r.logger.Error("Batch upsert failed", "offset", start, "size", len(rows), "error", err)
			return result, fmt.Errorf("batch at offset %d: %w", start, err)
		}

		result.Batches++
		result.Written += int(affected)
		result.Skipped += len(rows) - int(affected)
		r.logger.Info("Batch upserted", "progress", fmt.Sprintf("%d/%d", end, len(records)), "written", affected)
	}

	return result, nil
}

func toFlightInfo(rec entity.FlightRecord) FlightInfo {
	return FlightInfo{
		AgencyCode:  rec.AgencyCode,
		Code:        rec.FlightCode,
		DepDate:     rec.DepartureDate,
		DepDay:      rec.DepartureWeekday,
		DepTime:     clockValue(rec.DepartureTime),
		DepCity:     rec.OriginCode,
		DepDesc:     rec.OriginName,
		ArrDate:     rec.ArrivalDate,
		ArrDay:      rec.ArrivalWeekday,
		ArrTime:     clockValue(rec.ArrivalTime),
		ArrCity:     rec.DestinationCode,
		ArrDesc:     rec.DestinationName,
		CarCode:     rec.MarketingCarrierCode,
		CarDesc:     rec.MarketingCarrierName,
		OpCarCode:   rec.OperatingCarrierCode,
		OpCarDesc:   rec.OperatingCarrierName,
		MainFlt:     rec.FlightNumber,
		ClassCode:   rec.SeatClassCode,
		ClassDesc:   rec.SeatClassDescription,
		Seat:        rec.Seats,
		TotalPrice:  rec.TotalPrice,
		Fare:        rec.Fare,
		FareOrigin:  rec.FareOrigin,
		FuelChg:     rec.FuelSurcharge,
		AirTax:      rec.AirportTax,
		Tasf:        rec.IssuanceFee,
		ScrapedDate: rec.ScrapeDate,
		SourceFile:  rec.SourceRef,
	}
}

func clockValue(c *entity.Clock) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}
