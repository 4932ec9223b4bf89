package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"
	"airfare-collector/pkg/logger"
	"airfare-collector/pkg/utils"

	"github.com/xuri/excelize/v2"
)

const flatFileSheet = "fares"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FlatFileRepository keeps the canonical dataset in a CSV or XLSX file,
// chosen by extension. CSV files carry a UTF-8 byte order mark.
type FlatFileRepository struct {
	path   string
	logger logger.Logger
}

// NewFlatFileRepository creates a new flat file repository
func NewFlatFileRepository(path string, logger logger.Logger) repository.FlatFileRepository {
	return &FlatFileRepository{
		path:   path,
		logger: logger,
	}
}

func (r *FlatFileRepository) isExcel() bool {
	return strings.EqualFold(filepath.Ext(r.path), ".xlsx")
}

// Load reads the dataset. A missing file is an empty dataset.
func (r *FlatFileRepository) Load(ctx context.Context) ([]entity.FlightRecord, error) {
	if _, err := os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("No flat file yet, starting empty", "path", r.path)
		return nil, nil
	}

	var (
		table [][]string
		err   error
	)
	if r.isExcel() {
		table, err = r.readExcel()
	} else {
		table, err = r.readCSV()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, skipped := parseTable(table)
	if skipped > 0 {
		r.logger.Warn("Skipped flat file rows without departure date", "skipped", skipped)
	}
	r.logger.Info("Loaded flat file", "path", r.path, "records", len(records))
	return records, nil
}

// Save replaces the file with the given records in canonical column order
func (r *FlatFileRepository) Save(ctx context.Context, records []entity.FlightRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// excelize picks the workbook format from the extension, so keep it last
	ext := filepath.Ext(r.path)
	tmp := strings.TrimSuffix(r.path, ext) + ".tmp" + ext
	var err error
	if r.isExcel() {
		err = writeExcel(tmp, records)
	} else {
		err = writeCSV(tmp, records)
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}

	r.logger.Info("Saved flat file", "path", r.path, "records", len(records))
	return nil
}

func (r *FlatFileRepository) readCSV() ([][]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func (r *FlatFileRepository) readExcel() ([][]string, error) {
	xl, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = xl.Close() }()

	return xl.GetRows(xl.GetSheetName(0))
}

func writeCSV(path string, records []entity.FlightRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	if _, err := buf.Write(utf8BOM); err != nil {
		return err
	}
	if err := encodeCSV(buf, records); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func encodeCSV(w io.Writer, records []entity.FlightRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(entity.CanonicalColumns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeExcel(path string, records []entity.FlightRecord) error {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), flatFileSheet); err != nil {
		return err
	}
	sw, err := xl.NewStreamWriter(flatFileSheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(entity.CanonicalColumns))
	for i, col := range entity.CanonicalColumns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, rec := range records {
		row := rec.Row()
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return xl.SaveAs(path)
}

// parseTable converts rows with a header line into records.
// Columns are matched by name; missing columns read as blank.
func parseTable(table [][]string) ([]entity.FlightRecord, int) {
	if len(table) == 0 {
		return nil, 0
	}
	index := make(map[string]int, len(table[0]))
	for i, name := range table[0] {
		index[strings.TrimSpace(name)] = i
	}

	var (
		records []entity.FlightRecord
		skipped int
	)
	for _, row := range table[1:] {
		get := func(col string) string {
			if i, ok := index[col]; ok && i < len(row) {
				return utils.CleanString(row[i])
			}
			return ""
		}

		dep, ok := utils.ParseISODate(get("depDate"))
		if !ok {
			skipped++
			continue
		}
		rec := entity.FlightRecord{
			AgencyCode:           get("agency_code"),
			FlightCode:           get("code"),
			DepartureDate:        dep,
			DepartureWeekday:     get("depDay"),
			OriginCode:           get("depCity"),
			OriginName:           get("depDesc"),
			ArrivalWeekday:       get("arrDay"),
			DestinationCode:      get("arrCity"),
			DestinationName:      get("arrDesc"),
			MarketingCarrierCode: get("carCode"),
			MarketingCarrierName: get("carDesc"),
			OperatingCarrierCode: get("opCarCode"),
			OperatingCarrierName: get("opCarDesc"),
			FlightNumber:         get("mainFlt"),
			SeatClassCode:        get("classCode"),
			SeatClassDescription: get("classDesc"),
			Seats:                utils.CoerceInt(get("seat")),
			TotalPrice:           utils.CoerceInt(get("total_price")),
			Fare:                 utils.CoerceInt(get("fare")),
			FareOrigin:           utils.CoerceInt(get("fareOrigin")),
			FuelSurcharge:        utils.CoerceInt(get("fuelChg")),
			AirportTax:           utils.CoerceInt(get("airTax")),
			IssuanceFee:          utils.CoerceInt(get("tasf")),
			SourceRef:            get("source_file"),
		}
		if arr, ok := utils.ParseISODate(get("arrDate")); ok {
			rec.ArrivalDate = &arr
		}
		if t, ok := utils.ParseClock(get("depTime")); ok {
			rec.DepartureTime = t
		}
		if t, ok := utils.ParseClock(get("arrTime")); ok {
			rec.ArrivalTime = t
		}
		if scraped, ok := utils.ParseISODate(get("scraped_date")); ok {
			rec.ScrapeDate = scraped
		}
		records = append(records, rec)
	}
	return records, skipped
}
