package usecase

import (
	"strings"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/reference"
	"airfare-collector/pkg/logger"
	"airfare-collector/pkg/metrics"
	"airfare-collector/pkg/utils"
)

// Normalizer turns portal offers into canonical fare records using injected reference tables
type Normalizer struct {
	tables  reference.Tables
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewNormalizer creates a new normalizer
func NewNormalizer(tables reference.Tables, metrics *metrics.Metrics, logger logger.Logger) *Normalizer {
	return &Normalizer{
		tables:  tables,
		metrics: metrics,
		logger:  logger,
	}
}

// Normalize converts rows in input order. Rows without a usable departure date are skipped.
func (n *Normalizer) Normalize(rows []entity.FlightRow) ([]entity.FlightRecord, entity.NormalizeSummary) {
	summary := entity.NormalizeSummary{Input: len(rows)}
	records := make([]entity.FlightRecord, 0, len(rows))

	for _, row := range rows {
		rec, ok := n.fromRow(row)
		if !ok {
			summary.Skipped++
			n.logger.Debug("Skipping offer without departure date",
				"source", row.Provenance.SourceRef,
				"code", row.Offer.Code.Value,
				"depDate", row.Offer.DepDate.Value,
			)
			continue
		}
		records = append(records, rec)
	}
	summary.Output = len(records)

	n.metrics.AddRows("normalize", "ok", summary.Output)
	n.metrics.AddRows("normalize", "skipped", summary.Skipped)
	if summary.Skipped > 0 {
		n.logger.Warn("Offers skipped during normalization", "skipped", summary.Skipped)
	}
	n.logger.Info("Normalized offers", "input", summary.Input, "output", summary.Output)
	return records, summary
}

func (n *Normalizer) fromRow(row entity.FlightRow) (entity.FlightRecord, bool) {
	o := row.Offer

	dep, ok := utils.ParseCompactDate(o.DepDate.Value)
	if !ok {
		return entity.FlightRecord{}, false
	}

	rec := entity.FlightRecord{
		AgencyCode: clean(row.AgencyCode),
		FlightCode: clean(o.Code.Value),

		DepartureDate:   dep,
		OriginCode:      clean(o.DepCity.Value),
		OriginName:      clean(o.DepDesc.Value),
		DestinationCode: clean(o.ArrCity.Value),
		DestinationName: clean(o.ArrDesc.Value),

		MarketingCarrierCode: clean(o.CarCode.Value),
		MarketingCarrierName: clean(o.CarDesc.Value),
		OperatingCarrierCode: clean(o.OpCarCode.Value),
		OperatingCarrierName: clean(o.OpCarDesc.Value),
		FlightNumber:         clean(o.MainFlt.Value),

		SeatClassCode:        clean(o.ClassCode.Value),
		SeatClassDescription: clean(o.ClassDesc.Value),
		Seats:                utils.CoerceInt(o.Seat.Value),

		Fare:          utils.CoerceInt(o.Fare.Value),
		FareOrigin:    utils.CoerceInt(o.FareOrigin.Value),
		FuelSurcharge: utils.CoerceInt(o.FuelChg.Value),
		AirportTax:    utils.CoerceInt(o.AirTax.Value),
		IssuanceFee:   utils.CoerceInt(o.Tasf.Value),

		ScrapeDate: row.Provenance.ScrapeDate,
		SourceRef:  row.Provenance.SourceRef,
	}
	if arr, ok := utils.ParseCompactDate(o.ArrDate.Value); ok {
		rec.ArrivalDate = &arr
	}
	if t, ok := utils.ParseCompactClock(o.DepTime.Value); ok {
		rec.DepartureTime = t
	}
	if t, ok := utils.ParseCompactClock(o.ArrTime.Value); ok {
		rec.ArrivalTime = t
	}

	return n.Canonicalize(rec), true
}

// Canonicalize applies the name, carrier and price rules to a record.
// Applying it to its own output changes nothing.
func (n *Normalizer) Canonicalize(rec entity.FlightRecord) entity.FlightRecord {
	rec.AgencyCode = clean(rec.AgencyCode)
	rec.FlightCode = clean(rec.FlightCode)
	rec.FlightNumber = clean(rec.FlightNumber)
	rec.SeatClassCode = clean(rec.SeatClassCode)
	rec.SeatClassDescription = clean(rec.SeatClassDescription)
	rec.SourceRef = clean(rec.SourceRef)

	rec.OriginCode = strings.ToUpper(clean(rec.OriginCode))
	rec.DestinationCode = strings.ToUpper(clean(rec.DestinationCode))
	rec.OriginName = n.placeName(rec.OriginName, rec.OriginCode)
	rec.DestinationName = n.placeName(rec.DestinationName, rec.DestinationCode)

	if !rec.DepartureDate.IsZero() {
		rec.DepartureWeekday = utils.Weekday(rec.DepartureDate)
	}
	rec.ArrivalWeekday = ""
	if rec.ArrivalDate != nil && !rec.ArrivalDate.IsZero() {
		rec.ArrivalWeekday = utils.Weekday(*rec.ArrivalDate)
	}

	n.reconcileCarrier(&rec)

	rec.TotalPrice = rec.ComputeTotal()
	return rec
}

// placeName maps known variants to the display name; a blank name falls back to the airport code
func (n *Normalizer) placeName(name, code string) string {
	name = clean(name)
	if name == "" {
		return n.tables.PlaceNames[code]
	}
	if canonical, ok := n.tables.PlaceNames[name]; ok {
		return canonical
	}
	return name
}

func (n *Normalizer) reconcileCarrier(rec *entity.FlightRecord) {
	code := strings.ToUpper(clean(rec.MarketingCarrierCode))
	name := clean(rec.MarketingCarrierName)
	if alias, ok := n.tables.CarrierAliases[name]; ok {
		name = alias
	}
	rec.MarketingCarrierCode = code
	rec.OperatingCarrierCode = strings.ToUpper(clean(rec.OperatingCarrierCode))
	rec.OperatingCarrierName = clean(rec.OperatingCarrierName)

	official, known := n.tables.Airlines[code]

	// Upstream operating fields are not trusted for this carrier
	if special := n.tables.SpecialCarrier; special.Code != "" && code == special.Code {
		if name == "" && rec.OperatingCarrierName == special.Alias {
			name = special.Alias
		}
		if name == "" {
			name = official
		}
		rec.MarketingCarrierName = name
		rec.OperatingCarrierCode = ""
		rec.OperatingCarrierName = ""
		return
	}

	if known {
		switch {
		case name == "":
			name = official
		case name != official:
			// Codeshare: upstream named the operating carrier
			if operator, ok := n.tables.CodeshareOperators[code]; ok {
				rec.OperatingCarrierCode = operator
			}
			rec.OperatingCarrierName = name
			name = official
		}
	}
	rec.MarketingCarrierName = name

	if rec.OperatingCarrierCode != "" && rec.OperatingCarrierName == "" {
		rec.OperatingCarrierName = n.tables.Airlines[rec.OperatingCarrierCode]
	}
}

func clean(value string) string {
	return utils.CleanString(value)
}
