package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/models"
)

const csvName = "csv"

// CSVSource serves history from a wide CSV of monthly closes (Date,SYM1,SYM2,...).
// Monthly points are interpolated to weekday bars on first use and kept for the life of the source.
type CSVSource struct {
	raw     map[string][]models.PricePoint
	symbols []string
	logger  *logrus.Entry

	mu    sync.Mutex
	rng   *rand.Rand
	daily map[string][]models.PricePoint
}

// NewCSVSource loads the CSV file at path
func NewCSVSource(path string, rng *rand.Rand, logger *logrus.Logger) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open historical data: %w", err)
	}
	defer f.Close()
	return NewCSVSourceFromReader(f, rng, logger)
}

// NewCSVSourceFromReader parses CSV content from r
func NewCSVSourceFromReader(r io.Reader, rng *rand.Rand, logger *logrus.Logger) (*CSVSource, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if rng == nil {
		rng = NewRand(0)
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, NewDataSourceError(csvName, ErrCodeInvalidData, "failed to parse CSV", err)
	}
	if len(records) == 0 || len(records[0]) < 2 || !strings.EqualFold(records[0][0], "date") {
		return nil, NewDataSourceError(csvName, ErrCodeInvalidData, "expected a Date column followed by symbols", ErrInvalidData)
	}

	header := records[0]
	symbols := make([]string, 0, len(header)-1)
	for _, s := range header[1:] {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
	}

	raw := make(map[string][]models.PricePoint, len(symbols))
	for line, row := range records[1:] {
		date := strings.TrimSpace(row[0])
		if date == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return nil, NewDataSourceError(csvName, ErrCodeInvalidData, fmt.Sprintf("line %d: bad date %q", line+2, date), ErrInvalidData)
		}
		for col, symbol := range symbols {
			if col+1 >= len(row) {
				break
			}
			cell := strings.TrimSpace(row[col+1])
			if cell == "" {
				continue
			}
			price, err := strconv.ParseFloat(cell, 64)
			if err != nil || price <= 0 {
				continue
			}
			raw[symbol] = append(raw[symbol], models.PricePoint{
				Date:   date,
				Price:  price,
				Volume: 500000 + rng.Int63n(1000000),
			})
		}
	}
	for _, points := range raw {
		sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	}

	logger.WithField("component", "datasource").Infof("Historical data loaded for %d stocks", len(symbols))

	return &CSVSource{
		raw:     raw,
		symbols: symbols,
		logger:  logger.WithField("component", "datasource").WithField("source", csvName),
		rng:     rng,
		daily:   make(map[string][]models.PricePoint),
	}, nil
}

// Name returns the name of the data source
func (s *CSVSource) Name() string {
	return csvName
}

// Symbols returns the symbols present in the file, in column order
func (s *CSVSource) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// GetHistoricalData returns interpolated daily bars within [start, end]. An unknown symbol yields no bars.
func (s *CSVSource) GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	daily := s.dailyBars(strings.ToUpper(symbol))

	out := make([]models.PricePoint, 0, len(daily))
	for _, bar := range daily {
		if inRange(bar.Date, start, end) {
			out = append(out, bar)
		}
	}
	return out, nil
}

// GetLatestQuote returns the last monthly point for the symbol
func (s *CSVSource) GetLatestQuote(ctx context.Context, symbol string) (models.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return models.PricePoint{}, err
	}
	points := s.raw[strings.ToUpper(symbol)]
	if len(points) == 0 {
		return models.PricePoint{}, NewDataSourceError(csvName, ErrCodeNotFound, "no data for "+symbol, ErrNotFound)
	}
	return points[len(points)-1], nil
}

func (s *CSVSource) dailyBars(symbol string) []models.PricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bars, ok := s.daily[symbol]; ok {
		return bars
	}
	bars := interpolateDaily(s.raw[symbol], s.rng)
	s.daily[symbol] = bars
	s.logger.WithFields(logrus.Fields{"symbol": symbol, "points": len(s.raw[symbol]), "bars": len(bars)}).Debug("Interpolated daily bars")
	return bars
}

// interpolateDaily walks each gap between consecutive points a calendar day at a time, emitting weekday bars on
// the straight line between them with ±1% jitter. The final point is appended as is.
func interpolateDaily(points []models.PricePoint, rng *rand.Rand) []models.PricePoint {
	if len(points) == 0 {
		return nil
	}

	var out []models.PricePoint
	for i := 0; i < len(points)-1; i++ {
		from, err := points[i].Time()
		if err != nil {
			continue
		}
		to, err := points[i+1].Time()
		if err != nil {
			continue
		}
		days := int(to.Sub(from).Hours() / 24)
		if days <= 0 {
			continue
		}
		step := (points[i+1].Price - points[i].Price) / float64(days)

		for day := 0; day < days; day++ {
			date := from.AddDate(0, 0, day)
			if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
			price := points[i].Price + step*float64(day)
			out = append(out, models.PricePoint{
				Date:   date.Format(models.DateLayout),
				Price:  price * (1 + (rng.Float64()-0.5)*0.02),
				Volume: 500000 + rng.Int63n(500000),
			})
		}
	}
	out = append(out, points[len(points)-1])
	return out
}
