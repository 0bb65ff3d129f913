package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by price series
const DateLayout = "2006-01-02"

// PricePoint is one daily bar of a historical series
type PricePoint struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// Time parses the bar date
func (p PricePoint) Time() (time.Time, error) {
	return time.Parse(DateLayout, p.Date)
}

// Stock identifies an instrument and its latest known price
type Stock struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name,omitempty"`
	Sector string  `json:"sector,omitempty"`
	Price  float64 `json:"price"`
}

// Series splits bars into parallel price, date and volume slices
func Series(bars []PricePoint) (prices []float64, dates []string, volumes []float64) {
	prices = make([]float64, len(bars))
	dates = make([]string, len(bars))
	volumes = make([]float64, len(bars))
	for i, bar := range bars {
		prices[i] = bar.Price
		dates[i] = bar.Date
		volumes[i] = float64(bar.Volume)
	}
	return prices, dates, volumes
}

// ValidateSeries checks ordering, uniqueness and price positivity of a series
func ValidateSeries(bars []PricePoint) error {
	prev := ""
	for i, bar := range bars {
		if bar.Price <= 0 {
			return fmt.Errorf("bar %d (%s): price must be positive", i, bar.Date)
		}
		if bar.Volume < 0 {
			return fmt.Errorf("bar %d (%s): volume cannot be negative", i, bar.Date)
		}
		if i > 0 && bar.Date <= prev {
			return fmt.Errorf("bar %d (%s): dates must be strictly ascending", i, bar.Date)
		}
		prev = bar.Date
	}
	return nil
}
