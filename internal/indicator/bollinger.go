package indicator

import "math"

// Bands holds Bollinger band series aligned with SMA output
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger returns bands at deviation population standard deviations around SMA(period).
// Each stddev is taken over the same trailing window as its SMA point.
func Bollinger(prices []float64, period int, deviation float64) Bands {
	middle := SMA(prices, period)
	if middle == nil {
		return Bands{}
	}
	bands := Bands{
		Upper:  make([]float64, len(middle)),
		Middle: middle,
		Lower:  make([]float64, len(middle)),
	}
	for i, mean := range middle {
		window := prices[i : i+period]
		variance := 0.0
		for _, p := range window {
			diff := p - mean
			variance += diff * diff
		}
		std := math.Sqrt(variance / float64(period))
		bands.Upper[i] = mean + deviation*std
		bands.Lower[i] = mean - deviation*std
	}
	return bands
}

// Len returns the number of band points
func (b Bands) Len() int {
	return len(b.Middle)
}
