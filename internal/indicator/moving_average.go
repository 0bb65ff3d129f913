// Package indicator implements the technical indicators shared by the signal generators and the prediction ensemble.
//
// All functions are pure. Input that is too short for the requested period yields a nil slice instead of an error.
package indicator

// SMA returns the simple moving average of prices. Output index i covers input bars [i, i+period-1],
// so the result has len(prices)-period+1 values. Requires len(prices) >= period.
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}
	out := make([]float64, 0, len(prices)-period+1)
	for i := period - 1; i < len(prices); i++ {
		sum := 0.0
		for _, p := range prices[i-period+1 : i+1] {
			sum += p
		}
		out = append(out, sum/float64(period))
	}
	return out
}

// EMA returns the exponential moving average of prices, seeded by the first price. Output is full length.
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) == 0 {
		return nil
	}
	multiplier := 2.0 / float64(period+1)
	out := make([]float64, len(prices))
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = (prices[i]-out[i-1])*multiplier + out[i-1]
	}
	return out
}
