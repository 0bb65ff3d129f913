package indicator

// MACDSeries holds full-length MACD line, signal line and histogram
type MACDSeries struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes EMA(fast)-EMA(slow), its EMA(signal) signal line and the histogram between them.
// All three series have the same length as prices.
func MACD(prices []float64, fast, slow, signal int) MACDSeries {
	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)
	if fastEMA == nil || slowEMA == nil || signal <= 0 {
		return MACDSeries{}
	}

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := EMA(line, signal)
	histogram := make([]float64, len(prices))
	for i := range line {
		histogram[i] = line[i] - signalLine[i]
	}

	return MACDSeries{MACD: line, Signal: signalLine, Histogram: histogram}
}

// Len returns the number of points
func (m MACDSeries) Len() int {
	return len(m.MACD)
}
