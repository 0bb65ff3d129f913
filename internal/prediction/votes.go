package prediction

import (
	"math"

	"github.com/yourusername/tradesim/internal/indicator"
	"github.com/yourusername/tradesim/internal/models"
)

// Vote is one sub-model's directional call with a strength in [0, 1]
type Vote struct {
	Direction models.Direction `json:"direction"`
	Strength  float64          `json:"strength"`
}

var neutral = Vote{Direction: models.DirectionNeutral}

// Sub-model parameters
const (
	macdFast          = 12
	macdSlow          = 26
	macdSignal        = 9
	rsiPeriod         = 14
	bollingerPeriod   = 20
	bollingerDev      = 2.0
	squeezeBandwidth  = 0.1
	volumeLookback    = 10
	maxMomentumVote   = 0.7
	maxBreakoutVote   = 0.6
	squeezeVote       = 0.8
	volumeUpThreshold = 0.6
	volumeDnThreshold = 0.4
)

// MACDVote compares the latest MACD line to its signal line
func MACDVote(prices []float64) Vote {
	m := indicator.MACD(prices, macdFast, macdSlow, macdSignal)
	if m.Len() == 0 {
		return neutral
	}
	last := m.Len() - 1
	line, signal, hist := m.MACD[last], m.Signal[last], m.Histogram[last]
	strength := math.Min(math.Abs(hist)*10, 1)

	switch {
	case line > signal && hist > 0:
		return Vote{Direction: models.DirectionUp, Strength: strength}
	case line < signal && hist < 0:
		return Vote{Direction: models.DirectionDown, Strength: strength}
	}
	return neutral
}

// RSIVote reads momentum from the last two RSI(14) values
func RSIVote(prices []float64) Vote {
	rsi := indicator.RSI(prices, rsiPeriod)
	if len(rsi) < 2 {
		return neutral
	}
	r, prev := rsi[len(rsi)-1], rsi[len(rsi)-2]
	rising, falling := r > prev, r < prev

	switch {
	case r < 30 && rising:
		return Vote{Direction: models.DirectionUp, Strength: (30 - r) / 30}
	case r > 70 && falling:
		return Vote{Direction: models.DirectionDown, Strength: (r - 70) / 30}
	case r > 50 && rising:
		return Vote{Direction: models.DirectionUp, Strength: math.Min((r-50)/50, maxMomentumVote)}
	case r < 50 && falling:
		return Vote{Direction: models.DirectionDown, Strength: math.Min((50-r)/50, maxMomentumVote)}
	}
	return neutral
}

// BollingerVote looks for a squeeze, and otherwise for a breakout through the bands
func BollingerVote(prices []float64) Vote {
	bands := indicator.Bollinger(prices, bollingerPeriod, bollingerDev)
	if bands.Len() == 0 {
		return neutral
	}
	last := bands.Len() - 1
	upper, middle, lower := bands.Upper[last], bands.Middle[last], bands.Lower[last]
	price := prices[len(prices)-1]
	if middle <= 0 {
		return neutral
	}

	if (upper-lower)/middle < squeezeBandwidth {
		position := 0.5
		if width := upper - lower; width > 0 {
			position = (price - lower) / width
		}
		switch {
		case position > 0.6:
			return Vote{Direction: models.DirectionUp, Strength: squeezeVote}
		case position < 0.4:
			return Vote{Direction: models.DirectionDown, Strength: squeezeVote}
		}
		return neutral
	}

	switch {
	case price > upper:
		return Vote{Direction: models.DirectionUp, Strength: math.Min((price-upper)/upper, maxBreakoutVote)}
	case price < lower && lower > 0:
		return Vote{Direction: models.DirectionDown, Strength: math.Min((lower-price)/lower, maxBreakoutVote)}
	}
	return neutral
}

// VolumeVote weighs volume on up bars against volume on down bars over the last ten bars
func VolumeVote(prices, volumes []float64) Vote {
	if len(prices) < volumeLookback || len(volumes) < volumeLookback {
		return neutral
	}
	p := prices[len(prices)-volumeLookback:]
	v := volumes[len(volumes)-volumeLookback:]

	upVolume, downVolume := 0.0, 0.0
	for i := 1; i < len(p); i++ {
		switch {
		case p[i] > p[i-1]:
			upVolume += v[i]
		case p[i] < p[i-1]:
			downVolume += v[i]
		}
	}
	total := upVolume + downVolume
	if total == 0 {
		return neutral
	}

	ratio := upVolume / total
	switch {
	case ratio > volumeUpThreshold:
		return Vote{Direction: models.DirectionUp, Strength: (ratio - 0.5) * 2}
	case ratio < volumeDnThreshold:
		return Vote{Direction: models.DirectionDown, Strength: (0.5 - ratio) * 2}
	}
	return neutral
}
