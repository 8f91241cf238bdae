package charts

import (
	"image/color"

	"golang.org/x/image/colornames"
)

// Band is a GDP per capita class
type Band string

const (
	BandHigh Band = "high"
	BandMid  Band = "mid"
	BandLow  Band = "low"
)

// Thresholds separate the GDP bands; values strictly above High are high,
// strictly above Mid are mid, everything else is low
type Thresholds struct {
	High float64
	Mid  float64
}

// DefaultThresholds returns the 80000 / 60000 split
func DefaultThresholds() Thresholds {
	return Thresholds{High: 80000, Mid: 60000}
}

// BandFor classifies a GDP per capita value
func BandFor(value float64, t Thresholds) Band {
	switch {
	case value > t.High:
		return BandHigh
	case value > t.Mid:
		return BandMid
	default:
		return BandLow
	}
}

// Color returns the bar colour of the band
func (b Band) Color() color.Color {
	switch b {
	case BandHigh:
		return colornames.Green
	case BandMid:
		return colornames.Gold
	default:
		return colornames.Orange
	}
}

// Bar colours of the coefficient chart
var (
	SignificantColor   color.Color = colornames.Steelblue
	InsignificantColor color.Color = colornames.Lightgray
)

var (
	edgeColor color.Color = colornames.Black
	gridColor color.Color = colornames.Gainsboro
)
