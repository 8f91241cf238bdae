package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/colornames"
)

func TestBandFor(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name  string
		value float64
		band  Band
		color any
	}{
		{"above high", 90000, BandHigh, colornames.Green},
		{"between thresholds", 65000, BandMid, colornames.Gold},
		{"below mid", 50000, BandLow, colornames.Orange},
		{"exactly high is mid", 80000, BandMid, colornames.Gold},
		{"exactly mid is low", 60000, BandLow, colornames.Orange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band := BandFor(tt.value, thresholds)
			assert.Equal(t, tt.band, band)
			assert.Equal(t, tt.color, band.Color())
		})
	}
}

func TestBandFor_CustomThresholds(t *testing.T) {
	thresholds := Thresholds{High: 50, Mid: 10}
	assert.Equal(t, BandHigh, BandFor(51, thresholds))
	assert.Equal(t, BandMid, BandFor(11, thresholds))
	assert.Equal(t, BandLow, BandFor(10, thresholds))
}
