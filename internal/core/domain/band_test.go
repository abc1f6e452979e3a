package domain

import "testing"

func TestBandForFrequency(t *testing.T) {
	tests := []struct {
		freq int
		band Band
	}{
		{2412, Band2GHz},
		{2484, Band2GHz},
		{5180, Band5GHz},
		{5885, Band5GHz},
		{5955, Band6GHz},
		{7125, Band6GHz},
		{0, 0},
		{2400, 0},
		{5900, 0},
	}

	for _, tt := range tests {
		if got := BandForFrequency(tt.freq); got != tt.band {
			t.Errorf("BandForFrequency(%d) = %v; want %v", tt.freq, got, tt.band)
		}
	}
}

func TestBandContains(t *testing.T) {
	dual := Band2GHz | Band5GHz
	if !dual.Contains(Band2GHz) {
		t.Error("dual band should contain 2.4 GHz")
	}
	if !dual.Contains(Band2GHz | Band5GHz) {
		t.Error("dual band should contain itself")
	}
	if dual.Contains(Band6GHz) {
		t.Error("dual band should not contain 6 GHz")
	}
}
