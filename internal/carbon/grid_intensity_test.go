package carbon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetGridIntensity(t *testing.T) {
	tests := []struct {
		region string
		want   float64
		found  bool
	}{
		{"us-east-1", 379, true},
		{"eu-north-1", 8.8, true},
		{"ap-south-1", 708, true},
		{"US-EAST-1", 379, true},
		{"  eu-west-1 ", 278.6, true},
		{"us-average", DefaultGridIntensity, true},
		{"unknown-region", DefaultGridIntensity, false},
		{"", DefaultGridIntensity, false},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			got, ok := GetGridIntensity(tt.region)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestGridIntensity_AllWithinValidRange checks every embedded value is a
// physically plausible gCO2e/kWh figure.
func TestGridIntensity_AllWithinValidRange(t *testing.T) {
	regions := GridIntensityRegions()
	require.NotEmpty(t, regions)

	for _, r := range regions {
		t.Run(r.Region, func(t *testing.T) {
			assert.GreaterOrEqual(t, r.Intensity, 0.0)
			assert.LessOrEqual(t, r.Intensity, 2000.0)
			assert.NotEmpty(t, r.Location)
		})
	}
}

func TestGridIntensityRegions_Sorted(t *testing.T) {
	regions := GridIntensityRegions()
	for i := 1; i < len(regions); i++ {
		assert.Less(t, regions[i-1].Region, regions[i].Region)
	}
}

func TestGridIntensity_CleanerGridLowersCarbon(t *testing.T) {
	sweden, _ := GetGridIntensity("eu-north-1")
	mumbai, _ := GetGridIntensity("ap-south-1")

	clean, err := Assess(wastefulSample, DefaultCoefficients().WithGridIntensity(sweden))
	require.NoError(t, err)
	dirty, err := Assess(wastefulSample, DefaultCoefficients().WithGridIntensity(mumbai))
	require.NoError(t, err)

	assert.Equal(t, clean.Energy, dirty.Energy, "grid intensity must not change energy")
	assert.Greater(t, dirty.Carbon.TotalG, clean.Carbon.TotalG*10)
}
