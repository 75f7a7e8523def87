package detection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApertureSet(t *testing.T) {
	sources := []Source{
		{ID: 1, XCentroid: 10.2, YCentroid: 4.5},
		{ID: 2, XCentroid: 33, YCentroid: 40.75},
	}

	set, err := NewApertureSet(sources, 7)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, 7.0, set.Radius)
	assert.Equal(t, Aperture{X: 10.2, Y: 4.5, R: 7}, set.Apertures[0])
	assert.Equal(t, Aperture{X: 33, Y: 40.75, R: 7}, set.Apertures[1])
}

func TestNewApertureSet_RadiusOnlyChangesRadius(t *testing.T) {
	sources := []Source{{XCentroid: 1, YCentroid: 2}, {XCentroid: 3, YCentroid: 4}}

	small, err := NewApertureSet(sources, 1)
	require.NoError(t, err)
	large, err := NewApertureSet(sources, 20)
	require.NoError(t, err)

	require.Equal(t, small.Len(), large.Len())
	for i := range small.Apertures {
		assert.Equal(t, small.Apertures[i].X, large.Apertures[i].X)
		assert.Equal(t, small.Apertures[i].Y, large.Apertures[i].Y)
		assert.Equal(t, 20.0, large.Apertures[i].R)
	}
}

func TestNewApertureSet_Empty(t *testing.T) {
	set, err := NewApertureSet(nil, 5)
	require.NoError(t, err)
	assert.Zero(t, set.Len())
	assert.NotNil(t, set.Apertures)
}

func TestNewApertureSet_InvalidRadius(t *testing.T) {
	for _, r := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewApertureSet(nil, r)
		assert.Error(t, err, "radius %v", r)
	}
}

func TestAperture_Bounds(t *testing.T) {
	a := Aperture{X: 5, Y: 5, R: 2}

	x1, y1, x2, y2 := a.Bounds()
	assert.Equal(t, []float64{3, 3, 7, 7}, []float64{x1, y1, x2, y2})
}
