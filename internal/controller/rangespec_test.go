package controller

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	radiusRange = RangeSpec{Min: 1, Max: 20, Step: 1}
	mulRange    = RangeSpec{Min: 0.5, Max: 25, Step: 0.5}
)

func TestRangeSpec_Values(t *testing.T) {
	radii := radiusRange.Values()
	assert.Len(t, radii, 20)
	for i, v := range radii {
		assert.Equal(t, float64(i+1), v)
	}

	muls := mulRange.Values()
	assert.Len(t, muls, 50)
	for i, v := range muls {
		assert.Equal(t, 0.5*float64(i+1), v)
	}
	assert.Equal(t, 25.0, muls[len(muls)-1])
}

func TestRangeSpec_Snap(t *testing.T) {
	tests := []struct {
		name string
		r    RangeSpec
		in   float64
		want float64
	}{
		{"radius exact", radiusRange, 7, 7},
		{"radius rounds down", radiusRange, 3.4, 3},
		{"radius rounds up", radiusRange, 3.6, 4},
		{"radius tie rounds up", radiusRange, 3.5, 4},
		{"radius below min", radiusRange, -2, 1},
		{"radius above max", radiusRange, 25.7, 20},
		{"mul rounds down", mulRange, 0.74, 0.5},
		{"mul rounds up", mulRange, 0.76, 1},
		{"mul zero clamps", mulRange, 0, 0.5},
		{"mul above max", mulRange, 100, 25},
		{"mul infinite", mulRange, math.Inf(1), 25},
		{"mul past int range", mulRange, 1e19, 25},
		{"radius huge", radiusRange, 1e300, 20},
		{"radius negative infinite", radiusRange, math.Inf(-1), 1},
		{"max not on grid", RangeSpec{Min: 0, Max: 10, Step: 3}, 11, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Snap(tt.in))
		})
	}
}

func TestRangeSpec_Contains(t *testing.T) {
	assert.True(t, radiusRange.Contains(1))
	assert.True(t, radiusRange.Contains(20))
	assert.False(t, radiusRange.Contains(0))
	assert.False(t, radiusRange.Contains(21))
	assert.False(t, radiusRange.Contains(2.5))
	assert.False(t, radiusRange.Contains(math.NaN()))

	assert.True(t, mulRange.Contains(0.5))
	assert.True(t, mulRange.Contains(12.5))
	assert.True(t, mulRange.Contains(25))
	assert.False(t, mulRange.Contains(0.25))
	assert.False(t, mulRange.Contains(25.5))
}

func TestRangeSpec_Initial(t *testing.T) {
	assert.Equal(t, 10.0, radiusRange.Initial())
	assert.Equal(t, 12.5, mulRange.Initial())
	assert.Equal(t, 3.0, RangeSpec{Min: 3, Max: 3, Step: 1}.Initial())
}

func TestRangeSpec_Validate(t *testing.T) {
	assert.NoError(t, radiusRange.Validate())
	assert.NoError(t, mulRange.Validate())

	invalid := []RangeSpec{
		{Min: 1, Max: 20, Step: 0},
		{Min: 1, Max: 20, Step: -1},
		{Min: 20, Max: 1, Step: 1},
		{Min: math.NaN(), Max: 1, Step: 1},
		{Min: 0, Max: math.Inf(1), Step: 1},
	}
	for _, r := range invalid {
		assert.Error(t, r.Validate(), "%+v", r)
	}
}
