package detection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/starfinder-mcp/internal/imaging"
)

var fieldStars = []imaging.Star{
	{X: 15.3, Y: 20.6, Amplitude: 2500, FWHM: 3},
	{X: 44.7, Y: 12.2, Amplitude: 4000, FWHM: 3},
	{X: 30.4, Y: 45.1, Amplitude: 1500, FWHM: 3},
	{X: 52.2, Y: 50.8, Amplitude: 3000, FWHM: 3},
	{X: 10.6, Y: 52.3, Amplitude: 1000, FWHM: 3},
}

// residualField returns a noisy field with the known stars, minus its
// background level.
func residualField(t *testing.T, stars []imaging.Star) (*imaging.Plane, float64) {
	t.Helper()
	img := imaging.SyntheticField(imaging.FieldOptions{
		Width: 64, Height: 64, Background: 500, Noise: 10, Seed: 3, Stars: stars,
	})
	st, err := imaging.SigmaClippedStats(img.Plane, imaging.DefaultClipOptions())
	require.NoError(t, err)
	return img.Sub(st.Median), st.StdDev
}

func TestNewDAOKernel(t *testing.T) {
	k, err := newDAOKernel(3, 1.5)
	require.NoError(t, err)

	assert.Equal(t, 2, k.radius)
	assert.Equal(t, 5, k.size)
	// Circular radius <= 2 on a 5x5 grid
	assert.Equal(t, 13, k.npix)
	assert.Equal(t, 0.0, k.mask.At(0, 0))
	assert.Equal(t, 1.0, k.mask.At(2, 0))

	// Zero-mean filter, unit response to the kernel's own Gaussian
	var sum, resp float64
	for i, v := range k.data.Data {
		sum += v
		resp += v * k.gauss.Data[i]
	}
	assert.InDelta(t, 0, sum, 1e-12)
	assert.InDelta(t, 1, resp, 1e-12)
	assert.Greater(t, k.relerr, 0.0)
}

func TestDAOFind_RecoversStars(t *testing.T) {
	residual, std := residualField(t, fieldStars)

	sources, err := DAOFind(residual, DefaultDAOOptions(5*std, 3))
	require.NoError(t, err)
	require.Len(t, sources, len(fieldStars))

	for _, star := range fieldStars {
		best := math.Inf(1)
		for _, s := range sources {
			d := math.Hypot(s.XCentroid-star.X, s.YCentroid-star.Y)
			best = math.Min(best, d)
		}
		assert.Less(t, best, 1.0, "star at (%.1f, %.1f) not recovered", star.X, star.Y)
	}

	for i, s := range sources {
		assert.Equal(t, i+1, s.ID)
		assert.GreaterOrEqual(t, s.Sharpness, 0.2)
		assert.LessOrEqual(t, s.Sharpness, 1.0)
		assert.Equal(t, 13, s.NPix)
	}
}

func TestDAOFind_RasterOrder(t *testing.T) {
	residual, std := residualField(t, fieldStars)

	sources, err := DAOFind(residual, DefaultDAOOptions(5*std, 3))
	require.NoError(t, err)

	for i := 1; i < len(sources); i++ {
		prev, cur := sources[i-1], sources[i]
		assert.LessOrEqual(t, math.Round(prev.YCentroid), math.Round(cur.YCentroid)+1,
			"sources should follow row order of their peaks")
	}
}

func TestDAOFind_CountDecreasesWithThreshold(t *testing.T) {
	residual, std := residualField(t, fieldStars)

	prev := math.MaxInt
	for _, mul := range []float64{0.5, 1, 2, 5, 10, 25, 100, 400} {
		sources, err := DAOFind(residual, DefaultDAOOptions(mul*std, 3))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(sources), prev, "multiplier %v", mul)
		prev = len(sources)
	}
	assert.Zero(t, prev, "a threshold far above every star should find nothing")
}

func TestDAOFind_FlatImage(t *testing.T) {
	flat := imaging.NewPlane(32, 32)

	sources, err := DAOFind(flat, DefaultDAOOptions(0, 3))
	require.NoError(t, err)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
}

func TestDAOFind_RejectsHotPixel(t *testing.T) {
	p := imaging.NewPlane(32, 32)
	p.Set(16, 16, 5000)

	sources, err := DAOFind(p, DefaultDAOOptions(10, 3))
	require.NoError(t, err)
	assert.Empty(t, sources, "single-pixel spikes are too sharp to be stars")
}

func TestDAOFind_TiedPeaksReportedOnce(t *testing.T) {
	// Two equal pixels side by side produce a flat-topped response
	p := imaging.NewPlane(32, 32)
	star := imaging.SyntheticField(imaging.FieldOptions{
		Width: 32, Height: 32,
		Stars: []imaging.Star{{X: 16.5, Y: 16, Amplitude: 1000, FWHM: 3}},
	})
	copy(p.Data, star.Data)

	sources, err := DAOFind(p, DefaultDAOOptions(1, 3))
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.InDelta(t, 16.5, sources[0].XCentroid, 0.5)
}

func TestDAOFind_NonFinitePixels(t *testing.T) {
	residual, std := residualField(t, fieldStars[:1])
	residual.Set(0, 0, math.NaN())
	residual.Set(63, 63, math.Inf(1))

	sources, err := DAOFind(residual, DefaultDAOOptions(5*std, 3))
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestDAOFind_Options(t *testing.T) {
	residual, std := residualField(t, fieldStars)

	t.Run("brightest", func(t *testing.T) {
		opts := DefaultDAOOptions(5*std, 3)
		opts.Brightest = 2
		sources, err := DAOFind(residual, opts)
		require.NoError(t, err)
		require.Len(t, sources, 2)
		for _, s := range sources {
			assert.Greater(t, s.Peak, 2000.0)
		}
		assert.Equal(t, 1, sources[0].ID)
		assert.Equal(t, 2, sources[1].ID)
	})

	t.Run("peak max", func(t *testing.T) {
		opts := DefaultDAOOptions(5*std, 3)
		opts.PeakMax = 2000
		sources, err := DAOFind(residual, opts)
		require.NoError(t, err)
		assert.Len(t, sources, 2)
	})

	t.Run("exclude border", func(t *testing.T) {
		edge := imaging.SyntheticField(imaging.FieldOptions{
			Width: 32, Height: 32,
			Stars: []imaging.Star{{X: 1, Y: 16, Amplitude: 1000, FWHM: 3}},
		})
		opts := DefaultDAOOptions(1, 3)
		opts.ExcludeBorder = true
		sources, err := DAOFind(edge.Plane, opts)
		require.NoError(t, err)
		assert.Empty(t, sources)
	})
}

func TestDAOFind_InvalidOptions(t *testing.T) {
	p := imaging.NewPlane(8, 8)

	tests := []struct {
		name   string
		modify func(*DAOOptions)
	}{
		{"negative threshold", func(o *DAOOptions) { o.Threshold = -1 }},
		{"NaN threshold", func(o *DAOOptions) { o.Threshold = math.NaN() }},
		{"zero fwhm", func(o *DAOOptions) { o.FWHM = 0 }},
		{"inverted sharpness", func(o *DAOOptions) { o.SharpLo, o.SharpHi = 1, 0.2 }},
		{"inverted roundness", func(o *DAOOptions) { o.RoundLo, o.RoundHi = 1, -1 }},
		{"negative brightest", func(o *DAOOptions) { o.Brightest = -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultDAOOptions(1, 3)
			tt.modify(&opts)
			_, err := DAOFind(p, opts)
			assert.Error(t, err)
		})
	}
}
