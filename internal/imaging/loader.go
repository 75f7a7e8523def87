package imaging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/astrogo/fitsio"
)

// DefaultUnit is the intensity unit applied to loaded images when none is
// configured.
const DefaultUnit = "adu"

// FileFormatError reports that a path could not be read as a FITS image.
//
// It is returned for missing files, content that is not FITS, and FITS files
// that hold no 2D image in the primary HDU or, when the primary is empty, in
// an image extension.
type FileFormatError struct {
	Path string
	Err  error
}

func (e *FileFormatError) Error() string {
	return fmt.Sprintf("cannot read FITS image %q: %v", e.Path, e.Err)
}

func (e *FileFormatError) Unwrap() error {
	return e.Err
}

// Image is a loaded FITS image: a 2D plane of intensities plus a unit tag.
//
// An Image is treated as immutable once loaded.
type Image struct {
	*Plane

	// Unit is the physical unit applied uniformly to every pixel.
	Unit string

	// Path is the file the image was read from.
	Path string

	// Bitpix is the FITS BITPIX of the stored data (8, 16, 32, 64, -32, -64).
	Bitpix int
}

// NewImage wraps an existing plane as an image. It is mostly useful for
// synthetic data; files go through Load.
func NewImage(p *Plane, unit string) *Image {
	if unit == "" {
		unit = DefaultUnit
	}
	return &Image{Plane: p, Unit: unit, Bitpix: -64}
}

// Load reads the primary HDU of the FITS file at path. A primary HDU without
// data (NAXIS=0) defers to the first image extension with at least two axes.
//
// Integer data is scaled with the BZERO and BSCALE header keywords. The image
// must be two dimensional; trailing axes of length one are accepted. An empty
// unit falls back to the BUNIT keyword, then to DefaultUnit. All failures are
// reported as *FileFormatError.
func Load(path, unit string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileFormatError{Path: path, Err: err}
	}
	defer f.Close()

	fits, err := fitsio.Open(f)
	if err != nil {
		return nil, &FileFormatError{Path: path, Err: err}
	}
	defer fits.Close()

	hdu, err := imageHDU(fits)
	if err != nil {
		return nil, &FileFormatError{Path: path, Err: err}
	}

	plane, bitpix, err := readPlane(hdu)
	if err != nil {
		return nil, &FileFormatError{Path: path, Err: err}
	}
	if unit == "" {
		unit = headerString(hdu.Header(), "BUNIT", DefaultUnit)
	}

	return &Image{Plane: plane, Unit: unit, Path: path, Bitpix: bitpix}, nil
}

// imageHDU picks the HDU holding the image data.
func imageHDU(fits *fitsio.File) (fitsio.Image, error) {
	hdus := fits.HDUs()
	if len(hdus) == 0 {
		return nil, fmt.Errorf("no HDUs")
	}
	primary, ok := hdus[0].(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("primary HDU is not an image")
	}
	if len(primary.Header().Axes()) > 0 {
		return primary, nil
	}
	for i, hdu := range hdus[1:] {
		img, ok := hdu.(fitsio.Image)
		if !ok || len(img.Header().Axes()) < 2 {
			continue
		}
		log.Printf("Primary HDU has no data, using image extension %d (%q)", i+1, img.Name())
		return img, nil
	}
	return nil, fmt.Errorf("primary HDU has no data and no image extension follows")
}

// readPlane decodes the data of an image HDU into a float64 plane.
func readPlane(hdu fitsio.Image) (*Plane, int, error) {
	hdr := hdu.Header()
	axes := hdr.Axes()
	if len(axes) < 2 {
		return nil, 0, fmt.Errorf("expected a 2D image, got NAXIS=%d", len(axes))
	}
	for i, n := range axes[2:] {
		if n != 1 {
			return nil, 0, fmt.Errorf("expected a 2D image, NAXIS%d=%d", i+3, n)
		}
	}
	width, height := axes[0], axes[1]
	if width <= 0 || height <= 0 {
		return nil, 0, fmt.Errorf("empty image %dx%d", width, height)
	}
	n := width * height

	data := make([]float64, n)
	bitpix := hdr.Bitpix()
	switch bitpix {
	case 8:
		raw := make([]uint8, n)
		if err := hdu.Read(&raw); err != nil {
			return nil, 0, err
		}
		for i, v := range raw {
			data[i] = float64(v)
		}
	case 16:
		raw := make([]int16, n)
		if err := hdu.Read(&raw); err != nil {
			return nil, 0, err
		}
		for i, v := range raw {
			data[i] = float64(v)
		}
	case 32:
		raw := make([]int32, n)
		if err := hdu.Read(&raw); err != nil {
			return nil, 0, err
		}
		for i, v := range raw {
			data[i] = float64(v)
		}
	case 64:
		raw := make([]int64, n)
		if err := hdu.Read(&raw); err != nil {
			return nil, 0, err
		}
		for i, v := range raw {
			data[i] = float64(v)
		}
	case -32:
		raw := make([]float32, n)
		if err := hdu.Read(&raw); err != nil {
			return nil, 0, err
		}
		for i, v := range raw {
			data[i] = float64(v)
		}
	case -64:
		if err := hdu.Read(&data); err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}

	bzero := headerFloat(hdr, "BZERO", 0)
	bscale := headerFloat(hdr, "BSCALE", 1)
	if bzero != 0 || bscale != 1 {
		for i, v := range data {
			data[i] = v*bscale + bzero
		}
	}

	return &Plane{Width: width, Height: height, Data: data}, bitpix, nil
}

// headerFloat reads a numeric header card, falling back to def when the card
// is missing or not numeric.
func headerFloat(hdr *fitsio.Header, key string, def float64) float64 {
	card := hdr.Get(key)
	if card == nil {
		return def
	}
	switch v := card.Value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	default:
		return def
	}
}

func headerString(hdr *fitsio.Header, key, def string) string {
	card := hdr.Get(key)
	if card == nil {
		return def
	}
	if v, ok := card.Value.(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// ImageCache provides thread-safe caching of loaded images to avoid redundant
// disk reads.
//
// Images are keyed by the exact path string passed to Load; different spellings
// of the same file produce separate entries. Cached images remain in memory
// until Evict or Clear.
type ImageCache struct {
	mu     sync.RWMutex
	unit   string
	images map[string]*Image
}

// NewImageCache creates an empty cache that tags loaded images with unit.
func NewImageCache(unit string) *ImageCache {
	if unit == "" {
		unit = DefaultUnit
	}
	return &ImageCache{
		unit:   unit,
		images: make(map[string]*Image),
	}
}

// Load retrieves an image from the cache or reads it from disk if not cached.
func (c *ImageCache) Load(path string) (*Image, error) {
	return c.LoadWithUnit(path, "")
}

// LoadWithUnit is Load with an explicit unit tag for images not yet cached.
// An empty unit uses the cache default. A cached image keeps the unit it was
// first loaded with.
func (c *ImageCache) LoadWithUnit(path, unit string) (*Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	if unit == "" {
		unit = c.unit
	}
	img, err := Load(path, unit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path. Unknown paths
// are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded FITS image.
type ImageInfo struct {
	// Width is NAXIS1, the number of columns.
	Width int `json:"width"`

	// Height is NAXIS2, the number of rows.
	Height int `json:"height"`

	// Bitpix is the FITS storage type of the pixel data.
	Bitpix int `json:"bitpix"`

	// Unit is the intensity unit tag of the image.
	Unit string `json:"unit"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:         img.Width,
		Height:        img.Height,
		Bitpix:        img.Bitpix,
		Unit:          img.Unit,
		FileSizeBytes: stat.Size(),
	}, nil
}
