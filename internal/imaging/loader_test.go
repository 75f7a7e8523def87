package imaging

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/astrogo/fitsio"
)

// createTestFITS writes a small gradient image to a temp FITS file and returns
// its path. The file is removed when the test ends.
func createTestFITS(t *testing.T, width, height int, unit string) string {
	t.Helper()
	p := NewPlane(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p.Set(x, y, float64(100*y+x))
		}
	}
	img := NewImage(p, unit)

	path := filepath.Join(t.TempDir(), "test-image.fits")
	if err := SaveFITS(path, img); err != nil {
		t.Fatalf("failed to write FITS: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := createTestFITS(t, 40, 30, "adu")

	img, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if img.Width != 40 || img.Height != 30 {
		t.Errorf("unexpected dimensions: got %dx%d, want 40x30", img.Width, img.Height)
	}
	if img.Bitpix != -64 {
		t.Errorf("Bitpix: got %d, want -64", img.Bitpix)
	}
	if img.Unit != "adu" {
		t.Errorf("Unit: got %q, want adu", img.Unit)
	}
	if got := img.At(7, 12); got != 1207 {
		t.Errorf("At(7,12): got %v, want 1207", got)
	}
	if img.Path != path {
		t.Errorf("Path: got %q, want %q", img.Path, path)
	}
}

func TestLoad_ExplicitUnitWins(t *testing.T) {
	path := createTestFITS(t, 8, 8, "electron")

	img, err := Load(path, "adu")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Unit != "adu" {
		t.Errorf("Unit: got %q, want adu", img.Unit)
	}

	img, err = Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Unit != "electron" {
		t.Errorf("Unit from BUNIT: got %q, want electron", img.Unit)
	}
}

// createExtensionFITS writes a file whose primary HDU carries no data. When
// ext is set a 4x3 image extension named SCI follows it.
func createExtensionFITS(t *testing.T, ext bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extension.fits")
	w, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		t.Fatalf("failed to create FITS: %v", err)
	}
	defer f.Close()

	primary, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		t.Fatalf("failed to create primary HDU: %v", err)
	}
	if err := f.Write(primary); err != nil {
		t.Fatalf("failed to write primary HDU: %v", err)
	}
	if !ext {
		return path
	}

	hdu := fitsio.NewImage(-64, []int{4, 3})
	if err := hdu.Header().Append(
		fitsio.Card{Name: "EXTNAME", Value: "SCI"},
		fitsio.Card{Name: "BUNIT", Value: "electron"},
	); err != nil {
		t.Fatalf("failed to append cards: %v", err)
	}
	data := make([]float64, 12)
	for i := range data {
		data[i] = float64(10 * i)
	}
	if err := hdu.Write(&data); err != nil {
		t.Fatalf("failed to write data: %v", err)
	}
	if err := f.Write(hdu); err != nil {
		t.Fatalf("failed to write extension: %v", err)
	}
	return path
}

func TestLoad_ImageExtension(t *testing.T) {
	path := createExtensionFITS(t, true)

	img, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Width != 4 || img.Height != 3 {
		t.Errorf("unexpected dimensions: got %dx%d, want 4x3", img.Width, img.Height)
	}
	if got := img.At(1, 2); got != 90 {
		t.Errorf("At(1,2): got %v, want 90", got)
	}
	if img.Unit != "electron" {
		t.Errorf("Unit from extension BUNIT: got %q, want electron", img.Unit)
	}
}

func TestLoad_EmptyPrimaryWithoutExtension(t *testing.T) {
	path := createExtensionFITS(t, false)

	_, err := Load(path, "adu")
	var ffe *FileFormatError
	if !errors.As(err, &ffe) {
		t.Fatalf("expected *FileFormatError, got %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	_, err := Load("/nonexistent/path/to/image.fits", "adu")
	if err == nil {
		t.Fatal("Load should fail for non-existent file")
	}

	var ffe *FileFormatError
	if !errors.As(err, &ffe) {
		t.Fatalf("expected *FileFormatError, got %T", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("FileFormatError should wrap os.ErrNotExist, got %v", ffe.Err)
	}
}

func TestLoad_InvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.fits")
	if err := os.WriteFile(path, []byte("not a fits file"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := Load(path, "adu")
	var ffe *FileFormatError
	if !errors.As(err, &ffe) {
		t.Fatalf("expected *FileFormatError, got %v", err)
	}
	if ffe.Path != path {
		t.Errorf("Path: got %q, want %q", ffe.Path, path)
	}
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache("")
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.images == nil {
		t.Fatal("NewImageCache did not initialize images map")
	}
	if cache.unit != DefaultUnit {
		t.Errorf("default unit: got %q, want %q", cache.unit, DefaultUnit)
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache("adu")
	path := createTestFITS(t, 20, 20, "")

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Second load should return cached image
	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_LoadWithUnit(t *testing.T) {
	cache := NewImageCache("adu")
	path := createTestFITS(t, 10, 10, "")

	img, err := cache.LoadWithUnit(path, "photon")
	if err != nil {
		t.Fatalf("LoadWithUnit failed: %v", err)
	}
	if img.Unit != "photon" {
		t.Errorf("Unit: got %q, want photon", img.Unit)
	}

	// A cached image keeps its first unit
	img, _ = cache.LoadWithUnit(path, "adu")
	if img.Unit != "photon" {
		t.Errorf("cached Unit: got %q, want photon", img.Unit)
	}
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	cache := NewImageCache("adu")
	if _, err := cache.Load("/nonexistent/path/to/image.fits"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	cache.mu.RLock()
	count := len(cache.images)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("failed load should not be cached, got %d entries", count)
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache("adu")
	path := createTestFITS(t, 10, 10, "")

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cache.Evict(path)
	cache.mu.RLock()
	_, exists := cache.images[path]
	cache.mu.RUnlock()
	if exists {
		t.Error("Evict did not remove image from cache")
	}

	// Should not panic
	cache.Evict("/nonexistent/path")

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cache.Clear()
	cache.mu.RLock()
	count := len(cache.images)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", count)
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache("adu")
	path := createTestFITS(t, 16, 16, "")

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache("adu")
	path := createTestFITS(t, 64, 48, "")

	info, err := LoadImageInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}

	if info.Width != 64 {
		t.Errorf("Width: got %d, want 64", info.Width)
	}
	if info.Height != 48 {
		t.Errorf("Height: got %d, want 48", info.Height)
	}
	if info.Unit != "adu" {
		t.Errorf("Unit: got %q, want adu", info.Unit)
	}
	// FITS files are padded to 2880-byte blocks
	if info.FileSizeBytes <= 0 || info.FileSizeBytes%2880 != 0 {
		t.Errorf("FileSizeBytes: got %d, want a positive multiple of 2880", info.FileSizeBytes)
	}
}

func TestLoadImageInfo_NonExistent(t *testing.T) {
	cache := NewImageCache("adu")
	if _, err := LoadImageInfo(cache, "/nonexistent/image.fits"); err == nil {
		t.Error("LoadImageInfo should fail for non-existent file")
	}
}
