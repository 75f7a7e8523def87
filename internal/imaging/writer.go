package imaging

import (
	"fmt"
	"io"
	"os"

	"github.com/astrogo/fitsio"
)

// WriteFITS encodes img as a single-HDU FITS file with BITPIX -64.
//
// The unit tag is stored in the BUNIT keyword so that Load with an empty unit
// restores it.
func WriteFITS(w io.Writer, img *Image) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("failed to create FITS stream: %w", err)
	}
	defer f.Close()

	hdu := fitsio.NewImage(-64, []int{img.Width, img.Height})
	defer hdu.Close()

	if img.Unit != "" {
		err = hdu.Header().Append(fitsio.Card{
			Name:    "BUNIT",
			Value:   img.Unit,
			Comment: "pixel intensity unit",
		})
		if err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	data := make([]float64, len(img.Data))
	copy(data, img.Data)
	if err := hdu.Write(&data); err != nil {
		return fmt.Errorf("failed to write pixel data: %w", err)
	}

	if err := f.Write(hdu); err != nil {
		return fmt.Errorf("failed to write HDU: %w", err)
	}
	return nil
}

// SaveFITS writes img to path, replacing any existing file.
func SaveFITS(path string, img *Image) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteFITS(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
