package pixels

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/tagstore"
)

const thumbnailSampleSize = 4

const (
	displayPrefix = "root.DocumentObjectList.0.ImageDisplayInfo."
	scalePrefix   = "root.ImageList.1.ImageData.Calibrations.Dimension.0."
)

// ContrastLimits returns the display range saved with the document,
// truncated to integers.
func ContrastLimits(store *tagstore.Store) (low, high int, err error) {
	lo, err := store.Float(displayPrefix + "LowLimit")
	if err != nil {
		return 0, 0, attribute(err)
	}
	hi, err := store.Float(displayPrefix + "HighLimit")
	if err != nil {
		return 0, 0, attribute(err)
	}
	return int(lo), int(hi), nil
}

// PixelSize returns the calibrated size of one pixel of the main image
// along x and its unit. The micro sign unit "µm" is reported as "micron".
func PixelSize(store *tagstore.Store) (float64, string, error) {
	scale, err := store.Float(scalePrefix + "Scale")
	if err != nil {
		return 0, "", attribute(err)
	}
	unit, ok := store.Get(scalePrefix + "Units")
	if !ok {
		return 0, "", errors.NotFound(errors.PhasePixels, "tag", scalePrefix+"Units")
	}
	if unit == "µm" {
		unit = "micron"
	}
	return scale, unit, nil
}

// Thumbnail maps plane 0 of f linearly from [low, high] to 8-bit gray,
// clamping values outside the range. If low >= high the plane's own
// minimum and maximum are used.
func Thumbnail(f *Frame, low, high float64) (*image.Gray, error) {
	w, h := f.Image.Width, f.Image.Height
	plane, err := f.Plane(0)
	if err != nil {
		return nil, err
	}

	if low >= high {
		low, high = bounds(plane)
	}
	span := high - low

	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range plane {
		var g float64
		if span > 0 {
			g = (v - low) / span * 255
		}
		img.SetGray(i%w, i/w, color.Gray{Y: uint8(math.Round(clamp(g, 0, 255)))})
	}
	return img, nil
}

// EmbeddedThumbnail decodes the preview Digital Micrograph saves at image
// list index 0. Samples are 32-bit little-endian words scaled by 1/65536
// and clamped to 8 bits.
func EmbeddedThumbnail(store *tagstore.Store, r io.ReaderAt) (*image.Gray, error) {
	prefix := imagePrefix(ThumbnailIndex)
	width, err := store.Int(prefix + "Dimensions.0")
	if err != nil {
		return nil, attribute(err)
	}
	height, err := store.Int(prefix + "Dimensions.1")
	if err != nil {
		return nil, attribute(err)
	}
	region, err := store.Region(prefix + "Data")
	if err != nil {
		return nil, attribute(err)
	}
	if width <= 0 || height <= 0 || width*height*thumbnailSampleSize != region.Size {
		return nil, errors.InvalidData(errors.PhasePixels, []string{prefix + "Data"},
			fmt.Sprintf("thumbnail buffer holds %d bytes, %dx%d needs %d",
				region.Size, width, height, width*height*thumbnailSampleSize))
	}

	raw, err := readRegion(r, region)
	if err != nil {
		return nil, err
	}

	w := int(width)
	img := image.NewGray(image.Rect(0, 0, w, int(height)))
	for i := 0; i < len(raw)/thumbnailSampleSize; i++ {
		v := float64(binary.LittleEndian.Uint32(raw[i*thumbnailSampleSize:])) / 65536
		img.SetGray(i%w, i/w, color.Gray{Y: uint8(math.Round(clamp(v, 0, 255)))})
	}

	Logger().Debug("read thumbnail",
		zap.Int64("offset", region.Offset),
		zap.Int64("width", width),
		zap.Int64("height", height))
	return img, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errors.Wrap(errors.PhasePixels, errors.KindIO, err, "encode png")
	}
	return nil
}

func bounds(vs []float64) (lo, hi float64) {
	if len(vs) == 0 {
		return 0, 0
	}
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
