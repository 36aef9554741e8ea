package pixels

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/tagstore"
)

// Frame is the raw pixel buffer of one image.
type Frame struct {
	Raw   []byte
	Image Image
}

// Read loads the pixel buffer of img from r. The buffer size must match the
// image dimensions and data type.
func Read(r io.ReaderAt, img Image) (*Frame, error) {
	if !img.DataType.Supported() {
		return nil, errors.Unsupported(errors.PhasePixels,
			fmt.Sprintf("image %d has data type %d (%s)", img.Index, int(img.DataType), img.DataType))
	}
	want := int64(img.Pixels()) * int64(img.DataType.bytesPerPixel())
	if img.Region.Size != want {
		return nil, errors.InvalidData(errors.PhasePixels, []string{imagePrefix(img.Index) + "Data"},
			fmt.Sprintf("buffer holds %d bytes, %dx%dx%d %s needs %d",
				img.Region.Size, img.Width, img.Height, img.Depth, img.DataType, want))
	}

	raw, err := readRegion(r, img.Region)
	if err != nil {
		return nil, err
	}

	Logger().Debug("read pixels",
		zap.Int("image", img.Index),
		zap.Stringer("data_type", img.DataType),
		zap.Int64("offset", img.Region.Offset),
		zap.Int64("size", img.Region.Size))

	return &Frame{Image: img, Raw: raw}, nil
}

// readRegion loads the bytes of region from r.
func readRegion(r io.ReaderAt, region tagstore.Region) ([]byte, error) {
	raw := make([]byte, region.Size)
	n, err := io.ReadFull(io.NewSectionReader(r, region.Offset, region.Size), raw)
	if err != nil {
		if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.TruncatedStream(region.Offset+int64(n), region.Size-int64(n), 0).
				WithPhase(errors.PhasePixels)
		}
		return nil, errors.Wrap(errors.PhasePixels, errors.KindIO, err, "read pixel buffer")
	}
	return raw, nil
}

// Values decodes every sample to float64 in storage order. Binary images
// map non-zero samples to 1.
func (f *Frame) Values() []float64 {
	return f.decode(f.Raw)
}

// Plane returns the samples of slice z of a stack.
func (f *Frame) Plane(z int) ([]float64, error) {
	if z < 0 || z >= f.Image.Depth {
		return nil, errors.InvalidInput(errors.PhasePixels,
			fmt.Sprintf("plane %d out of range [0, %d)", z, f.Image.Depth))
	}
	size := f.Image.Width * f.Image.Height * f.Image.DataType.bytesPerPixel()
	return f.decode(f.Raw[z*size : (z+1)*size]), nil
}

func (f *Frame) decode(raw []byte) []float64 {
	le := binary.LittleEndian
	bpp := f.Image.DataType.bytesPerPixel()
	out := make([]float64, len(raw)/bpp)
	for i := range out {
		b := raw[i*bpp:]
		switch f.Image.DataType {
		case SignedInt16:
			out[i] = float64(int16(le.Uint16(b)))
		case Real4:
			out[i] = float64(math.Float32frombits(le.Uint32(b)))
		case UnsignedInt8:
			out[i] = float64(b[0])
		case SignedInt32:
			out[i] = float64(int32(le.Uint32(b)))
		case SignedInt8:
			out[i] = float64(int8(b[0]))
		case UnsignedInt16:
			out[i] = float64(le.Uint16(b))
		case UnsignedInt32:
			out[i] = float64(le.Uint32(b))
		case Binary:
			if b[0] > 0 {
				out[i] = 1
			}
		}
	}
	return out
}
