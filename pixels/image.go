package pixels

import (
	"strconv"
	"strings"

	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/tagstore"
)

// ImageListPrefix is the tag group holding one subgroup per stored image.
// Index 0 is usually the embedded thumbnail; the main image is index 1.
const ImageListPrefix = "root.ImageList."

// DefaultIndex is the image list index of the main image.
const DefaultIndex = 1

// ThumbnailIndex is the image list index of the embedded preview.
const ThumbnailIndex = 0

// DataType is the Digital Micrograph pixel data type.
type DataType int

const (
	NullData        DataType = 0
	SignedInt16     DataType = 1
	Real4           DataType = 2
	Complex8        DataType = 3
	Obsolete        DataType = 4
	Packed          DataType = 5
	UnsignedInt8    DataType = 6
	SignedInt32     DataType = 7
	RGB             DataType = 8
	SignedInt8      DataType = 9
	UnsignedInt16   DataType = 10
	UnsignedInt32   DataType = 11
	Real8           DataType = 12
	Complex16       DataType = 13
	Binary          DataType = 14
	RGBUInt8_0      DataType = 15
	RGBUInt8_1      DataType = 16
	RGBUInt16       DataType = 17
	RGBFloat32      DataType = 18
	RGBFloat64      DataType = 19
	RGBAUInt8_0     DataType = 20
	RGBAUInt8_1     DataType = 21
	RGBAUInt8_2     DataType = 22
	RGBAUInt8_3     DataType = 23
	RGBAUInt16      DataType = 24
	RGBAFloat32     DataType = 25
	RGBAFloat64     DataType = 26
	Point2SInt16_0  DataType = 27
	Point2SInt16_1  DataType = 28
	Point2SInt32_0  DataType = 29
	Point2Float32_0 DataType = 30
	RectSInt16_1    DataType = 31
	RectSInt32_1    DataType = 32
	RectFloat32_1   DataType = 33
	RectFloat32_0   DataType = 34
	SignedInt64     DataType = 35
	UnsignedInt64   DataType = 36
	LastData        DataType = 37
)

var dataTypeNames = [...]string{
	"NULL_DATA",
	"SIGNED_INT16_DATA",
	"REAL4_DATA",
	"COMPLEX8_DATA",
	"OBSELETE_DATA",
	"PACKED_DATA",
	"UNSIGNED_INT8_DATA",
	"SIGNED_INT32_DATA",
	"RGB_DATA",
	"SIGNED_INT8_DATA",
	"UNSIGNED_INT16_DATA",
	"UNSIGNED_INT32_DATA",
	"REAL8_DATA",
	"COMPLEX16_DATA",
	"BINARY_DATA",
	"RGB_UINT8_0_DATA",
	"RGB_UINT8_1_DATA",
	"RGB_UINT16_DATA",
	"RGB_FLOAT32_DATA",
	"RGB_FLOAT64_DATA",
	"RGBA_UINT8_0_DATA",
	"RGBA_UINT8_1_DATA",
	"RGBA_UINT8_2_DATA",
	"RGBA_UINT8_3_DATA",
	"RGBA_UINT16_DATA",
	"RGBA_FLOAT32_DATA",
	"RGBA_FLOAT64_DATA",
	"POINT2_SINT16_0_DATA",
	"POINT2_SINT16_1_DATA",
	"POINT2_SINT32_0_DATA",
	"POINT2_FLOAT32_0_DATA",
	"RECT_SINT16_1_DATA",
	"RECT_SINT32_1_DATA",
	"RECT_FLOAT32_1_DATA",
	"RECT_FLOAT32_0_DATA",
	"SIGNED_INT64_DATA",
	"UNSIGNED_INT64_DATA",
	"LAST_DATA",
}

func (t DataType) String() string {
	if t >= 0 && int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return "DataType(" + strconv.Itoa(int(t)) + ")"
}

// bytesPerPixel returns the sample width of the types Read can decode.
func (t DataType) bytesPerPixel() int {
	switch t {
	case UnsignedInt8, SignedInt8, Binary:
		return 1
	case SignedInt16, UnsignedInt16:
		return 2
	case Real4, SignedInt32, UnsignedInt32:
		return 4
	}
	return 0
}

// Supported reports whether Read can decode pixels of this type.
func (t DataType) Supported() bool {
	return t.bytesPerPixel() > 0
}

// Image describes one entry of the image list.
type Image struct {
	Region   tagstore.Region
	Index    int
	DataType DataType
	Width    int
	Height   int
	Depth    int
}

// Pixels returns the number of samples in the image.
func (img Image) Pixels() int {
	return img.Width * img.Height * img.Depth
}

func imagePrefix(index int) string {
	return ImageListPrefix + strconv.Itoa(index) + ".ImageData."
}

// Describe reads the data type, dimensions and pixel buffer location of
// image index from store.
func Describe(store *tagstore.Store, index int) (Image, error) {
	prefix := imagePrefix(index)

	dt, err := store.Int(prefix + "DataType")
	if err != nil {
		return Image{}, attribute(err)
	}
	width, err := store.Int(prefix + "Dimensions.0")
	if err != nil {
		return Image{}, attribute(err)
	}
	height, err := store.Int(prefix + "Dimensions.1")
	if err != nil {
		return Image{}, attribute(err)
	}
	depth := int64(1)
	if store.Has(prefix + "Dimensions.2") {
		if depth, err = store.Int(prefix + "Dimensions.2"); err != nil {
			return Image{}, attribute(err)
		}
	}
	region, err := store.Region(prefix + "Data")
	if err != nil {
		return Image{}, attribute(err)
	}

	if width <= 0 || height <= 0 || depth <= 0 {
		return Image{}, errors.InvalidData(errors.PhasePixels, []string{prefix + "Dimensions"},
			"dimensions must be positive: "+strconv.FormatInt(width, 10)+"x"+
				strconv.FormatInt(height, 10)+"x"+strconv.FormatInt(depth, 10))
	}

	return Image{
		Index:    index,
		DataType: DataType(dt),
		Width:    int(width),
		Height:   int(height),
		Depth:    int(depth),
		Region:   region,
	}, nil
}

// Count returns the number of image list entries that carry a data type.
func Count(store *tagstore.Store) int {
	seen := make(map[string]struct{})
	for _, k := range store.Keys() {
		rest, ok := strings.CutPrefix(k, ImageListPrefix)
		if !ok {
			continue
		}
		idx, tail, ok := strings.Cut(rest, ".")
		if ok && tail == "ImageData.DataType" {
			seen[idx] = struct{}{}
		}
	}
	return len(seen)
}

// attribute re-tags store lookup errors as pixel errors.
func attribute(err error) error {
	if e, ok := err.(*errors.Error); ok {
		return e.WithPhase(errors.PhasePixels)
	}
	return err
}
