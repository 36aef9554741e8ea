// Package dm decodes Gatan Digital Micrograph DM3 and DM4 files.
//
// A DM file is a big-endian header followed by a recursive tree of tag
// groups and tag entries. Every data entry is decoded to text and written
// to a [tagstore.Store] under its dotted path, starting at "root":
//
//	root.ImageList.1.ImageData.DataType = 23
//	root.ImageList.1.ImageData.Dimensions.0 = 2048
//
// Unnamed entries are labeled by their 0-based index within the group.
//
// Large arrays, including pixel buffers, are not read. Their location is
// recorded as two entries, "<path>.Size" and "<path>.Offset", and the
// parser skips over the payload. Short UShort arrays outside the image
// buffer are treated as UTF-16 text and stored inline.
//
// The two versions differ in the width of counts and lengths: 4 bytes in
// DM3, 8 bytes in DM4. DM4 also prefixes each entry with its byte length
// and adds two 64-bit integer types.
//
// Basic usage:
//
//	f, err := dm.Open("sample.dm3")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	v, ok := f.Tags.Get("root.ImageList.1.ImageData.DataType")
//
// Any malformed input aborts the parse with an *errors.Error; there is no
// partial result.
package dm
