// Package pixels turns the image tags of a parsed DM file into pixel data.
//
// The decoder records where each image buffer lives but never reads it.
// Describe collects the data type, dimensions and buffer region of one
// image list entry; Read then fetches exactly that region from the source:
//
//	img, err := pixels.Describe(f.Tags, pixels.DefaultIndex)
//	frame, err := pixels.Read(f.ReaderAt(), img)
//	gray, err := pixels.Thumbnail(frame, 0, 0)
//	err = pixels.WritePNG(out, gray)
//
// Read supports the scalar integer, float32 and binary data types.
// The preview Digital Micrograph embeds at ThumbnailIndex uses a packed
// format Read rejects; EmbeddedThumbnail decodes it directly.
package pixels
