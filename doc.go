// Package gatandm reads Gatan Digital Micrograph DM3 and DM4 files.
//
// A DM file is a header followed by a tree of named groups and typed data
// entries. The decoder walks that tree once and flattens it into dotted tag
// paths such as "root.ImageList.1.ImageData.DataType". Large arrays are not
// decoded; their byte range is recorded instead so the pixel payload can be
// read on demand.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	gatandm/             Root package, documentation only
//	├── dm/              Header and tag tree decoder, File handle, experiment info
//	├── tagstore/        Ordered path to value store with payload regions
//	├── pixels/          Image descriptors, pixel payload reads, thumbnails
//	├── dump/            Text tag dumps in a chosen charset, optionally zstd
//	├── errors/          Structured error types with phase, kind and offset
//	├── internal/binary/ Positioned big and little endian cursor
//	├── internal/dmtest/ Synthetic DM stream builder for tests
//	└── cmd/dmtags/      Command line inspector and interactive tag browser
//
// # Quick Start
//
// Open a file and look up tags:
//
//	f, err := dm.Open("sample.dm3")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	v, ok := f.Tags.Get("root.ImageList.1.ImageData.DataType")
//	fmt.Println(v, ok) // "23" true
//
// Read the pixels of the main image:
//
//	img, err := pixels.Describe(f.Tags, pixels.DefaultIndex)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	frame, err := pixels.Read(f.ReaderAt(), img)
//
// # Values
//
// Every value is stored as text. Integers are decimal, floats use the
// shortest round-trip form with a ".0" suffix for integral values, booleans
// are "True" or "False", and strings are decoded from UTF-16LE.
//
// An array that is not treated as text produces two tags, "<path>.Size" and
// "<path>.Offset", giving the payload length in bytes and its absolute
// position in the stream.
//
// # Thread Safety
//
// A File is not safe for concurrent parsing, but its Tags store may be read
// from several goroutines once parsing has finished.
package gatandm
