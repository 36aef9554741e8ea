// Package dump writes the tag log of a parsed DM file as text, one
// "path = value" line per decoded tag in stream order.
//
// Output can be re-encoded to a legacy charset and compressed with zstd:
//
//	path, err := dump.ToFile(dir, "sample.dm3", f.Tags, dump.Options{
//	    Charset:  "latin-1",
//	    Compress: true,
//	})
//
// writes dir/sample.dm3.tagdump.txt.zst.
package dump
