// Package errors provides structured error types for the gatan-dm module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the tag path, the stream offset and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseValue, errors.KindCorruptTag).
//		Path("root.ImageList.1.ImageData.Data").
//		Offset(0x1f4).
//		Detail("item width of type %d is unknown", 0).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.CorruptTag(errors.PhaseEntry, pos, path, "bad delimiter %q", delim)
//	err := errors.TruncatedStream(pos, want, have)
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match on Kind regardless of Phase:
//
//	if errors.Is(err, dmerrors.ErrCorruptTag) { ... }
package errors
