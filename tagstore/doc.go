// Package tagstore holds the decoded tags of a DM3/DM4 file.
//
// Values are kept as text only. Every write is appended to an ordered log;
// a path-keyed view keeps the latest value per path, so sibling entries that
// end up with the same path collide in the view but both stay in the log.
//
// Skipped binary payloads appear as two synthetic entries, <path>.Offset and
// <path>.Size, which Region turns back into a location in the source stream:
//
//	r, err := store.Region("root.ImageList.1.ImageData.Data")
//	buf := make([]byte, r.Size)
//	_, err = f.ReadAt(buf, r.Offset)
package tagstore
