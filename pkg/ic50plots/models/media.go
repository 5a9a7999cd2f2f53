package models

// MediaEntry is one archive entry under the workbook's media directory.
type MediaEntry struct {
	// Name is the entry base name (e.g. "image3.emf").
	Name string
	// Size is the uncompressed byte size.
	Size int64
	// Data is the uncompressed entry content.
	Data []byte
}

// SelectedImage is a MediaEntry promoted to a real plot, bound to one
// compound by shared rank after sorting by sequence number.
type SelectedImage struct {
	// Name is the media entry name.
	Name string
	// Seq is the sequence number parsed from the entry name.
	Seq int
	// Size is the uncompressed byte size.
	Size int64
	// Data is the raw vector image bytes.
	Data []byte
}
