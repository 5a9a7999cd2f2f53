package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/models"
)

// MediaParams holds parameters for media listing and plot selection.
type MediaParams struct {
	// Dir is the archive subdirectory holding embedded images.
	Dir string
	// Extension filters media entries to the plot image format.
	Extension string
	// SizeThreshold is the byte size at or below which an entry is
	// considered decorative.
	SizeThreshold int64
	// SequencePattern is a regexp whose first capture group is the
	// sequence number embedded in an entry name.
	SequencePattern string
}

// DefaultMediaParams returns media parameters matching CCSP output.
func DefaultMediaParams() MediaParams {
	return MediaParams{
		Dir:             "xl/media",
		Extension:       ".emf",
		SizeThreshold:   3000,
		SequencePattern: `image(\d+)\.emf`,
	}
}

// ListMedia opens the workbook as a zip archive (an xlsx file is itself a
// compressed container of XML and binary parts) and returns the entries
// under the media subdirectory matching the plot extension.
func ListMedia(xlsxPath, workbook string, p MediaParams) ([]models.MediaEntry, error) {
	r, err := zip.OpenReader(xlsxPath)
	if err != nil {
		return nil, &CorruptWorkbookError{Workbook: workbook, Reason: "cannot open as archive", Err: err}
	}
	defer r.Close()

	prefix := strings.TrimSuffix(p.Dir, "/") + "/"
	dirSeen := false
	var entries []models.MediaEntry

	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		dirSeen = true

		name := path.Base(f.Name)
		if p.Extension != "" && !strings.HasSuffix(name, p.Extension) {
			continue
		}

		data, err := readArchiveFile(f)
		if err != nil {
			return nil, &CorruptWorkbookError{Workbook: workbook, Reason: "cannot read media entry " + name, Err: err}
		}

		entries = append(entries, models.MediaEntry{
			Name: name,
			Size: int64(f.UncompressedSize64),
			Data: data,
		})
	}

	if !dirSeen {
		return nil, &CorruptWorkbookError{Workbook: workbook, Reason: "media directory " + p.Dir + " absent"}
	}

	return entries, nil
}

// SelectPlots promotes media entries to plot images: entries at or below
// the decorative size threshold are dropped, the remainder is sorted by
// ascending sequence number, and exactly the first n entries are taken.
// Sequence number reflects insertion order in the original document, the
// only stable ordering signal once decorative images are removed.
func SelectPlots(entries []models.MediaEntry, n int, workbook string, p MediaParams) ([]models.SelectedImage, error) {
	re, err := regexp.Compile(p.SequencePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid sequence pattern %q: %w", p.SequencePattern, err)
	}

	var selected []models.SelectedImage
	for _, e := range entries {
		if e.Size <= p.SizeThreshold {
			continue
		}

		m := re.FindStringSubmatch(e.Name)
		if len(m) < 2 {
			return nil, &UnparseableMediaNameError{Workbook: workbook, Entry: e.Name, Pattern: p.SequencePattern}
		}
		seq, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &UnparseableMediaNameError{Workbook: workbook, Entry: e.Name, Pattern: p.SequencePattern}
		}

		selected = append(selected, models.SelectedImage{
			Name: e.Name,
			Seq:  seq,
			Size: e.Size,
			Data: e.Data,
		})
	}

	sort.Slice(selected, func(i, j int) bool { return selected[i].Seq < selected[j].Seq })

	if len(selected) < n {
		return nil, &InsufficientPlotImagesError{Workbook: workbook, Want: n, Got: len(selected)}
	}

	return selected[:n], nil
}

func readArchiveFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
