// Package finder resolves input paths to assay workbooks.
package finder

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ccsp-bioinfo/ic50plots-go/pkg/ic50plots/models"
)

// FindWorkbooks resolves an input path to assay workbooks, sorted by cell
// line. The input is either a directory searched recursively or a zip
// upload extracted to a temporary directory. The returned cleanup func
// removes any temporary extraction directory and is safe to call always.
func FindWorkbooks(input string) ([]models.Workbook, func(), error) {
	noop := func() {}

	info, err := os.Stat(input)
	if err != nil {
		return nil, noop, err
	}

	if !info.IsDir() {
		if !strings.HasSuffix(input, ".zip") {
			return nil, noop, fmt.Errorf("input %q is neither a directory nor a zip file", input)
		}

		tmpDir, err := os.MkdirTemp("", "ccsp-extract-")
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() { os.RemoveAll(tmpDir) }

		if err := extractZip(input, tmpDir); err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("extracting %q: %w", input, err)
		}

		workbooks, err := walkDir(tmpDir)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		return workbooks, cleanup, nil
	}

	workbooks, err := walkDir(input)
	return workbooks, noop, err
}

// IsAssayFile reports whether a base name matches the CCSP workbook
// naming contract: *_paste.xlsx, not an Office lock file, not a summary.
func IsAssayFile(name string) bool {
	return strings.HasSuffix(name, "_paste.xlsx") &&
		!strings.HasPrefix(name, "~") &&
		!strings.Contains(name, "Summary")
}

// CellLine extracts the cell line identifier from a workbook base name of
// the form <date>_<cellline>_<nta>_<nnh>_paste.xlsx. Names with fewer
// than two segments fall back to the name without extension.
func CellLine(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) >= 2 {
		return parts[1]
	}
	return strings.TrimSuffix(name, ".xlsx")
}

func walkDir(root string) ([]models.Workbook, error) {
	var workbooks []models.Workbook

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			// macOS zip metadata and other hidden directories.
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "__")) {
				return fs.SkipDir
			}
			return nil
		}
		if IsAssayFile(name) {
			workbooks = append(workbooks, models.Workbook{
				Path:     path,
				CellLine: CellLine(name),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(workbooks, func(i, j int) bool { return workbooks[i].CellLine < workbooks[j].CellLine })
	return workbooks, nil
}

func extractZip(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(dest, filepath.Clean(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes extraction directory", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := writeZipEntry(f, target); err != nil {
			return err
		}
	}

	return nil
}

func writeZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
