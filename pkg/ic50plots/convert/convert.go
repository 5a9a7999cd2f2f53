// Package convert turns vector metafile plot images into rasters.
package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Converter converts one vector image to raster bytes. Implementations
// must be safe for concurrent use.
type Converter interface {
	Convert(ctx context.Context, name string, data []byte) ([]byte, error)
}

// ConversionError indicates a single image failed vector-to-raster
// conversion. It is scoped to one image; the summary table renders an
// empty cell instead of aborting the run.
type ConversionError struct {
	Entry string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed for %q: %v", e.Entry, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Inkscape converts EMF images to PNG by invoking the inkscape binary.
type Inkscape struct {
	// Command is the converter binary name or path.
	Command string
	// Timeout bounds a single conversion; zero means no limit.
	Timeout time.Duration
	// MinOutputSize rejects trivially small outputs as failed conversions.
	MinOutputSize int64
}

// NewInkscape returns an Inkscape converter.
func NewInkscape(command string, timeout time.Duration, minOutputSize int64) *Inkscape {
	return &Inkscape{
		Command:       command,
		Timeout:       timeout,
		MinOutputSize: minOutputSize,
	}
}

// Convert writes data to a scoped temporary file, runs the converter and
// returns the produced PNG bytes. The temporary directory is removed on
// all exit paths.
func (c *Inkscape) Convert(ctx context.Context, name string, data []byte) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "ic50plots-")
	if err != nil {
		return nil, &ConversionError{Entry: name, Err: err}
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, filepath.Base(name))
	outPath := filepath.Join(tmpDir, "out.png")

	if err := os.WriteFile(inPath, data, 0644); err != nil {
		return nil, &ConversionError{Entry: name, Err: err}
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Command, inPath, "--export-filename", outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ConversionError{Entry: name, Err: ctxErr}
		}
		return nil, &ConversionError{Entry: name, Err: fmt.Errorf("%s: %w (output: %s)", c.Command, err, out)}
	}

	png, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &ConversionError{Entry: name, Err: fmt.Errorf("converter produced no output: %w", err)}
	}
	if int64(len(png)) <= c.MinOutputSize {
		return nil, &ConversionError{Entry: name, Err: fmt.Errorf("converter output too small: %d bytes", len(png))}
	}

	return png, nil
}
