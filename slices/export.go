/*
	Package slices writes 3D label volumes as stacks of 2D slice images and reads such
	stacks back into volumes.

	Each z-slice becomes one PNG named {prefix}_{z}.png with z zero-padded to at least
	three digits.  Pixel values equal label identifiers exactly, so export followed by
	import reproduces the volume.
*/
package slices

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/volume"
)

// MinPadding is the minimum number of digits in a slice file index.
const MinPadding = 3

// SliceName returns the file name of slice z in a stack of the given depth.
func SliceName(prefix string, z, depth int) string {
	width := MinPadding
	if d := core.NumDigits(depth - 1); d > width {
		width = d
	}
	return fmt.Sprintf("%s_%0*d.png", prefix, width, z)
}

// SliceStatus is the outcome of writing one slice.
type SliceStatus struct {
	Index int
	Path  string
	Error string `json:",omitempty"`
	Err   error  `json:"-"`
}

// Result reports the per-slice outcomes of an export in increasing z.
type Result struct {
	Format string
	Bytes  uint64
	Slices []SliceStatus
}

// Written returns the number of slices successfully written.
func (r Result) Written() int {
	var n int
	for _, s := range r.Slices {
		if s.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of slices that could not be written.
func (r Result) Failed() int {
	return len(r.Slices) - r.Written()
}

// Err returns the joined errors of all failed slices or nil.
func (r Result) Err() error {
	var errs []error
	for _, s := range r.Slices {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("slice %d: %w", s.Index, s.Err))
		}
	}
	return errors.Join(errs...)
}

// Exporter writes label volumes as slice images of one pixel format.
type Exporter struct {
	format core.PixelFormat
}

// NewExporter returns an exporter.  AutoFormat picks the narrowest lossless
// format for each exported volume.
func NewExporter(format core.PixelFormat) *Exporter {
	return &Exporter{format: format}
}

// Format returns the configured pixel format.
func (e *Exporter) Format() core.PixelFormat {
	return e.format
}

// Export writes every z-slice of vol into outDir, which may be a local directory
// or a bucket URL.  Problems with the destination or a label range too large for
// the pixel format are returned before anything is written.  Failures of
// individual slices are recorded in the result and the remaining slices are
// still attempted.
func (e *Exporter) Export(ctx context.Context, vol *volume.Labels, outDir, prefix string) (Result, error) {
	sink, err := OpenSink(ctx, outDir)
	if err != nil {
		return Result{}, err
	}
	defer sink.Close()
	return e.ExportTo(ctx, vol, sink, prefix)
}

// ExportTo is like Export but writes to an already opened sink.
func (e *Exporter) ExportTo(ctx context.Context, vol *volume.Labels, sink Sink, prefix string) (Result, error) {
	if vol == nil {
		return Result{}, fmt.Errorf("no label volume to export")
	}
	format, err := e.format.Resolve(vol.MaxLabel())
	if err != nil {
		return Result{}, err
	}
	if err := sink.Check(ctx); err != nil {
		return Result{}, err
	}

	timedLog := core.NewTimeLog()
	depth, ny, nx := vol.Shape().Dims()
	result := Result{Format: format.String(), Slices: make([]SliceStatus, depth)}
	for z := 0; z < depth; z++ {
		name := SliceName(prefix, z, depth)
		status := &result.Slices[z]
		status.Index = z
		if err := ctx.Err(); err != nil {
			status.Path = name
			status.Err = err
			status.Error = err.Error()
			continue
		}
		var n int
		status.Path, n, status.Err = writeSlice(ctx, sink, vol, z, nx, ny, format, name)
		if status.Err != nil {
			status.Error = status.Err.Error()
			core.Errorf("Export of slice %d to %s failed: %v\n", z, sink, status.Err)
			continue
		}
		result.Bytes += uint64(n)
	}
	timedLog.Infof("Exported %d of %d %s slices (%s) of %s to %s", result.Written(), depth, format,
		humanize.Bytes(result.Bytes), vol.Shape(), sink)
	return result, nil
}

func writeSlice(ctx context.Context, sink Sink, vol *volume.Labels, z, nx, ny int, format core.PixelFormat, name string) (string, int, error) {
	labels, err := vol.Slice(z)
	if err != nil {
		return name, 0, err
	}
	img, err := core.LabelsToImage(labels, nx, ny, format)
	if err != nil {
		return name, 0, err
	}
	var buf bytes.Buffer
	if err := core.EncodePNG(&buf, img); err != nil {
		return name, 0, fmt.Errorf("unable to encode slice %d: %v", z, err)
	}
	path, err := sink.WriteSlice(ctx, name, buf.Bytes())
	return path, buf.Len(), err
}
