package slices

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/volume"
)

var imageExts = map[string]bool{
	".png":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".jpg":  true,
	".jpeg": true,
}

// SliceFiles returns the image files in dir whose names start with "{prefix}_",
// sorted lexicographically.  An empty prefix matches all image files.
func SliceFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &core.IOError{Op: "import from", Path: dir, Err: err}
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !imageExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		if prefix != "" && !strings.HasPrefix(name, prefix+"_") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	if len(files) == 0 {
		return nil, &core.IOError{Op: "import from", Path: dir, Err: fmt.Errorf("no slice images with prefix %q", prefix)}
	}
	sort.Strings(files)
	return files, nil
}

type sliceData[T uint64 | uint16] struct {
	vals   []T
	nx, ny int
}

// decodeAll decodes every file in parallel and stacks the slices into one z-major
// array once all decodes are done.
func decodeAll[T uint64 | uint16](ctx context.Context, files []string, decode func(string) ([]T, int, int, error)) ([]T, core.Point3d, error) {
	decoded := make([]sliceData[T], len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for z, filename := range files {
		z, filename := z, filename
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vals, nx, ny, err := decode(filename)
			if err != nil {
				return err
			}
			decoded[z] = sliceData[T]{vals, nx, ny}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, core.Point3d{}, err
	}

	nx, ny := decoded[0].nx, decoded[0].ny
	plane := nx * ny
	data := make([]T, 0, plane*len(files))
	for z, s := range decoded {
		if s.nx != nx || s.ny != ny {
			return nil, core.Point3d{}, &core.ShapeMismatchError{
				Name:     files[z],
				Expected: core.Point3d{1, int32(ny), int32(nx)},
				Got:      core.Point3d{1, int32(s.ny), int32(s.nx)},
			}
		}
		data = append(data, s.vals...)
	}
	return data, core.Point3d{int32(len(files)), int32(ny), int32(nx)}, nil
}

func decodeLabels(filename string) ([]uint64, int, int, error) {
	img, _, err := core.ImageFromFile(filename)
	if err != nil {
		return nil, 0, 0, err
	}
	labels, nx, ny, err := core.ImageToLabels(img)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("slice %s: %v", filename, err)
	}
	return labels, nx, ny, nil
}

func decodeIntensities(filename string) ([]uint16, int, int, error) {
	img, _, err := core.ImageFromFile(filename)
	if err != nil {
		return nil, 0, 0, err
	}
	vals, nx, ny := core.ImageToIntensities(img)
	return vals, nx, ny, nil
}

// Import reads a stack of label slice images with the given prefix from dir and
// returns them as a label volume with one z-slice per file.
func Import(ctx context.Context, dir, prefix string) (*volume.Labels, error) {
	files, err := SliceFiles(dir, prefix)
	if err != nil {
		return nil, err
	}
	timedLog := core.NewTimeLog()
	data, shape, err := decodeAll(ctx, files, decodeLabels)
	if err != nil {
		return nil, err
	}
	labels, err := volume.NewLabels(prefix, shape, data)
	if err != nil {
		return nil, err
	}
	timedLog.Infof("Imported %d label slices from %s, shape %s", len(files), dir, shape)
	return labels, nil
}

// ImportImage reads a stack of grayscale slice images with the given prefix from
// dir and returns them as an intensity volume.
func ImportImage(ctx context.Context, dir, prefix string) (*volume.Image, error) {
	files, err := SliceFiles(dir, prefix)
	if err != nil {
		return nil, err
	}
	timedLog := core.NewTimeLog()
	data, shape, err := decodeAll(ctx, files, decodeIntensities)
	if err != nil {
		return nil, err
	}
	img, err := volume.NewImage(shape, data)
	if err != nil {
		return nil, err
	}
	timedLog.Infof("Imported %d image slices from %s, shape %s", len(files), dir, shape)
	return img, nil
}
