package volume

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/neuropil/core"
)

// Image is a read-only 3d intensity volume paired with the label volumes.
type Image struct {
	shape core.Point3d
	data  []uint16
}

// NewImage converts a flat z-major array of intensities into an image volume.
// 8-bit and 16-bit samples are kept as is; float samples are clamped to [0, 65535].
func NewImage(shape core.Point3d, values interface{}) (*Image, error) {
	if err := shape.Valid(); err != nil {
		return nil, err
	}
	n := int(shape.Prod())
	data := make([]uint16, n)
	var numVals int
	switch v := values.(type) {
	case []uint16:
		numVals = len(v)
		if numVals == n {
			copy(data, v)
		}
	case []uint8:
		numVals = len(v)
		if numVals == n {
			for i, s := range v {
				data[i] = uint16(s)
			}
		}
	case []float32:
		numVals = len(v)
		if numVals == n {
			for i, s := range v {
				data[i] = clampIntensity(float64(s))
			}
		}
	case []float64:
		numVals = len(v)
		if numVals == n {
			for i, s := range v {
				data[i] = clampIntensity(s)
			}
		}
	default:
		return nil, &core.DtypeError{Name: "image", Index: -1, Reason: fmt.Sprintf("unsupported intensity type %T", values)}
	}
	if numVals != n {
		return nil, &core.ShapeMismatchError{Name: "image", Expected: shape, Flat: true, NumVals: numVals}
	}
	return &Image{shape: shape, data: data}, nil
}

func clampIntensity(f float64) uint16 {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(math.Round(f))
	}
}

// Shape returns the (z, y, x) size of the volume.
func (img *Image) Shape() core.Point3d {
	return img.shape
}

// Value returns the intensity at a voxel.
func (img *Image) Value(pt core.Point3d) (uint16, error) {
	if !img.shape.Contains(pt) {
		return 0, &core.OutOfBoundsError{Point: pt, Shape: img.shape}
	}
	return img.data[img.shape.Index(pt)], nil
}

// Data returns a copy of the samples so the image can't be mutated through it.
func (img *Image) Data() []uint16 {
	out := make([]uint16, len(img.data))
	copy(out, img.data)
	return out
}

// Slice returns a copy of the (y, x) samples at z.
func (img *Image) Slice(z int) ([]uint16, error) {
	nz, ny, nx := img.shape.Dims()
	if z < 0 || z >= nz {
		return nil, &core.OutOfBoundsError{Point: core.Point3d{int32(z), 0, 0}, Shape: img.shape}
	}
	plane := ny * nx
	out := make([]uint16, plane)
	copy(out, img.data[z*plane:(z+1)*plane])
	return out, nil
}

func (img *Image) String() string {
	return fmt.Sprintf("image volume %s", img.shape)
}
