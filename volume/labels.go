/*
	Package volume holds the label and intensity volumes of a curation session.  Label
	volumes are 3d arrays of uint64 identifiers in z-major (z, y, x) order where 0 is
	background.
*/
package volume

import (
	"fmt"
	"math"
	"sort"

	"github.com/janelia-flyem/neuropil/core"
)

// Labels is a 3d array of label identifiers.
type Labels struct {
	shape core.Point3d
	data  []uint64
}

// NewEmptyLabels returns an all-background label volume of the given shape.
func NewEmptyLabels(shape core.Point3d) (*Labels, error) {
	if err := shape.Valid(); err != nil {
		return nil, err
	}
	return &Labels{shape: shape, data: make([]uint64, shape.Prod())}, nil
}

// NewLabels converts a flat z-major array of host values into a label volume.
// Accepted element types are the Go integer and float types.  Negative values or
// floats with a fractional part are rejected with a DtypeError, and an array length
// that doesn't match the shape returns a ShapeMismatchError.  The returned volume
// never aliases the passed array.
func NewLabels(name string, shape core.Point3d, values interface{}) (*Labels, error) {
	if err := shape.Valid(); err != nil {
		return nil, err
	}
	n := int(shape.Prod())
	var data []uint64
	var err error
	switch v := values.(type) {
	case []uint64:
		if err = checkLen(name, shape, len(v)); err == nil {
			data = make([]uint64, n)
			copy(data, v)
		}
	case []uint32:
		data, err = convertUnsigned(name, shape, v)
	case []uint16:
		data, err = convertUnsigned(name, shape, v)
	case []uint8:
		data, err = convertUnsigned(name, shape, v)
	case []uint:
		data, err = convertUnsigned(name, shape, v)
	case []int64:
		data, err = convertSigned(name, shape, v)
	case []int32:
		data, err = convertSigned(name, shape, v)
	case []int16:
		data, err = convertSigned(name, shape, v)
	case []int8:
		data, err = convertSigned(name, shape, v)
	case []int:
		data, err = convertSigned(name, shape, v)
	case []float64:
		data, err = convertFloat(name, shape, v)
	case []float32:
		data, err = convertFloat(name, shape, v)
	default:
		err = &core.DtypeError{Name: name, Index: -1, Reason: fmt.Sprintf("unsupported element type %T", values)}
	}
	if err != nil {
		return nil, err
	}
	return &Labels{shape: shape, data: data}, nil
}

func checkLen(name string, shape core.Point3d, n int) error {
	if int64(n) != shape.Prod() {
		return &core.ShapeMismatchError{Name: name, Expected: shape, Flat: true, NumVals: n}
	}
	return nil
}

func convertUnsigned[T uint8 | uint16 | uint32 | uint](name string, shape core.Point3d, vals []T) ([]uint64, error) {
	if err := checkLen(name, shape, len(vals)); err != nil {
		return nil, err
	}
	data := make([]uint64, len(vals))
	for i, v := range vals {
		data[i] = uint64(v)
	}
	return data, nil
}

func convertSigned[T int8 | int16 | int32 | int64 | int](name string, shape core.Point3d, vals []T) ([]uint64, error) {
	if err := checkLen(name, shape, len(vals)); err != nil {
		return nil, err
	}
	data := make([]uint64, len(vals))
	for i, v := range vals {
		if v < 0 {
			return nil, &core.DtypeError{Name: name, Index: i, Value: v, Reason: "is negative"}
		}
		data[i] = uint64(v)
	}
	return data, nil
}

func convertFloat[T float32 | float64](name string, shape core.Point3d, vals []T) ([]uint64, error) {
	if err := checkLen(name, shape, len(vals)); err != nil {
		return nil, err
	}
	data := make([]uint64, len(vals))
	for i, v := range vals {
		f := float64(v)
		switch {
		case math.IsNaN(f) || math.IsInf(f, 0):
			return nil, &core.DtypeError{Name: name, Index: i, Value: v, Reason: "is not finite"}
		case f < 0:
			return nil, &core.DtypeError{Name: name, Index: i, Value: v, Reason: "is negative"}
		case f != math.Trunc(f):
			return nil, &core.DtypeError{Name: name, Index: i, Value: v, Reason: "is not an integer"}
		case f >= math.MaxUint64:
			return nil, &core.DtypeError{Name: name, Index: i, Value: v, Reason: "exceeds 64-bit label range"}
		}
		data[i] = uint64(f)
	}
	return data, nil
}

// Shape returns the (z, y, x) size of the volume.
func (l *Labels) Shape() core.Point3d {
	return l.shape
}

// NumVoxels returns the total number of voxels.
func (l *Labels) NumVoxels() int {
	return len(l.data)
}

// Data returns the underlying z-major array.  Callers that mutate it are responsible
// for any synchronization with readers.
func (l *Labels) Data() []uint64 {
	return l.data
}

// Value returns the label at a voxel or an OutOfBoundsError.
func (l *Labels) Value(pt core.Point3d) (uint64, error) {
	if !l.shape.Contains(pt) {
		return 0, &core.OutOfBoundsError{Point: pt, Shape: l.shape}
	}
	return l.data[l.shape.Index(pt)], nil
}

// SetValue sets the label at a voxel.
func (l *Labels) SetValue(pt core.Point3d, label uint64) error {
	if !l.shape.Contains(pt) {
		return &core.OutOfBoundsError{Point: pt, Shape: l.shape}
	}
	l.data[l.shape.Index(pt)] = label
	return nil
}

// Slice returns a copy of the (y, x) labels at z.
func (l *Labels) Slice(z int) ([]uint64, error) {
	nz, ny, nx := l.shape.Dims()
	if z < 0 || z >= nz {
		return nil, &core.OutOfBoundsError{Point: core.Point3d{int32(z), 0, 0}, Shape: l.shape}
	}
	plane := ny * nx
	out := make([]uint64, plane)
	copy(out, l.data[z*plane:(z+1)*plane])
	return out, nil
}

// Clone returns a deep copy of the volume.
func (l *Labels) Clone() *Labels {
	data := make([]uint64, len(l.data))
	copy(data, l.data)
	return &Labels{shape: l.shape, data: data}
}

// Count returns the number of voxels with the given label.
func (l *Labels) Count(label uint64) int {
	var n int
	for _, v := range l.data {
		if v == label {
			n++
		}
	}
	return n
}

// MaxLabel returns the largest label in the volume.
func (l *Labels) MaxLabel() uint64 {
	var max uint64
	for _, v := range l.data {
		if v > max {
			max = v
		}
	}
	return max
}

// Counts returns the number of voxels for each non-background label.
func (l *Labels) Counts() map[uint64]int {
	counts := make(map[uint64]int)
	for _, v := range l.data {
		if v != 0 {
			counts[v]++
		}
	}
	return counts
}

// Unique returns the sorted non-background labels in the volume.
func (l *Labels) Unique() []uint64 {
	counts := l.Counts()
	labels := make([]uint64, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Equals returns true if both volumes have the same shape and labels.
func (l *Labels) Equals(l2 *Labels) bool {
	if l == nil || l2 == nil {
		return l == l2
	}
	if l.shape != l2.shape || len(l.data) != len(l2.data) {
		return false
	}
	for i, v := range l.data {
		if l2.data[i] != v {
			return false
		}
	}
	return true
}

func (l *Labels) String() string {
	return fmt.Sprintf("label volume %s", l.shape)
}
