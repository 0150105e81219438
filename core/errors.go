package core

import "fmt"

// ShapeMismatchError is returned when volumes that must share a (z,y,x) shape do not,
// or when a data array does not match its declared shape.
type ShapeMismatchError struct {
	Name     string
	Expected Point3d
	Got      Point3d

	// NumVals is the length of a flat array that disagrees with Expected when Flat is set.
	Flat    bool
	NumVals int
}

func (e *ShapeMismatchError) Error() string {
	if e.Flat {
		return fmt.Sprintf("%s has %d values but shape %s requires %d", e.Name, e.NumVals, e.Expected, e.Expected.Prod())
	}
	return fmt.Sprintf("%s has shape %s, expected %s", e.Name, e.Got, e.Expected)
}

// DtypeError is returned when a label array holds values that are not non-negative integers.
type DtypeError struct {
	Name   string
	Index  int
	Value  interface{}
	Reason string
}

func (e *DtypeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("%s: value %v at index %d %s", e.Name, e.Value, e.Index, e.Reason)
}

// OutOfBoundsError is returned when a query point lies outside a volume.
type OutOfBoundsError struct {
	Point Point3d
	Shape Point3d
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("point %s is outside volume of shape %s", e.Point, e.Shape)
}

// IOError wraps a file system or bucket failure with the path involved.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ValueRangeError is returned when label identifiers cannot be held losslessly
// by a pixel format.
type ValueRangeError struct {
	Max    uint64
	Format PixelFormat
}

func (e *ValueRangeError) Error() string {
	return fmt.Sprintf("label %d exceeds maximum %d representable by %s pixels", e.Max, e.Format.MaxValue(), e.Format)
}

// AliasError is returned when one label volume would play two roles at once, e.g.,
// both the source and the destination of a transfer.
type AliasError struct {
	First  string
	Second string
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("%s and %s must be distinct label volumes", e.First, e.Second)
}
