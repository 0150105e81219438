package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point3d is a voxel index or a volume size with axes in (z, y, x) order, matching
// the memory layout of label volumes where x varies fastest.
type Point3d [3]int32

// Dims returns the (depth, height, width) components as ints.
func (p Point3d) Dims() (nz, ny, nx int) {
	return int(p[0]), int(p[1]), int(p[2])
}

// Prod returns the product of the point elements, i.e., the number of voxels
// if the point is a size.
func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

// Contains returns true if the voxel index pt lies inside a volume of size p.
func (p Point3d) Contains(pt Point3d) bool {
	for i := 0; i < 3; i++ {
		if pt[i] < 0 || pt[i] >= p[i] {
			return false
		}
	}
	return true
}

// Index returns the offset of voxel pt within a z-major volume of size p.
// The point is not bounds checked.
func (p Point3d) Index(pt Point3d) int {
	return (int(pt[0])*int(p[1])+int(pt[1]))*int(p[2]) + int(pt[2])
}

// PointAt returns the voxel index for an offset into a z-major volume of size p.
func (p Point3d) PointAt(i int) Point3d {
	plane := int(p[1]) * int(p[2])
	z := i / plane
	rem := i % plane
	return Point3d{int32(z), int32(rem / int(p[2])), int32(rem % int(p[2]))}
}

// Valid returns an error if the point cannot be the size of a volume.
func (p Point3d) Valid() error {
	if p[0] <= 0 || p[1] <= 0 || p[2] <= 0 {
		return fmt.Errorf("volume size must be positive along every axis, got %s", p)
	}
	return nil
}

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// MarshalJSON encodes the point as a [z,y,x] array.
func (p Point3d) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int32(p))
}

// UnmarshalJSON decodes a [z,y,x] array of integers.  Coordinates beyond the int32
// range are clamped to it, so they still fail bounds checks one point at a time.
func (p *Point3d) UnmarshalJSON(b []byte) error {
	var arr []json.Number
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("expected 3 coordinates (z,y,x), got %d", len(arr))
	}
	for i, n := range arr {
		v, err := parseCoord(string(n))
		if err != nil {
			return err
		}
		p[i] = v
	}
	return nil
}

// parseCoord parses an integer coordinate, saturating at the int32 limits.
func parseCoord(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err == nil || errors.Is(err, strconv.ErrRange) {
		return int32(v), nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if (ferr != nil && !errors.Is(ferr, strconv.ErrRange)) || f != math.Trunc(f) {
		return 0, fmt.Errorf("coordinate %q is not an integer", s)
	}
	switch {
	case f <= math.MinInt32:
		return math.MinInt32, nil
	case f >= math.MaxInt32:
		return math.MaxInt32, nil
	default:
		return int32(f), nil
	}
}

// StringToPoint3d parses a string of format "%d<sep>%d<sep>%d" in (z,y,x) order.
// Coordinates beyond the int32 range are clamped to it.
func StringToPoint3d(str, separator string) (p Point3d, err error) {
	elems := strings.Split(str, separator)
	if len(elems) != 3 {
		err = fmt.Errorf("cannot parse %q into a 3d point", str)
		return
	}
	for i, elem := range elems {
		if p[i], err = parseCoord(strings.TrimSpace(elem)); err != nil {
			return
		}
	}
	return
}

// StringToPoints parses points separated by ";" where each point is "z,y,x".
func StringToPoints(str string) ([]Point3d, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, nil
	}
	var pts []Point3d
	for _, s := range strings.Split(str, ";") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		pt, err := StringToPoint3d(s, ",")
		if err != nil {
			return nil, err
		}
		pts = append(pts, pt)
	}
	return pts, nil
}
