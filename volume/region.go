package volume

import (
	"fmt"
	"strings"

	"github.com/janelia-flyem/neuropil/core"
)

// RegionMode determines which voxels make up the region selected by a query point.
type RegionMode uint8

const (
	// ValueMatch selects every voxel in the volume equal to the queried label, so
	// disjoint blobs sharing a label are selected together.
	ValueMatch RegionMode = iota

	// Connected selects voxels equal to the queried label that are 6-connected to
	// the query voxel.
	Connected
)

func (m RegionMode) String() string {
	switch m {
	case ValueMatch:
		return "value"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("regionmode(%d)", uint8(m))
	}
}

// ParseRegionMode parses "value" (default) or "connected".
func ParseRegionMode(s string) (RegionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "value", "label":
		return ValueMatch, nil
	case "connected", "component", "floodfill":
		return Connected, nil
	default:
		return ValueMatch, fmt.Errorf("unknown region mode %q", s)
	}
}

// Region returns the voxel offsets of the region containing pt, which must hold a
// non-zero label.  The offsets are in increasing order for ValueMatch and in
// traversal order for Connected.
func (l *Labels) Region(pt core.Point3d, mode RegionMode) (label uint64, offsets []int, err error) {
	if label, err = l.Value(pt); err != nil {
		return
	}
	if label == 0 {
		return 0, nil, nil
	}
	switch mode {
	case ValueMatch:
		for i, v := range l.data {
			if v == label {
				offsets = append(offsets, i)
			}
		}
	case Connected:
		offsets = l.floodFill(l.shape.Index(pt), label)
	default:
		err = fmt.Errorf("unknown region mode %s", mode)
	}
	return
}

// floodFill does a 6-connected breadth-first traversal from start over voxels equal to label.
func (l *Labels) floodFill(start int, label uint64) []int {
	nz, ny, nx := l.shape.Dims()
	plane := ny * nx
	visited := make(map[int]struct{})
	visited[start] = struct{}{}
	queue := []int{start}
	var offsets []int
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		offsets = append(offsets, i)

		z, rem := i/plane, i%plane
		y, x := rem/nx, rem%nx
		neighbors := [6]struct {
			ok bool
			i  int
		}{
			{x > 0, i - 1},
			{x < nx-1, i + 1},
			{y > 0, i - nx},
			{y < ny-1, i + nx},
			{z > 0, i - plane},
			{z < nz-1, i + plane},
		}
		for _, n := range neighbors {
			if !n.ok || l.data[n.i] != label {
				continue
			}
			if _, found := visited[n.i]; found {
				continue
			}
			visited[n.i] = struct{}{}
			queue = append(queue, n.i)
		}
	}
	return offsets
}
