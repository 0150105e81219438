package volume

// Relabel returns a copy of the volume with its non-background labels compacted to
// 1..N in ascending order of the original label.  The mapping from old to new labels
// is also returned.  Background stays 0.
func Relabel(l *Labels) (*Labels, map[uint64]uint64) {
	mapping := make(map[uint64]uint64)
	for i, label := range l.Unique() {
		mapping[label] = uint64(i + 1)
	}
	out := &Labels{shape: l.shape, data: make([]uint64, len(l.data))}
	for i, v := range l.data {
		if v != 0 {
			out.data[i] = mapping[v]
		}
	}
	return out, mapping
}
