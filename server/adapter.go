package server

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/mutlog"
	"github.com/janelia-flyem/neuropil/session"
	"github.com/janelia-flyem/neuropil/slices"
	"github.com/janelia-flyem/neuropil/transfer"
	"github.com/janelia-flyem/neuropil/volume"
)

// Commander is the command interface a host viewer uses to request operations
// on the curation volumes.
type Commander interface {
	RequestTransfer(points []core.Point3d) (transfer.Result, error)
	RequestExport(ctx context.Context, which volume.Which, outDir, prefix string) (slices.Result, error)
}

// Display is a host surface that shows label volumes.  Refresh receives a copy of
// the volume that the display may keep.
type Display interface {
	Refresh(which volume.Which, labels *volume.Labels)
}

// Adapter serializes host commands against one volume store and refreshes the
// registered displays after each mutation completes.
type Adapter struct {
	mu       sync.Mutex
	store    *volume.Store
	engine   *transfer.Engine
	exporter *slices.Exporter
	mutlog   *mutlog.Log
	sessions *session.Store

	exportDir    string
	exportPrefix string

	displayMu sync.RWMutex
	displays  []Display
}

var _ Commander = (*Adapter)(nil)

// NewAdapter returns an adapter for the store.
func NewAdapter(store *volume.Store, mode volume.RegionMode, format core.PixelFormat) *Adapter {
	return &Adapter{
		store:        store,
		engine:       transfer.NewEngine(store, mode),
		exporter:     slices.NewExporter(format),
		exportPrefix: DefaultExportPrefix,
	}
}

// SetMutationLog sets the log that records every mutation.  Passing nil disables
// logging.
func (a *Adapter) SetMutationLog(l *mutlog.Log) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mutlog = l
	if l == nil {
		a.engine.SetLog(nil)
	} else {
		a.engine.SetLog(l)
	}
}

// SetSessionStore sets the store used for snapshot save and restore.
func (a *Adapter) SetSessionStore(s *session.Store) {
	a.mu.Lock()
	a.sessions = s
	a.mu.Unlock()
}

// SetExportDefaults sets the destination and file prefix used when an export
// request leaves them empty.
func (a *Adapter) SetExportDefaults(dir, prefix string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exportDir = dir
	if prefix != "" {
		a.exportPrefix = prefix
	}
}

// AddDisplay registers a display to be refreshed after mutations.
func (a *Adapter) AddDisplay(d Display) {
	a.displayMu.Lock()
	a.displays = append(a.displays, d)
	a.displayMu.Unlock()
}

// refresh pushes snapshots to the displays.  It must be called without holding a.mu
// so displays never run while a mutation is in progress.
func (a *Adapter) refresh(snapshots map[volume.Which]*volume.Labels) {
	a.displayMu.RLock()
	defer a.displayMu.RUnlock()
	for _, d := range a.displays {
		for _, which := range []volume.Which{volume.Source, volume.Destination} {
			if labels, found := snapshots[which]; found {
				d.Refresh(which, labels.Clone())
			}
		}
	}
}

func (a *Adapter) snapshots(whiches ...volume.Which) map[volume.Which]*volume.Labels {
	snaps := make(map[volume.Which]*volume.Labels, len(whiches))
	for _, which := range whiches {
		snap, err := a.store.Snapshot(which)
		if err != nil {
			core.Errorf("Unable to snapshot %s for display: %v\n", which, err)
			continue
		}
		snaps[which] = snap
	}
	return snaps
}

// RequestTransfer moves the regions under the points from the source to the
// destination volume and then refreshes the displays.
func (a *Adapter) RequestTransfer(points []core.Point3d) (transfer.Result, error) {
	return a.RequestTransferBetween(volume.Source, volume.Destination, points)
}

// RequestTransferBetween moves the regions under the points from one label volume
// into the other, e.g., to return a region from the destination to the source.
func (a *Adapter) RequestTransferBetween(from, to volume.Which, points []core.Point3d) (transfer.Result, error) {
	a.mu.Lock()
	result, err := a.engine.TransferBetween(from, to, points)
	var snaps map[volume.Which]*volume.Labels
	if err == nil && result.Transferred() > 0 {
		snaps = a.snapshots(volume.Source, volume.Destination)
	}
	a.mu.Unlock()

	if len(snaps) != 0 {
		a.refresh(snaps)
	}
	return result, err
}

// RequestExport writes the slices of a label volume.  An empty outDir or prefix
// uses the configured defaults.
func (a *Adapter) RequestExport(ctx context.Context, which volume.Which, outDir, prefix string) (slices.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if outDir == "" {
		outDir = a.exportDir
	}
	if outDir == "" {
		return slices.Result{}, fmt.Errorf("no export directory given and no default configured")
	}
	if prefix == "" {
		prefix = a.exportPrefix
	}
	labels, err := a.store.Labels(which)
	if err != nil {
		return slices.Result{}, err
	}
	result, err := a.exporter.Export(ctx, labels, outDir, prefix)
	if err != nil {
		return result, err
	}
	if a.mutlog != nil {
		if err := a.mutlog.LogExport(which.String(), outDir, result.Written()); err != nil {
			core.Errorf("unable to log export of %s: %v\n", which, err)
		}
	}
	return result, nil
}

// Relabel compacts the labels of a label volume to 1..N and returns the mapping
// from old to new labels.
func (a *Adapter) Relabel(which volume.Which) (map[uint64]uint64, error) {
	a.mu.Lock()
	labels, err := a.store.Labels(which)
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}
	relabeled, mapping := volume.Relabel(labels)
	if err := a.store.Set(which, relabeled); err != nil {
		a.mu.Unlock()
		return nil, err
	}
	if a.mutlog != nil {
		if err := a.mutlog.LogRelabel(which.String(), len(mapping)); err != nil {
			core.Errorf("unable to log relabel of %s: %v\n", which, err)
		}
	}
	snaps := a.snapshots(which)
	a.mu.Unlock()

	a.refresh(snaps)
	return mapping, nil
}

// SaveSession stores a named snapshot of the label volumes.
func (a *Adapter) SaveSession(name string) (session.Info, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sessions == nil {
		return session.Info{}, fmt.Errorf("no session store configured")
	}
	return a.sessions.Save(name, a.store)
}

// RestoreSession replaces the label volumes with a named snapshot.
func (a *Adapter) RestoreSession(name string) (session.Info, error) {
	a.mu.Lock()
	if a.sessions == nil {
		a.mu.Unlock()
		return session.Info{}, fmt.Errorf("no session store configured")
	}
	info, err := a.sessions.Restore(name, a.store)
	if err != nil {
		a.mu.Unlock()
		return info, err
	}
	if a.mutlog != nil {
		if err := a.mutlog.LogRestore(name); err != nil {
			core.Errorf("unable to log restore of %q: %v\n", name, err)
		}
	}
	snaps := a.snapshots(volume.Source, volume.Destination)
	a.mu.Unlock()

	a.refresh(snaps)
	return info, nil
}

// Sessions returns the saved snapshots.
func (a *Adapter) Sessions() ([]session.Info, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sessions == nil {
		return nil, nil
	}
	return a.sessions.List()
}

// Mutations returns all records of the mutation log.
func (a *Adapter) Mutations() ([]mutlog.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mutlog == nil {
		return nil, fmt.Errorf("no mutation log configured")
	}
	return a.mutlog.ReadAll()
}

// VolumeInfo summarizes one volume.
type VolumeInfo struct {
	Volume    string
	Shape     core.Point3d
	MaxLabel  uint64 `json:",omitempty"`
	NumLabels int    `json:",omitempty"`
}

// VolumeInfo returns a summary of one of the held volumes.
func (a *Adapter) VolumeInfo(which volume.Which) (VolumeInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, err := a.store.Get(which)
	if err != nil {
		return VolumeInfo{}, err
	}
	info := VolumeInfo{Volume: which.String(), Shape: v.Shape()}
	if labels, ok := v.(*volume.Labels); ok {
		info.MaxLabel = labels.MaxLabel()
		info.NumLabels = len(labels.Unique())
	}
	return info, nil
}

// WriteSlicePNG writes z-slice of a volume as a PNG.  Label slices use the
// narrowest lossless pixel format and intensity slices are 16-bit grayscale.
func (a *Adapter) WriteSlicePNG(w io.Writer, which volume.Which, z int) error {
	a.mu.Lock()
	v, err := a.store.Get(which)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	_, ny, nx := v.Shape().Dims()
	var img image.Image
	switch typed := v.(type) {
	case *volume.Labels:
		var labels []uint64
		if labels, err = typed.Slice(z); err == nil {
			var format core.PixelFormat
			if format, err = core.AutoFormat.Resolve(maxOf(labels)); err == nil {
				img, err = core.LabelsToImage(labels, nx, ny, format)
			}
		}
	case *volume.Image:
		var vals []uint16
		if vals, err = typed.Slice(z); err == nil {
			img = intensityImage(vals, nx, ny)
		}
	default:
		err = fmt.Errorf("unknown volume type %T", v)
	}
	a.mu.Unlock()
	if err != nil {
		return err
	}
	return core.EncodePNG(w, img)
}

func maxOf(labels []uint64) uint64 {
	var max uint64
	for _, label := range labels {
		if label > max {
			max = label
		}
	}
	return max
}

func intensityImage(vals []uint16, nx, ny int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, nx, ny))
	for i, v := range vals {
		binary.BigEndian.PutUint16(img.Pix[2*i:], v)
	}
	return img
}
