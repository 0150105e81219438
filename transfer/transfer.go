/*
	Package transfer moves labeled regions from the source label volume of a store
	into its destination label volume at user-picked query points.  Regions can also
	be moved back from the destination into the source.

	Points are processed in order and each is an independent step: a point landing
	on background is skipped, a point outside the volume fails without touching
	either volume, and the effects of earlier points are never rolled back.
*/
package transfer

import (
	"errors"
	"fmt"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/volume"
)

// Kind is the outcome of transferring at one query point.
type Kind uint8

const (
	Transferred Kind = iota
	Skipped
	Failed
)

func (k Kind) String() string {
	switch k {
	case Transferred:
		return "transferred"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalText encodes the kind by name for JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "transferred":
		*k = Transferred
	case "skipped":
		*k = Skipped
	case "failed":
		*k = Failed
	default:
		return fmt.Errorf("unknown transfer outcome %q", string(b))
	}
	return nil
}

// SkipBackground is the reason given for points that land on label 0.
const SkipBackground = "background"

// Outcome reports what happened at one query point.
type Outcome struct {
	Point  core.Point3d
	Kind   Kind
	From   volume.Which
	To     volume.Which
	Label  uint64 `json:",omitempty"`
	Voxels int    `json:",omitempty"`
	Reason string `json:",omitempty"`
	Err    error  `json:"-"`
}

func (o Outcome) String() string {
	switch o.Kind {
	case Transferred:
		return fmt.Sprintf("%s: transferred label %d (%d voxels)", o.Point, o.Label, o.Voxels)
	case Skipped:
		return fmt.Sprintf("%s: skipped (%s)", o.Point, o.Reason)
	default:
		return fmt.Sprintf("%s: failed: %v", o.Point, o.Err)
	}
}

// Result holds one outcome per query point, in the order given.
type Result struct {
	Outcomes []Outcome
}

func (r Result) count(k Kind) int {
	var n int
	for _, o := range r.Outcomes {
		if o.Kind == k {
			n++
		}
	}
	return n
}

// Transferred returns the number of points that moved a region.
func (r Result) Transferred() int { return r.count(Transferred) }

// Skipped returns the number of points that were no-ops.
func (r Result) Skipped() int { return r.count(Skipped) }

// Failed returns the number of points that failed.
func (r Result) Failed() int { return r.count(Failed) }

// Voxels returns the total number of voxels moved.
func (r Result) Voxels() int {
	var n int
	for _, o := range r.Outcomes {
		n += o.Voxels
	}
	return n
}

// Err returns the joined errors of all failed points or nil.
func (r Result) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Kind == Failed {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Logger records every attempted point, e.g., to a mutation log.
type Logger interface {
	LogTransfer(o Outcome) error
}

// Engine performs label transfers on the volumes of a store.
type Engine struct {
	store *volume.Store
	mode  volume.RegionMode
	log   Logger
}

// NewEngine returns an engine working on the given store.
func NewEngine(store *volume.Store, mode volume.RegionMode) *Engine {
	return &Engine{store: store, mode: mode}
}

// SetLog sets the mutation logger.  Passing nil disables logging.
func (e *Engine) SetLog(l Logger) {
	e.log = l
}

// Mode returns how regions are selected.
func (e *Engine) Mode() volume.RegionMode {
	return e.mode
}

// SetMode sets how regions are selected.
func (e *Engine) SetMode(mode volume.RegionMode) {
	e.mode = mode
}

// Transfer moves the region under each point from the source to the destination
// label volume.  An error is returned only if the store has no label volumes; all
// per-point failures are reported in the result.
func (e *Engine) Transfer(points []core.Point3d) (Result, error) {
	return e.TransferBetween(volume.Source, volume.Destination, points)
}

// TransferBetween moves the region under each point from one label volume of the
// store into the other, e.g., from the destination back into the source.
func (e *Engine) TransferBetween(from, to volume.Which, points []core.Point3d) (Result, error) {
	result := Result{Outcomes: make([]Outcome, 0, len(points))}
	if len(points) == 0 {
		return result, nil
	}
	if from == to {
		return result, &core.AliasError{First: from.String(), Second: to.String()}
	}
	src, err := e.store.Labels(from)
	if err != nil {
		return result, err
	}
	dst, err := e.store.Labels(to)
	if err != nil {
		return result, err
	}
	if src.Shape() != dst.Shape() {
		return result, &core.ShapeMismatchError{Name: to.String(), Expected: src.Shape(), Got: dst.Shape()}
	}

	timedLog := core.NewTimeLog()
	for _, pt := range points {
		o := e.transferPoint(src, dst, pt)
		o.From, o.To = from, to
		result.Outcomes = append(result.Outcomes, o)
		if e.log != nil {
			if err := e.log.LogTransfer(o); err != nil {
				core.Errorf("unable to log transfer at %s: %v\n", pt, err)
			}
		}
		core.Debugf("%s\n", o)
	}
	timedLog.Infof("Transfer of %d points from %s to %s: %d transferred (%d voxels), %d skipped, %d failed",
		len(points), from, to, result.Transferred(), result.Voxels(), result.Skipped(), result.Failed())
	return result, nil
}

func (e *Engine) transferPoint(src, dst *volume.Labels, pt core.Point3d) Outcome {
	label, offsets, err := src.Region(pt, e.mode)
	if err != nil {
		return Outcome{Point: pt, Kind: Failed, Reason: err.Error(), Err: err}
	}
	if label == 0 {
		return Outcome{Point: pt, Kind: Skipped, Reason: SkipBackground}
	}
	srcData, dstData := src.Data(), dst.Data()
	for _, i := range offsets {
		srcData[i] = 0
		dstData[i] = label
	}
	return Outcome{Point: pt, Kind: Transferred, Label: label, Voxels: len(offsets)}
}
