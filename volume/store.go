package volume

import (
	"fmt"
	"strings"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/neuropil/core"
)

// Which identifies one of the volumes held by a Store.
type Which uint8

const (
	ImageVolume Which = iota
	Source
	Destination
)

func (w Which) String() string {
	switch w {
	case ImageVolume:
		return "image"
	case Source:
		return "source"
	case Destination:
		return "destination"
	default:
		return fmt.Sprintf("volume(%d)", uint8(w))
	}
}

// MarshalText encodes the volume by name.
func (w Which) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText decodes a volume name accepted by ParseWhich.
func (w *Which) UnmarshalText(b []byte) error {
	which, err := ParseWhich(string(b))
	if err != nil {
		return err
	}
	*w = which
	return nil
}

// ParseWhich parses a volume name as used in the HTTP API and configuration.
func ParseWhich(s string) (Which, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "images", "grayscale":
		return ImageVolume, nil
	case "source", "src", "from":
		return Source, nil
	case "destination", "dest", "dst", "to":
		return Destination, nil
	default:
		return 0, fmt.Errorf("unknown volume %q, expected image, source or destination", s)
	}
}

// Volume is satisfied by both label and image volumes.
type Volume interface {
	Shape() core.Point3d
	String() string
}

// Store exclusively owns the image volume and the source and destination label
// volumes of one curation session.  All volumes share one (z, y, x) shape.  Label
// volumes handed to a Store are copied, so later changes by the caller don't reach
// the store.  Images are immutable and are kept as given.  A Store does no locking;
// callers that share it across goroutines must serialize access.
type Store struct {
	image       *Image
	source      *Labels
	destination *Labels
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces all volumes at once with copies of the given label volumes.  The
// image may be nil if no intensity data is available.  The source and destination
// must be distinct volumes.  On error the store is left unchanged.
func (s *Store) Load(image *Image, source, destination *Labels) error {
	if err := checkVolumes(image, source, destination); err != nil {
		return err
	}
	s.replace(image, source.Clone(), destination.Clone())
	return nil
}

func checkVolumes(image *Image, source, destination *Labels) error {
	if source == nil || destination == nil {
		return fmt.Errorf("source and destination label volumes are required")
	}
	if source == destination {
		return &core.AliasError{First: Source.String(), Second: Destination.String()}
	}
	if image != nil && source.Shape() != image.Shape() {
		return &core.ShapeMismatchError{Name: Source.String(), Expected: image.Shape(), Got: source.Shape()}
	}
	if destination.Shape() != source.Shape() {
		return &core.ShapeMismatchError{Name: Destination.String(), Expected: source.Shape(), Got: destination.Shape()}
	}
	return nil
}

func (s *Store) replace(image *Image, source, destination *Labels) {
	s.image = image
	s.source = source
	s.destination = destination
	core.Infof("Loaded volumes of shape %s using %s\n", source.Shape(), humanize.Bytes(s.Footprint()))
}

// LoadValues converts host arrays into volumes and loads them.  Label arrays holding
// negative or non-integral values return a DtypeError.
func (s *Store) LoadValues(shape core.Point3d, image, source, destination interface{}) error {
	var img *Image
	if image != nil {
		var err error
		if img, err = NewImage(shape, image); err != nil {
			return err
		}
	}
	src, err := NewLabels(Source.String(), shape, source)
	if err != nil {
		return err
	}
	dst, err := NewLabels(Destination.String(), shape, destination)
	if err != nil {
		return err
	}
	if err := checkVolumes(img, src, dst); err != nil {
		return err
	}
	s.replace(img, src, dst)
	return nil
}

// Loaded returns true if label volumes are available.
func (s *Store) Loaded() bool {
	return s.source != nil && s.destination != nil
}

// Shape returns the shared shape of the held volumes.
func (s *Store) Shape() core.Point3d {
	switch {
	case s.source != nil:
		return s.source.Shape()
	case s.image != nil:
		return s.image.Shape()
	default:
		return core.Point3d{}
	}
}

// Get returns one of the held volumes.
func (s *Store) Get(which Which) (Volume, error) {
	switch which {
	case ImageVolume:
		if s.image == nil {
			return nil, fmt.Errorf("no image volume loaded")
		}
		return s.image, nil
	case Source, Destination:
		return s.Labels(which)
	default:
		return nil, fmt.Errorf("unknown volume %s", which)
	}
}

// Labels returns the source or destination label volume.
func (s *Store) Labels(which Which) (*Labels, error) {
	var l *Labels
	switch which {
	case Source:
		l = s.source
	case Destination:
		l = s.destination
	default:
		return nil, fmt.Errorf("%s is not a label volume", which)
	}
	if l == nil {
		return nil, fmt.Errorf("no %s label volume loaded", which)
	}
	return l, nil
}

// Source returns the source label volume or nil if not loaded.
func (s *Store) Source() *Labels {
	return s.source
}

// Destination returns the destination label volume or nil if not loaded.
func (s *Store) Destination() *Labels {
	return s.destination
}

// Image returns the intensity volume or nil if not loaded.
func (s *Store) Image() *Image {
	return s.image
}

// Set replaces one volume.  The replacement must match the shape of the other
// volumes already held, and a label volume is copied into the store.  Setting a
// label volume to the store's other label volume returns an AliasError.
func (s *Store) Set(which Which, v Volume) error {
	if v == nil {
		return fmt.Errorf("cannot set %s to nil volume", which)
	}
	for _, other := range s.others(which) {
		if other.Shape() != v.Shape() {
			return &core.ShapeMismatchError{Name: which.String(), Expected: other.Shape(), Got: v.Shape()}
		}
	}
	switch which {
	case ImageVolume:
		img, ok := v.(*Image)
		if !ok {
			return fmt.Errorf("image volume must be intensity data, got %s", v)
		}
		s.image = img
	case Source, Destination:
		l, ok := v.(*Labels)
		if !ok {
			return &core.DtypeError{Name: which.String(), Index: -1, Reason: fmt.Sprintf("must be label data, got %s", v)}
		}
		if which == Source && l == s.destination {
			return &core.AliasError{First: Source.String(), Second: Destination.String()}
		}
		if which == Destination && l == s.source {
			return &core.AliasError{First: Source.String(), Second: Destination.String()}
		}
		if which == Source {
			s.source = l.Clone()
		} else {
			s.destination = l.Clone()
		}
	default:
		return fmt.Errorf("unknown volume %s", which)
	}
	return nil
}

func (s *Store) others(which Which) []Volume {
	var vols []Volume
	if which != ImageVolume && s.image != nil {
		vols = append(vols, s.image)
	}
	if which != Source && s.source != nil {
		vols = append(vols, s.source)
	}
	if which != Destination && s.destination != nil {
		vols = append(vols, s.destination)
	}
	return vols
}

// Snapshot returns a copy of a label volume suitable for handing to a display.
func (s *Store) Snapshot(which Which) (*Labels, error) {
	l, err := s.Labels(which)
	if err != nil {
		return nil, err
	}
	return l.Clone(), nil
}

// Footprint returns the approximate number of bytes held by the store's volumes.
func (s *Store) Footprint() uint64 {
	var n int
	if s.image != nil {
		n += size.Of(s.image.data)
	}
	if s.source != nil {
		n += size.Of(s.source.data)
	}
	if s.destination != nil {
		n += size.Of(s.destination.data)
	}
	if n < 0 {
		return 0
	}
	return uint64(n)
}
