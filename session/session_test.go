package session

import (
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/volume"
)

func testVolumes(t *testing.T) *volume.Store {
	shape := core.Point3d{2, 3, 4}
	n := int(shape.Prod())
	src := make([]uint64, n)
	dst := make([]uint64, n)
	for i := range src {
		src[i] = uint64(i % 5)
		if i%7 == 0 {
			dst[i] = 1 << 40
		}
	}
	img := make([]uint16, n)
	vols := volume.NewStore()
	if err := vols.LoadValues(shape, img, src, dst); err != nil {
		t.Fatalf("can't load volumes: %v\n", err)
	}
	return vols
}

func openStore(t *testing.T) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatalf("can't open session store: %v\n", err)
	}
	return s
}

func TestSaveRestore(t *testing.T) {
	s := openStore(t)
	defer s.Close()

	vols := testVolumes(t)
	origSrc := vols.Source().Clone()
	origDst := vols.Destination().Clone()

	info, err := s.Save("start", vols)
	if err != nil {
		t.Fatalf("can't save snapshot: %v\n", err)
	}
	if info.Shape != vols.Shape() || info.Version != FormatVersion.String() {
		t.Errorf("bad snapshot info: %+v\n", info)
	}
	if info.Labels["source"] != 4 || info.Labels["destination"] != 1 {
		t.Errorf("bad label counts in snapshot info: %v\n", info.Labels)
	}

	// Mutate, then restore.
	vols.Source().SetValue(core.Point3d{0, 0, 1}, 99)
	vols.Destination().SetValue(core.Point3d{1, 2, 3}, 42)
	if vols.Source().Equals(origSrc) {
		t.Fatalf("volume mutation failed\n")
	}
	img := vols.Image()

	if _, err := s.Restore("start", vols); err != nil {
		t.Fatalf("can't restore snapshot: %v\n", err)
	}
	if !vols.Source().Equals(origSrc) || !vols.Destination().Equals(origDst) {
		t.Errorf("restored volumes differ from saved volumes\n")
	}
	if vols.Image() != img {
		t.Errorf("restore replaced the image volume\n")
	}
}

func TestListDeleteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("can't open session store: %v\n", err)
	}
	vols := testVolumes(t)
	for _, name := range []string{"b", "a", "c"} {
		if _, err := s.Save(name, vols); err != nil {
			t.Fatalf("can't save %q: %v\n", name, err)
		}
	}
	if err := s.Delete("c"); err != nil {
		t.Fatalf("can't delete snapshot: %v\n", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("can't close store: %v\n", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("can't reopen session store: %v\n", err)
	}
	defer s.Close()
	infos, err := s.List()
	if err != nil {
		t.Fatalf("can't list snapshots: %v\n", err)
	}
	if len(infos) != 2 || infos[0].Name != "a" || infos[1].Name != "b" {
		t.Errorf("unexpected snapshots after reopen: %v\n", infos)
	}
	if _, err := s.Info("c"); err == nil {
		t.Errorf("deleted snapshot still has info\n")
	}
}

func TestRestoreErrors(t *testing.T) {
	s := openStore(t)
	defer s.Close()

	vols := testVolumes(t)
	if _, err := s.Restore("missing", vols); err == nil {
		t.Errorf("expected error restoring missing snapshot\n")
	}
	if _, err := s.Save("bad/name", vols); err == nil {
		t.Errorf("expected error on bad snapshot name\n")
	}
	if _, err := s.Save("empty", volume.NewStore()); err == nil {
		t.Errorf("expected error saving unloaded store\n")
	}

	// A snapshot can't be restored over an image of a different shape.
	if _, err := s.Save("small", vols); err != nil {
		t.Fatalf("can't save snapshot: %v\n", err)
	}
	other := volume.NewStore()
	shape := core.Point3d{1, 2, 2}
	if err := other.LoadValues(shape, make([]uint16, 4), make([]uint64, 4), make([]uint64, 4)); err != nil {
		t.Fatalf("can't load volumes: %v\n", err)
	}
	if _, err := s.Restore("small", other); err == nil {
		t.Errorf("expected shape error restoring onto different image\n")
	}
	if other.Shape() != shape {
		t.Errorf("failed restore changed the store\n")
	}
}

func TestSaveCompressions(t *testing.T) {
	s := openStore(t)
	defer s.Close()
	if s.Compression() != core.Zstd {
		t.Errorf("expected zstd by default, got %s\n", s.Compression())
	}

	vols := testVolumes(t)
	origSrc := vols.Source().Clone()
	for _, compress := range []core.Compression{core.Snappy, core.Uncompressed, core.Zstd} {
		s.SetCompression(compress)
		info, err := s.Save("snap", vols)
		if err != nil {
			t.Fatalf("can't save with %s: %v\n", compress, err)
		}
		if info.Compression != compress.String() {
			t.Errorf("expected %s in snapshot info, got %q\n", compress, info.Compression)
		}
		vols.Source().SetValue(core.Point3d{0, 0, 0}, 77)
		if _, err := s.Restore("snap", vols); err != nil {
			t.Fatalf("can't restore snapshot saved with %s: %v\n", compress, err)
		}
		if !vols.Source().Equals(origSrc) {
			t.Errorf("snapshot saved with %s restored different labels\n", compress)
		}
	}

	// Snapshots restore regardless of the compression currently set.
	s.SetCompression(core.Snappy)
	if _, err := s.Save("snappy", vols); err != nil {
		t.Fatalf("can't save: %v\n", err)
	}
	s.SetCompression(core.Zstd)
	if _, err := s.Restore("snappy", vols); err != nil {
		t.Errorf("can't restore snappy snapshot with zstd set: %v\n", err)
	}
}
