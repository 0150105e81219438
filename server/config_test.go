package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/slices"
	"github.com/janelia-flyem/neuropil/volume"
)

const testConfig = `
[server]
httpAddress = "localhost:9000"
region_mode = "connected"

[logging]
logfile = "logs/neuropil.log"
max_log_size = 10
max_log_age = 2

[export]
format = "gray16"
prefix = "lbl"
dir = "exports"

[mutations]
logfile = "mutations.log"

[session]
path = "sessions"
compression = "snappy"

[volumes.source]
dir = "seg"
prefix = "seg"
`

func writeConfig(t *testing.T, dir, contents string) string {
	filename := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(filename, []byte(contents), 0644); err != nil {
		t.Fatalf("can't write config: %v\n", err)
	}
	return filename
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	filename := writeConfig(t, dir, testConfig)
	if err := LoadConfig(filename, ""); err != nil {
		t.Fatalf("can't load config: %v\n", err)
	}
	if HTTPAddress() != "localhost:9000" {
		t.Errorf("bad http address: %s\n", HTTPAddress())
	}
	if RegionMode() != volume.Connected || ExportFormat() != core.Gray16 || ExportPrefix() != "lbl" {
		t.Errorf("bad parsed settings: %s %s %s\n", RegionMode(), ExportFormat(), ExportPrefix())
	}
	if ExportDir() != filepath.Join(dir, "exports") || SessionPath() != filepath.Join(dir, "sessions") {
		t.Errorf("relative paths not made absolute: %s, %s\n", ExportDir(), SessionPath())
	}
	if SessionCompression() != core.Snappy {
		t.Errorf("bad session compression: %s\n", SessionCompression())
	}
	if LogConfig().Logfile != filepath.Join(dir, "logs", "neuropil.log") || LogConfig().MaxSize != 10 {
		t.Errorf("bad logging config: %+v\n", LogConfig())
	}

	if err := LoadConfig(filename, "localhost:7000"); err != nil {
		t.Fatalf("can't load config: %v\n", err)
	}
	if HTTPAddress() != "localhost:7000" {
		t.Errorf("address override ignored: %s\n", HTTPAddress())
	}

	bad := writeConfig(t, t.TempDir(), "[export]\nformat = \"gray12\"\n")
	if err := LoadConfig(bad, ""); err == nil {
		t.Errorf("expected error on bad pixel format\n")
	}
	bad = writeConfig(t, t.TempDir(), "[session]\ncompression = \"lz4\"\n")
	if err := LoadConfig(bad, ""); err == nil {
		t.Errorf("expected error on bad session compression\n")
	}
	if err := LoadConfig(filepath.Join(dir, "missing.toml"), ""); err == nil {
		t.Errorf("expected error on missing config\n")
	}
}

func TestInitializeFromConfig(t *testing.T) {
	dir := t.TempDir()
	filename := writeConfig(t, dir, testConfig)
	if err := LoadConfig(filename, ""); err != nil {
		t.Fatalf("can't load config: %v\n", err)
	}
	if _, err := LoadVolumes(context.Background()); err == nil {
		t.Fatalf("expected error loading missing source stack\n")
	}

	// Write the source stack the config points to.
	segDir := filepath.Join(dir, "seg")
	if err := os.Mkdir(segDir, 0755); err != nil {
		t.Fatalf("can't make seg dir: %v\n", err)
	}
	src := cuboidStore(t).Source()
	if _, err := slices.NewExporter(core.AutoFormat).Export(context.Background(), src, segDir, "seg"); err != nil {
		t.Fatalf("can't write source stack: %v\n", err)
	}

	store, err := LoadVolumes(context.Background())
	if err != nil {
		t.Fatalf("can't load volumes: %v\n", err)
	}
	if !store.Source().Equals(src) || len(store.Destination().Unique()) != 0 || store.Image() != nil {
		t.Errorf("bad volumes loaded from config\n")
	}

	a, err := Initialize(store)
	if err != nil {
		t.Fatalf("can't initialize adapter: %v\n", err)
	}
	defer a.Shutdown()
	result, err := a.RequestTransfer([]core.Point3d{{0, 1, 1}})
	if err != nil || result.Voxels() != 8 {
		t.Fatalf("bad transfer: %v, %v\n", result.Outcomes, err)
	}
	if err := os.Mkdir(ExportDir(), 0755); err != nil {
		t.Fatalf("can't make export dir: %v\n", err)
	}
	exp, err := a.RequestExport(context.Background(), volume.Destination, "", "")
	if err != nil {
		t.Fatalf("export with defaults failed: %v\n", err)
	}
	if exp.Format != "gray16" || exp.Slices[0].Path != filepath.Join(dir, "exports", "lbl_000.png") {
		t.Errorf("bad default export: %+v\n", exp)
	}
	if _, err := os.Stat(filepath.Join(dir, "mutations.log")); err != nil {
		t.Errorf("mutation log not created: %v\n", err)
	}

	// Snapshots use the configured snappy compression and restore from it.
	info, err := a.SaveSession("transferred")
	if err != nil {
		t.Fatalf("can't save session: %v\n", err)
	}
	if info.Compression != core.Snappy.String() {
		t.Errorf("expected snappy snapshot, got %q\n", info.Compression)
	}
	if _, err := a.RequestTransfer([]core.Point3d{{2, 3, 3}}); err != nil {
		t.Fatalf("bad transfer: %v\n", err)
	}
	if _, err := a.RestoreSession("transferred"); err != nil {
		t.Fatalf("can't restore snappy session: %v\n", err)
	}
	if store.Destination().Count(7) != 8 || store.Destination().Count(9) != 0 || store.Source().Count(9) != 1 {
		t.Errorf("bad volumes after restoring snappy session\n")
	}
}
