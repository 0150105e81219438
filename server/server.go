package server

import (
	"context"
	"fmt"

	"github.com/blang/semver"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/mutlog"
	"github.com/janelia-flyem/neuropil/session"
	"github.com/janelia-flyem/neuropil/slices"
	"github.com/janelia-flyem/neuropil/volume"
)

// Version is the version of the neuropil server.
var Version = semver.MustParse("0.3.0")

// LoadVolumes reads the slice stacks named in the configuration.  The image stack
// is optional and a missing destination stack yields an empty destination volume.
func LoadVolumes(ctx context.Context) (*volume.Store, error) {
	vc := tc.Volumes
	if vc.Source.Dir == "" {
		return nil, fmt.Errorf("no source label volume given in [volumes.source]")
	}
	src, err := slices.Import(ctx, vc.Source.Dir, vc.Source.Prefix)
	if err != nil {
		return nil, err
	}
	var dst *volume.Labels
	if vc.Destination.Dir != "" {
		if dst, err = slices.Import(ctx, vc.Destination.Dir, vc.Destination.Prefix); err != nil {
			return nil, err
		}
	} else {
		core.Infof("No destination volume configured; starting with empty labels.\n")
		if dst, err = volume.NewEmptyLabels(src.Shape()); err != nil {
			return nil, err
		}
	}
	var img *volume.Image
	if vc.Image.Dir != "" {
		if img, err = slices.ImportImage(ctx, vc.Image.Dir, vc.Image.Prefix); err != nil {
			return nil, err
		}
	}
	store := volume.NewStore()
	if err := store.Load(img, src, dst); err != nil {
		return nil, err
	}
	return store, nil
}

// Initialize returns an adapter for the store using the loaded configuration,
// opening the mutation log and session store if they are configured.  Call
// Shutdown on the adapter when done.
func Initialize(store *volume.Store) (*Adapter, error) {
	a := NewAdapter(store, RegionMode(), ExportFormat())
	a.SetExportDefaults(ExportDir(), ExportPrefix())
	if path := MutationLogPath(); path != "" {
		l, err := mutlog.Open(path)
		if err != nil {
			return nil, err
		}
		a.SetMutationLog(l)
	}
	if path := SessionPath(); path != "" {
		s, err := session.Open(path)
		if err != nil {
			a.Shutdown()
			return nil, err
		}
		s.SetCompression(SessionCompression())
		a.SetSessionStore(s)
	}
	return a, nil
}

// Shutdown closes the mutation log and session store of the adapter.
func (a *Adapter) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mutlog != nil {
		if err := a.mutlog.Close(); err != nil {
			core.Errorf("closing mutation log: %v\n", err)
		}
		a.mutlog = nil
		a.engine.SetLog(nil)
	}
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			core.Errorf("closing session store: %v\n", err)
		}
		a.sessions = nil
	}
}
