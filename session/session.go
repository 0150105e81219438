/*
	Package session saves and restores named snapshots of the label volumes of a
	curation session in an embedded badger key-value store.

	Each snapshot is kept under three keys: a JSON metadata record and the source and
	destination label arrays, which are compressed (zstd unless set otherwise) and
	carry a CRC32 checksum.  The compression is recorded with the stored data, so
	snapshots saved with any compression can be restored.
*/
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blang/semver"
	badger "github.com/dgraph-io/badger/v3"
	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/volume"
)

// FormatVersion is the version of the snapshot encoding written by this package.
// Snapshots with a different major version cannot be restored.
var FormatVersion = semver.MustParse("1.0.0")

// SyncInterval is how often buffered writes are synced to disk.
var SyncInterval = 30 * time.Second

const keyPrefix = "snapshot/"

// Info describes a saved snapshot.
type Info struct {
	Name    string
	Version string
	Created time.Time
	Shape   core.Point3d
	Labels  map[string]int // number of distinct non-zero labels per volume
	Bytes   uint64         // stored size after compression

	Compression string `json:",omitempty"`
}

// Store holds named snapshots.  It is safe for concurrent use.
type Store struct {
	path string
	db   *badger.DB

	// compression of label arrays written by Save
	compression core.Compression

	// stopSyncCh is used to signal the sync goroutine to stop.
	stopSyncCh chan struct{}
	syncDone   sync.WaitGroup
}

// badgerLogger routes badger messages to the package logs, demoting badger's
// chatty informational output to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	core.Errorf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	core.Warningf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	core.Debugf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	core.Debugf("badger: "+format, args...)
}

// Open returns the snapshot store at path, creating it if it doesn't exist.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		core.Infof("Session store not already at path (%s). Creating directory...\n", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, &core.IOError{Op: "create session store", Path: path, Err: err}
		}
	}
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{})
	opts.NumVersionsToKeep = 1
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &core.IOError{Op: "open session store", Path: path, Err: err}
	}
	s := &Store{
		path:        path,
		db:          db,
		stopSyncCh:  make(chan struct{}),
		compression: core.Zstd,
	}
	s.syncDone.Add(1)
	go s.syncPeriodically()
	core.Infof("Opened session store @ %s\n", path)
	return s, nil
}

// Periodically sync to prevent too many writes from being buffered
// if the process crashes.
func (s *Store) syncPeriodically() {
	defer s.syncDone.Done()
	ticker := time.NewTicker(SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopSyncCh:
			core.Debugf("Stopping sync goroutine for session store @ %s\n", s.path)
			return
		case <-ticker.C:
			if err := s.db.Sync(); err != nil {
				core.Errorf("Sync of session store @ %s failed: %v\n", s.path, err)
			}
		}
	}
}

// Close stops the sync goroutine and closes the store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	close(s.stopSyncCh)
	s.syncDone.Wait()
	err := s.db.Close()
	s.db = nil
	core.Infof("Closed session store @ %s\n", s.path)
	return err
}

// SetCompression sets the compression of label arrays in later saves.  It should
// be called before the store is shared.
func (s *Store) SetCompression(compress core.Compression) {
	s.compression = compress
}

// Compression returns the compression used for saving label arrays.
func (s *Store) Compression() core.Compression {
	return s.compression
}

func (s *Store) String() string {
	return fmt.Sprintf("session store @ %s", s.path)
}

func metaKey(name string) []byte {
	return []byte(keyPrefix + name + "/meta")
}

func volumeKey(name string, which volume.Which) []byte {
	return []byte(keyPrefix + name + "/" + which.String())
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("bad snapshot name %q", name)
	}
	return nil
}

// Save stores the current source and destination label volumes under the given
// name, replacing any earlier snapshot of that name.
func (s *Store) Save(name string, vols *volume.Store) (Info, error) {
	if err := checkName(name); err != nil {
		return Info{}, err
	}
	if !vols.Loaded() {
		return Info{}, fmt.Errorf("no label volumes to save in snapshot %q", name)
	}
	timedLog := core.NewTimeLog()
	compress := s.Compression()
	info := Info{
		Name:        name,
		Version:     FormatVersion.String(),
		Created:     time.Now(),
		Shape:       vols.Shape(),
		Labels:      make(map[string]int, 2),
		Compression: compress.String(),
	}
	encoded := make(map[volume.Which][]byte, 2)
	for _, which := range []volume.Which{volume.Source, volume.Destination} {
		labels, err := vols.Labels(which)
		if err != nil {
			return Info{}, err
		}
		data, err := core.SerializeData(core.Uint64sToBytes(labels.Data()), compress, core.CRC32)
		if err != nil {
			return Info{}, fmt.Errorf("unable to serialize %s for snapshot %q: %v", which, name, err)
		}
		encoded[which] = data
		info.Labels[which.String()] = len(labels.Unique())
		info.Bytes += uint64(len(data))
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return Info{}, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(metaKey(name), meta); err != nil {
			return err
		}
		for which, data := range encoded {
			if err := txn.Set(volumeKey(name, which), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Info{}, fmt.Errorf("unable to store snapshot %q: %v", name, err)
	}
	timedLog.Infof("Saved snapshot %q of shape %s (%s)", name, info.Shape, humanize.Bytes(info.Bytes))
	return info, nil
}

func (s *Store) getInfo(txn *badger.Txn, name string) (Info, error) {
	var info Info
	item, err := txn.Get(metaKey(name))
	if err == badger.ErrKeyNotFound {
		return info, fmt.Errorf("no snapshot named %q", name)
	}
	if err != nil {
		return info, err
	}
	meta, err := item.ValueCopy(nil)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(meta, &info); err != nil {
		return info, fmt.Errorf("bad metadata for snapshot %q: %v", name, err)
	}
	return info, nil
}

// Restore replaces the source and destination label volumes of vols with the
// named snapshot.  The image volume is kept and must match the snapshot shape.
// On error vols is unchanged.
func (s *Store) Restore(name string, vols *volume.Store) (Info, error) {
	if err := checkName(name); err != nil {
		return Info{}, err
	}
	timedLog := core.NewTimeLog()
	var info Info
	labels := make(map[volume.Which]*volume.Labels, 2)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if info, err = s.getInfo(txn, name); err != nil {
			return err
		}
		version, err := semver.Make(info.Version)
		if err != nil {
			return fmt.Errorf("snapshot %q has bad format version %q: %v", name, info.Version, err)
		}
		if version.Major != FormatVersion.Major {
			return fmt.Errorf("snapshot %q has format %s, incompatible with %s", name, version, FormatVersion)
		}
		for _, which := range []volume.Which{volume.Source, volume.Destination} {
			item, err := txn.Get(volumeKey(name, which))
			if err != nil {
				return fmt.Errorf("snapshot %q is missing %s: %v", name, which, err)
			}
			stored, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			data, _, err := core.DeserializeData(stored, true)
			if err != nil {
				return fmt.Errorf("snapshot %q has corrupt %s: %v", name, which, err)
			}
			vals, err := core.BytesToUint64s(data)
			if err != nil {
				return err
			}
			if labels[which], err = volume.NewLabels(which.String(), info.Shape, vals); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return info, err
	}
	if err := vols.Load(vols.Image(), labels[volume.Source], labels[volume.Destination]); err != nil {
		return info, err
	}
	timedLog.Infof("Restored snapshot %q of shape %s", name, info.Shape)
	return info, nil
}

// Info returns the metadata of a snapshot.
func (s *Store) Info(name string) (info Info, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		info, err = s.getInfo(txn, name)
		return err
	})
	return
}

// List returns the metadata of all snapshots sorted by name.
func (s *Store) List() ([]Info, error) {
	var infos []Info
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), "/meta") {
				continue
			}
			meta, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var info Info
			if err := json.Unmarshal(meta, &info); err != nil {
				return fmt.Errorf("bad metadata at key %q: %v", item.Key(), err)
			}
			infos = append(infos, info)
		}
		return nil
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, err
}

// Delete removes a snapshot.  Deleting a missing snapshot is not an error.
func (s *Store) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{metaKey(name), volumeKey(name, volume.Source), volumeKey(name, volume.Destination)} {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
