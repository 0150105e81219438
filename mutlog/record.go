package mutlog

import (
	"fmt"
	"time"

	"github.com/janelia-flyem/neuropil/core"
)

//go:generate msgp -tuple -io=false -tests=false

// EntryType identifies the kind of mutation held in a log record.
type EntryType uint16

const (
	TransferEntry EntryType = iota + 1
	RelabelEntry
	ExportEntry
	RestoreEntry
)

func (t EntryType) String() string {
	switch t {
	case TransferEntry:
		return "transfer"
	case RelabelEntry:
		return "relabel"
	case ExportEntry:
		return "export"
	case RestoreEntry:
		return "restore"
	default:
		return fmt.Sprintf("entry(%d)", uint16(t))
	}
}

// MarshalText encodes the entry type by name.
func (t EntryType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes an entry type name.
func (t *EntryType) UnmarshalText(b []byte) error {
	for _, et := range []EntryType{TransferEntry, RelabelEntry, ExportEntry, RestoreEntry} {
		if et.String() == string(b) {
			*t = et
			return nil
		}
	}
	return fmt.Errorf("unknown mutation entry type %q", string(b))
}

// Record is one mutation applied to the volumes of a session.  Fields that don't
// apply to an entry type are left at their zero values.
type Record struct {
	ID      string
	Time    int64 // unix nanoseconds
	Entry   EntryType
	Point   core.Point3d
	Outcome string `json:",omitempty"`
	Label   uint64 `json:",omitempty"`
	Voxels  int64  `json:",omitempty"`
	Detail  string `json:",omitempty"`
}

// Timestamp returns the record time.
func (r *Record) Timestamp() time.Time {
	return time.Unix(0, r.Time)
}

func (r *Record) String() string {
	ts := r.Timestamp().Format(time.RFC3339)
	switch r.Entry {
	case TransferEntry:
		return fmt.Sprintf("%s %s %s at %s: %s label %d, %d voxels %s", r.ID, ts, r.Entry, r.Point, r.Outcome, r.Label, r.Voxels, r.Detail)
	default:
		return fmt.Sprintf("%s %s %s: %s", r.ID, ts, r.Entry, r.Detail)
	}
}
