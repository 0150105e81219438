/*
	Package mutlog keeps an append-only file of the mutations made to a curation
	session so edits can be audited after the fact.

	Each entry is a 6 byte header, a little-endian uint16 entry type and uint32 data
	size, followed by the msgpack encoding of a Record.
*/
package mutlog

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/twinj/uuid"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/transfer"
	"github.com/janelia-flyem/neuropil/volume"
)

const headerSize = 6

// Log is a file-based mutation log that is safe for concurrent use.
type Log struct {
	path string

	sync.Mutex
	f *os.File
}

// Open opens the log at path for appending, creating it and its parent
// directories if necessary.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &core.IOError{Op: "create mutation log dir", Path: filepath.Dir(path), Err: err}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND|os.O_SYNC, 0644)
	if err != nil {
		return nil, &core.IOError{Op: "open mutation log", Path: path, Err: err}
	}
	core.Infof("Opened mutation log at %s\n", path)
	return &Log{path: path, f: f}, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes a record to the log.  A record without an ID or time gets a new
// UUID and the current time.
func (l *Log) Append(r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewV4().String()
	}
	if r.Time == 0 {
		r.Time = time.Now().UnixNano()
	}
	data, err := r.MarshalMsg(nil)
	if err != nil {
		return fmt.Errorf("unable to encode mutation %s: %v", r.ID, err)
	}
	buf := make([]byte, headerSize, headerSize+len(data))
	binary.LittleEndian.PutUint16(buf[:2], uint16(r.Entry))
	binary.LittleEndian.PutUint32(buf[2:], uint32(len(data)))
	buf = append(buf, data...)

	l.Lock()
	defer l.Unlock()
	if l.f == nil {
		return fmt.Errorf("append to closed mutation log %s", l.path)
	}
	if _, err := l.f.Write(buf); err != nil {
		return &core.IOError{Op: "append mutation log", Path: l.path, Err: err}
	}
	return nil
}

// LogTransfer records the outcome of a transfer at one point.  Transfers back
// from the destination note their direction in the record detail.
func (l *Log) LogTransfer(o transfer.Outcome) error {
	detail := o.Reason
	if o.From == volume.Destination {
		detail = strings.TrimSpace(fmt.Sprintf("%s -> %s %s", o.From, o.To, o.Reason))
	}
	return l.Append(&Record{
		Entry:   TransferEntry,
		Point:   o.Point,
		Outcome: o.Kind.String(),
		Label:   o.Label,
		Voxels:  int64(o.Voxels),
		Detail:  detail,
	})
}

// LogRelabel records a sequential relabeling that left numLabels labels.
func (l *Log) LogRelabel(vol string, numLabels int) error {
	return l.Append(&Record{
		Entry:  RelabelEntry,
		Label:  uint64(numLabels),
		Detail: vol,
	})
}

// LogExport records an export of a volume to the given destination.
func (l *Log) LogExport(vol, dest string, written int) error {
	return l.Append(&Record{
		Entry:  ExportEntry,
		Voxels: int64(written),
		Detail: fmt.Sprintf("%s -> %s", vol, dest),
	})
}

// LogRestore records the restore of a session snapshot.
func (l *Log) LogRestore(name string) error {
	return l.Append(&Record{Entry: RestoreEntry, Detail: name})
}

// ReadAll returns all records written so far.
func (l *Log) ReadAll() ([]Record, error) {
	l.Lock()
	defer l.Unlock()
	return ReadFile(l.path)
}

// Close closes the log.  Further appends fail.
func (l *Log) Close() error {
	l.Lock()
	defer l.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// ReadFile returns the records of the mutation log file at path.  A missing file
// holds no records.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &core.IOError{Op: "read mutation log", Path: path, Err: err}
	}
	defer f.Close()
	return Read(f)
}

// Read decodes log entries until EOF.
func Read(r io.Reader) ([]Record, error) {
	var records []Record
	hdrbuf := make([]byte, headerSize)
	for {
		_, err := io.ReadFull(r, hdrbuf)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("bad mutation log header after %d records: %v", len(records), err)
		}
		entryType := EntryType(binary.LittleEndian.Uint16(hdrbuf[0:2]))
		size := binary.LittleEndian.Uint32(hdrbuf[2:])
		databuf := make([]byte, size)
		if _, err = io.ReadFull(r, databuf); err != nil {
			return records, fmt.Errorf("truncated mutation log entry after %d records: %v", len(records), err)
		}
		var rec Record
		if _, err := rec.UnmarshalMsg(databuf); err != nil {
			return records, fmt.Errorf("bad mutation log entry after %d records: %v", len(records), err)
		}
		if rec.Entry != entryType {
			return records, fmt.Errorf("mutation log entry %s has type %s but header says %s", rec.ID, rec.Entry, entryType)
		}
		records = append(records, rec)
	}
}
