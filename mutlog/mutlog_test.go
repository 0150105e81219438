package mutlog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/transfer"
)

func TestRecordEncoding(t *testing.T) {
	r := Record{
		ID:      "2f1c7a4e-0000-4000-8000-000000000001",
		Time:    1234567890,
		Entry:   TransferEntry,
		Point:   core.Point3d{3, -1, 42},
		Outcome: "transferred",
		Label:   1 << 60,
		Voxels:  8,
		Detail:  "",
	}
	b, err := r.MarshalMsg(nil)
	if err != nil {
		t.Fatalf("can't marshal record: %v\n", err)
	}
	if len(b) > r.Msgsize() {
		t.Errorf("encoded size %d exceeds Msgsize %d\n", len(b), r.Msgsize())
	}
	var got Record
	left, err := got.UnmarshalMsg(b)
	if err != nil {
		t.Fatalf("can't unmarshal record: %v\n", err)
	}
	if len(left) != 0 {
		t.Errorf("%d bytes left after unmarshal\n", len(left))
	}
	if got != r {
		t.Errorf("expected %v, got %v\n", r, got)
	}
	if _, err := got.UnmarshalMsg(b[:len(b)-3]); err == nil {
		t.Errorf("expected error on truncated record\n")
	}
}

func TestLogAppendRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mutations.log")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("can't open log: %v\n", err)
	}

	outcomes := []transfer.Outcome{
		{Point: core.Point3d{0, 1, 1}, Kind: transfer.Transferred, Label: 7, Voxels: 8},
		{Point: core.Point3d{0, 0, 0}, Kind: transfer.Skipped, Reason: transfer.SkipBackground},
	}
	for _, o := range outcomes {
		if err := log.LogTransfer(o); err != nil {
			t.Fatalf("can't log transfer: %v\n", err)
		}
	}
	if err := log.LogRelabel("destination", 12); err != nil {
		t.Fatalf("can't log relabel: %v\n", err)
	}
	if err := log.LogExport("destination", "/tmp/out", 3); err != nil {
		t.Fatalf("can't log export: %v\n", err)
	}
	if err := log.LogRestore("before-merge"); err != nil {
		t.Fatalf("can't log restore: %v\n", err)
	}

	records, err := log.ReadAll()
	if err != nil {
		t.Fatalf("can't read log: %v\n", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d\n", len(records))
	}
	if r := records[0]; r.Entry != TransferEntry || r.Label != 7 || r.Voxels != 8 || r.Outcome != "transferred" || r.Point != outcomes[0].Point {
		t.Errorf("bad transfer record: %s\n", &r)
	}
	if r := records[1]; r.Outcome != "skipped" || r.Detail != transfer.SkipBackground {
		t.Errorf("bad skip record: %s\n", &r)
	}
	types := []EntryType{TransferEntry, TransferEntry, RelabelEntry, ExportEntry, RestoreEntry}
	ids := make(map[string]bool)
	for i, r := range records {
		if r.Entry != types[i] {
			t.Errorf("record %d: expected %s, got %s\n", i, types[i], r.Entry)
		}
		if r.ID == "" || ids[r.ID] {
			t.Errorf("record %d: missing or duplicate id %q\n", i, r.ID)
		}
		ids[r.ID] = true
		if r.Time == 0 {
			t.Errorf("record %d: no timestamp\n", i)
		}
	}

	// Reopening appends to the existing log.
	if err := log.Close(); err != nil {
		t.Fatalf("can't close log: %v\n", err)
	}
	if err := log.LogRestore("x"); err == nil {
		t.Errorf("expected error appending to closed log\n")
	}
	log2, err := Open(path)
	if err != nil {
		t.Fatalf("can't reopen log: %v\n", err)
	}
	defer log2.Close()
	if err := log2.LogRestore("again"); err != nil {
		t.Fatalf("can't append after reopen: %v\n", err)
	}
	records, err = ReadFile(path)
	if err != nil || len(records) != 6 {
		t.Fatalf("expected 6 records after reopen, got %d (%v)\n", len(records), err)
	}
}

func TestConcurrentAppend(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "mutations.log"))
	if err != nil {
		t.Fatalf("can't open log: %v\n", err)
	}
	defer log.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				o := transfer.Outcome{Point: core.Point3d{int32(i), int32(j), 0}, Kind: transfer.Transferred, Label: uint64(i*100 + j)}
				if err := log.LogTransfer(o); err != nil {
					t.Errorf("append failed: %v\n", err)
				}
			}
		}(i)
	}
	wg.Wait()
	records, err := log.ReadAll()
	if err != nil {
		t.Fatalf("can't read log: %v\n", err)
	}
	if len(records) != 200 {
		t.Errorf("expected 200 records, got %d\n", len(records))
	}
}

func TestReadErrors(t *testing.T) {
	records, err := ReadFile(filepath.Join(t.TempDir(), "none.log"))
	if err != nil || len(records) != 0 {
		t.Errorf("missing log should have no records: %v\n", err)
	}

	path := filepath.Join(t.TempDir(), "mutations.log")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("can't open log: %v\n", err)
	}
	log.LogRestore("a")
	log.LogRestore("b")
	log.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("can't read log file: %v\n", err)
	}
	records, err = Read(bytes.NewReader(data[:len(data)-2]))
	if err == nil {
		t.Errorf("expected error on truncated log\n")
	}
	if len(records) != 1 {
		t.Errorf("expected the intact first record, got %d\n", len(records))
	}

	var ioErr *core.IOError
	if _, err := Open(filepath.Join(path, "sub", "x.log")); !errors.As(err, &ioErr) {
		t.Errorf("expected IOError opening log under a file, got %v\n", err)
	}
}
