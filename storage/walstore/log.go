package walstore

// Atomic storage for binary blobs, adapted from the teacher's log/log.go:
// each call to Add is a two-phase gob write (a data record, synced, then
// a commit record, synced) so that a crash between the two leaves the
// data record recoverable-but-discarded rather than half-written.

import (
	"encoding/gob"
	"errors"
	"io"
)

var errInvalidLog = errors.New("tupledb: corrupt wal: expected record in data/commit pairs")

type recordType uint8

const (
	invalidRecord recordType = iota
	dataRecord
	commitRecord
)

type walRecord struct {
	Type recordType
	Data []byte
}

// logWriter appends commit-protected blobs to a File.
type logWriter struct {
	f   File
	enc *gob.Encoder
}

func newLogWriter(f File) *logWriter {
	return &logWriter{f: f, enc: gob.NewEncoder(f)}
}

// add commits data as one atomic blob.
func (l *logWriter) add(data []byte) error {
	if err := l.enc.Encode(walRecord{Type: dataRecord, Data: data}); err != nil {
		return err
	}
	if err := l.f.Sync(); err != nil {
		return err
	}
	if err := l.enc.Encode(walRecord{Type: commitRecord}); err != nil {
		return err
	}
	return l.f.Sync()
}

func (l *logWriter) close() error {
	return l.f.Close()
}

// recoverBlobs replays every successfully committed blob from r, in
// append order. A trailing data record with no matching commit record
// (a crash mid-Add) is treated as never having happened.
func recoverBlobs(r io.Reader) (blobs [][]byte, err error) {
	dec := gob.NewDecoder(r)
	for {
		var data walRecord
		if err := dec.Decode(&data); err != nil {
			return blobs, nil
		}
		if data.Type != dataRecord {
			return nil, errInvalidLog
		}
		var commit walRecord
		if err := dec.Decode(&commit); err != nil {
			return blobs, nil
		}
		if commit.Type != commitRecord {
			return nil, errInvalidLog
		}
		blobs = append(blobs, data.Data)
	}
}
