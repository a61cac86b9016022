package gen

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/brianwhu/xillium-sub000/internal/crud"
)

// SnapshotVersion identifies the snapshot layout.
const SnapshotVersion = 1

type snapshot struct {
	Version     int                `msgpack:"version"`
	Descriptors []*crud.Descriptor `msgpack:"descriptors"`
}

// WriteSnapshot encodes descriptors to w.
func WriteSnapshot(w io.Writer, descriptors []*crud.Descriptor) error {
	if err := msgpack.NewEncoder(w).Encode(snapshot{Version: SnapshotVersion, Descriptors: descriptors}); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes descriptors written by WriteSnapshot.
func ReadSnapshot(r io.Reader) ([]*crud.Descriptor, error) {
	var s snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return s.Descriptors, nil
}
