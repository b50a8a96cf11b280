// Encoding for build records.
//
// Build keys are big-endian uint64 sequence numbers so a cursor walks them in
// save order. Values are JSON; entries keep their table order.
package bbolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/corey/ramdisk/internal/ports"
)

// seqKey encodes a sequence number as a sortable bucket key.
func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// keySeq decodes a key written by seqKey.
func keySeq(key []byte) (uint64, error) {
	if len(key) != 8 {
		return 0, fmt.Errorf("build key length %d, want 8", len(key))
	}
	return binary.BigEndian.Uint64(key), nil
}

func encodeBuild(b *ports.Build) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal build: %w", err)
	}
	return data, nil
}

func decodeBuild(data []byte) (*ports.Build, error) {
	var b ports.Build
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("unmarshal build: %w", err)
	}
	for i, e := range b.Entries {
		if e.Index != i {
			return nil, fmt.Errorf("build %d: entry %d has index %d", b.Seq, i, e.Index)
		}
	}
	if b.FileCount != len(b.Entries) {
		return nil, fmt.Errorf("build %d: file count %d, %d entries", b.Seq, b.FileCount, len(b.Entries))
	}
	return &b, nil
}
