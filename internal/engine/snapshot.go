package engine

import (
	"encoding/json"
	"fmt"
	"log"

	"hyperfocus/backend/internal/model"
)

// EncodeSnapshot serializes a queue snapshot for the snapshot store.
func EncodeSnapshot(snapshot model.QueueSnapshot) ([]byte, error) {
	blob, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return blob, nil
}

// DecodeSnapshot parses a stored snapshot. Unknown fields are ignored and
// missing optional fields take their documented defaults (no break in
// progress), so snapshots written by older schemas still restore. A blank,
// unparseable, or internally inconsistent blob yields (zero, false): the
// caller falls back to the empty default state rather than failing.
func DecodeSnapshot(blob []byte) (model.QueueSnapshot, bool) {
	if len(blob) == 0 {
		return model.QueueSnapshot{}, false
	}

	var snapshot model.QueueSnapshot
	if err := json.Unmarshal(blob, &snapshot); err != nil {
		log.Printf("engine: decode snapshot: %v", err)
		return model.QueueSnapshot{}, false
	}

	if len(snapshot.Queue) == 0 {
		return model.QueueSnapshot{}, false
	}
	if snapshot.CurrentIndex < 0 || snapshot.CurrentIndex >= len(snapshot.Queue) {
		log.Printf("engine: decode snapshot: index %d out of range", snapshot.CurrentIndex)
		return model.QueueSnapshot{}, false
	}
	if snapshot.Progress < 0 {
		snapshot.Progress = 0
	}
	if snapshot.Progress > 1 {
		snapshot.Progress = 1
	}

	return snapshot, true
}
