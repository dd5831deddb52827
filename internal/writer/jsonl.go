// internal/writer/jsonl.go
package writer

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

// JSONLWriter writes one JSON object per snapshot.
type JSONLWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

type jsonRecord struct {
	TS          string `json:"ts"`
	DistanceDm  uint32 `json:"distance_dm"`
	StrokeRate  uint16 `json:"stroke_rate"`
	Speed       uint16 `json:"speed"`
	StrokeCount uint32 `json:"stroke_count"`
	LastStroke  string `json:"last_stroke,omitempty"`
	PrevStroke  string `json:"prev_stroke,omitempty"`
	Idle        bool   `json:"idle"`
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc}
}

// Broadcast implements Broadcaster.
func (j *JSONLWriter) Broadcast(s telemetry.Snapshot) error {
	rec := jsonRecord{
		TS:          formatTS(s.At),
		DistanceDm:  s.DistanceDm,
		StrokeRate:  s.StrokeRate,
		Speed:       s.Speed,
		StrokeCount: s.StrokeCount,
		LastStroke:  formatTS(s.LastStroke),
		PrevStroke:  formatTS(s.PrevStroke),
		Idle:        s.Idle(),
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(rec)
}

func formatTS(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
