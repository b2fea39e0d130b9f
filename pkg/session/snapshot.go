package session

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// SnapshotVersion is the current snapshot format. Bump it on breaking
// changes; Decode refuses newer versions.
const SnapshotVersion = 1

// Snapshot is the persisted state of one live session.
type Snapshot struct {
	ID      string         `json:"id"`
	SavedAt time.Time      `json:"saved_at"`
	Model   map[string]any `json:"model"`

	// Dropped lists the fields that could not be persisted, such as
	// handlers or captured nodes.
	Dropped []string `json:"dropped,omitempty"`

	Version int `json:"version"`
}

// NewSnapshot builds a snapshot of model, a plain value tree. Fields holding
// functions, channels or other values with no JSON form are dropped and
// listed in Dropped.
func NewSnapshot(id string, model map[string]any) *Snapshot {
	s := &Snapshot{ID: id, SavedAt: time.Now().UTC(), Model: map[string]any{}}
	for k, v := range model {
		if p, ok := portable(v); ok {
			s.Model[k] = p
		} else {
			s.Dropped = append(s.Dropped, k)
		}
	}
	sort.Strings(s.Dropped)
	return s
}

// Encode serializes s.
func (s *Snapshot) Encode() ([]byte, error) {
	s.Version = SnapshotVersion
	return json.Marshal(s)
}

// ErrSnapshotVersion is returned for snapshots written by a newer format.
type ErrSnapshotVersion struct {
	Version int
}

func (e ErrSnapshotVersion) Error() string {
	return "unsupported snapshot version " + strconv.Itoa(e.Version)
}

// DecodeSnapshot parses data written by Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Version > SnapshotVersion {
		return nil, ErrSnapshotVersion{Version: s.Version}
	}
	if s.Model == nil {
		s.Model = map[string]any{}
	}
	return &s, nil
}

// portable returns v with everything JSON cannot represent removed from
// nested containers. It reports false when v itself cannot be kept.
func portable(v any) (any, bool) {
	switch t := v.(type) {
	case nil, bool, string, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v, true
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			if p, ok := portable(e); ok {
				m[k] = p
			}
		}
		return m, true
	case []any:
		s := make([]any, 0, len(t))
		for _, e := range t {
			// Keep positions stable for index based bindings.
			p, ok := portable(e)
			if !ok {
				p = nil
			}
			s = append(s, p)
		}
		return s, true
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil, false
	case reflect.Pointer:
		// Pointers in a plain model are captured nodes or host objects.
		return nil, false
	}
	if _, err := json.Marshal(v); err != nil {
		return nil, false
	}
	return v, true
}
