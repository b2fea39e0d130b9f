package session

import (
	"reflect"
	"testing"

	"golang.org/x/net/html"
)

func TestSnapshotRoundTrip(t *testing.T) {
	model := map[string]any{
		"title": "Todos",
		"count": 2,
		"items": []any{map[string]any{"text": "a", "done": true}},
	}
	data, err := NewSnapshot("s1", model).Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	s, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error: %v", err)
	}

	want := map[string]any{
		"title": "Todos",
		"count": 2.0,
		"items": []any{map[string]any{"text": "a", "done": true}},
	}
	if s.ID != "s1" || s.Version != SnapshotVersion {
		t.Errorf("expected s1 v%d, got %s v%d", SnapshotVersion, s.ID, s.Version)
	}
	if !reflect.DeepEqual(s.Model, want) {
		t.Errorf("expected %v, got %v", want, s.Model)
	}
	if s.SavedAt.IsZero() {
		t.Error("expected SavedAt to be set")
	}
}

func TestSnapshotDropsUnportableValues(t *testing.T) {
	node := &html.Node{Type: html.ElementNode, Data: "canvas"}
	s := NewSnapshot("s", map[string]any{
		"onClick": func() {},
		"canvas":  node,
		"name":    "a",
		"refs":    map[string]any{"el": node, "n": 1},
		"list":    []any{1, func() {}, "x"},
	})

	if !reflect.DeepEqual(s.Dropped, []string{"canvas", "onClick"}) {
		t.Errorf("expected [canvas onClick] dropped, got %v", s.Dropped)
	}
	if !reflect.DeepEqual(s.Model["refs"], map[string]any{"n": 1}) {
		t.Errorf("expected nested node to be dropped, got %v", s.Model["refs"])
	}
	if !reflect.DeepEqual(s.Model["list"], []any{1, nil, "x"}) {
		t.Errorf("expected positions to be kept, got %v", s.Model["list"])
	}
	if _, err := s.Encode(); err != nil {
		t.Errorf("Encode() error: %v", err)
	}
}

func TestDecodeSnapshotErrors(t *testing.T) {
	if _, err := DecodeSnapshot([]byte("{")); err == nil {
		t.Error("expected a parse error")
	}
	_, err := DecodeSnapshot([]byte(`{"id":"s","version":99}`))
	if _, ok := err.(ErrSnapshotVersion); !ok {
		t.Errorf("expected ErrSnapshotVersion, got %v", err)
	}
	s, err := DecodeSnapshot([]byte(`{"id":"s","version":1}`))
	if err != nil || s.Model == nil {
		t.Errorf("expected an empty model, got %v, %v", s, err)
	}
}
