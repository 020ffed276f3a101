package model

import (
	"fmt"
	"testing"
	"time"
)

func testScope(t *testing.T) string {
	scope := fmt.Sprintf("model-test-%d", time.Now().UnixNano())
	t.Cleanup(func() { CleanSnapshots(scope, -time.Second) })
	return scope
}

func TestSnapshotRoundTrip(t *testing.T) {
	scope := testScope(t)
	nodes := []FlatNode{
		{ID: 1, Role: "window", Name: "Editor", Path: "window"},
		{ID: 2, Role: "button", Name: "Save", Path: "window > button", Depth: 1},
	}

	if err := SaveSnapshot(scope, 100, nodes); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	loaded, err := LoadSnapshot(scope, 100)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len(loaded) = %d, want 2", len(loaded))
	}
	if loaded[1].Name != "Save" || loaded[1].Path != "window > button" {
		t.Errorf("loaded[1] = %+v", loaded[1])
	}
}

func TestLatestSnapshotTS(t *testing.T) {
	scope := testScope(t)
	if ts := LatestSnapshotTS(scope); ts != 0 {
		t.Fatalf("LatestSnapshotTS on empty scope = %d, want 0", ts)
	}

	for _, ts := range []int64{100, 300, 200} {
		if err := SaveSnapshot(scope, ts, []FlatNode{{ID: 1, Role: "window"}}); err != nil {
			t.Fatalf("SaveSnapshot(%d): %v", ts, err)
		}
	}
	if ts := LatestSnapshotTS(scope); ts != 300 {
		t.Errorf("LatestSnapshotTS = %d, want 300", ts)
	}
}

func TestLatestSnapshotTSScopedToOwnScope(t *testing.T) {
	a := testScope(t)
	b := testScope(t)

	if err := SaveSnapshot(a, 500, []FlatNode{{ID: 1, Role: "window"}}); err != nil {
		t.Fatal(err)
	}
	if ts := LatestSnapshotTS(b); ts != 0 {
		t.Errorf("scope b sees scope a's snapshot: ts = %d", ts)
	}
}

func TestSnapshotScopeWithSeparators(t *testing.T) {
	scope := fmt.Sprintf("My App/1.0 editor-%d", time.Now().UnixNano())
	t.Cleanup(func() { CleanSnapshots(scope, -time.Second) })

	if err := SaveSnapshot(scope, 42, []FlatNode{{ID: 1, Role: "window"}}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if ts := LatestSnapshotTS(scope); ts != 42 {
		t.Errorf("LatestSnapshotTS = %d, want 42", ts)
	}
	if _, err := LoadSnapshot(scope, 42); err != nil {
		t.Errorf("LoadSnapshot: %v", err)
	}
}

func TestCleanSnapshots(t *testing.T) {
	scope := testScope(t)
	if err := SaveSnapshot(scope, 7, []FlatNode{{ID: 1, Role: "window"}}); err != nil {
		t.Fatal(err)
	}

	// an age in the future removes everything, however fresh
	CleanSnapshots(scope, -time.Second)

	if ts := LatestSnapshotTS(scope); ts != 0 {
		t.Errorf("snapshot survived cleaning: ts = %d", ts)
	}
}
