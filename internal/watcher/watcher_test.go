package watcher

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/aidanlsb/iniref/internal/corpus"
	"github.com/aidanlsb/iniref/internal/testutil"
)

func newTestWatcher(t *testing.T, batches *[]Batch) (*Watcher, *corpus.Workspace, *testutil.TestWorkspace) {
	t.Helper()
	tw := testutil.NewTestWorkspace(t).
		WithSchema(testutil.SampleSchema()).
		WithFile("rules.ini", testutil.SampleRules()).
		Build()
	ws, err := corpus.Open(tw.Path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := New(Config{
		Workspace:     ws,
		DebounceDelay: time.Hour,
		OnBatch:       func(b Batch) { *batches = append(*batches, b) },
	})
	if err != nil {
		t.Fatal(err)
	}
	return w, ws, tw
}

func TestNewRequiresWorkspace(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without workspace")
	}
}

func TestFlushDebounces(t *testing.T) {
	var batches []Batch
	w, ws, tw := newTestWatcher(t, &batches)

	tw.WriteFile("mod.ini", "[Laser]\nDamage=5")
	w.Schedule(ws.Abs("mod.ini"))

	if b := w.Flush(false); !b.Empty() {
		t.Fatalf("nothing should be applied before the debounce elapses, got %+v", b)
	}
	if len(ws.Engine.FindSectionLocations("Laser")) != 0 {
		t.Fatal("engine updated too early")
	}

	b := w.Flush(true)
	if !reflect.DeepEqual(b.Changed, []string{"mod.ini"}) {
		t.Errorf("Changed = %v", b.Changed)
	}
	if len(ws.Engine.FindSectionLocations("Laser")) != 1 {
		t.Error("Laser should be indexed after flush")
	}
	if len(batches) != 1 {
		t.Errorf("OnBatch calls = %d, want 1", len(batches))
	}
}

func TestFlushBatchesManyEvents(t *testing.T) {
	var batches []Batch
	w, ws, tw := newTestWatcher(t, &batches)

	tw.WriteFile("a.ini", "[A]")
	tw.WriteFile("b.ini", "[B]")
	if err := os.Remove(ws.Abs("rules.ini")); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"a.ini", "b.ini", "a.ini", "rules.ini"} {
		w.Schedule(ws.Abs(p))
	}

	b := w.Flush(true)
	if !reflect.DeepEqual(b.Changed, []string{"a.ini", "b.ini"}) {
		t.Errorf("Changed = %v", b.Changed)
	}
	if !reflect.DeepEqual(b.Removed, []string{"rules.ini"}) {
		t.Errorf("Removed = %v", b.Removed)
	}
	if got := ws.Engine.Paths(); !reflect.DeepEqual(got, []string{"a.ini", "b.ini"}) {
		t.Errorf("Paths = %v", got)
	}
	if len(batches) != 1 {
		t.Errorf("expected one batch for all events, got %d", len(batches))
	}
}

func TestFlushUnchangedFile(t *testing.T) {
	var batches []Batch
	w, ws, _ := newTestWatcher(t, &batches)

	w.Schedule(ws.Abs("rules.ini"))
	if b := w.Flush(true); !b.Empty() {
		t.Errorf("touching a file without changing it should be a no-op, got %+v", b)
	}
	if len(batches) != 0 {
		t.Error("OnBatch must not be called for empty batches")
	}
}

func TestFlushSchemaChange(t *testing.T) {
	var batches []Batch
	w, ws, tw := newTestWatcher(t, &batches)

	if got := ws.Engine.TypeForSection("AP"); got != "WarheadType" {
		t.Fatalf("TypeForSection(AP) = %s", got)
	}

	tw.WriteFile("schema.ini", "[ObjectTypes]\nWeaponType\n")
	w.Schedule(ws.Abs("schema.ini"))
	b := w.Flush(true)
	if !b.SchemaReloaded {
		t.Fatalf("expected schema reload, got %+v", b)
	}
	if got := ws.Engine.TypeForSection("AP"); got != "AP" {
		t.Errorf("after reload AP should be opaque, got %s", got)
	}
}
