package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/antibyte/retrobasic/pkg/basic"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoad(t *testing.T) {
	store := openTestStore(t)

	program := "10 PRINT \"HI\"\n20 END\n"
	if err := store.Save("sess-1", "DEMO", program); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load("sess-1", "DEMO")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != program {
		t.Errorf("Load = %q, want %q", got, program)
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save("sess-1", "DEMO", "10 PRINT 1\n"); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save("sess-1", "DEMO", "10 PRINT 2\n"); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.Load("sess-1", "DEMO")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != "10 PRINT 2\n" {
		t.Errorf("Load = %q, want replaced content", got)
	}
}

func TestLoadUnknownProgram(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Load("sess-1", "NOPE")
	if !errors.Is(err, basic.ErrProgramNotFound) {
		t.Errorf("error = %v, want ErrProgramNotFound", err)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save("sess-1", "DEMO", "10 END\n"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.Load("sess-2", "DEMO"); !errors.Is(err, basic.ErrProgramNotFound) {
		t.Errorf("cross-session Load error = %v, want ErrProgramNotFound", err)
	}
}

func TestList(t *testing.T) {
	store := openTestStore(t)

	for _, name := range []string{"BETA", "ALPHA"} {
		if err := store.Save("sess-1", name, "10 END\n"); err != nil {
			t.Fatalf("Save %s failed: %v", name, err)
		}
	}

	names, err := store.List("sess-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"ALPHA", "BETA"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List = %v, want %v", names, want)
	}
}
