package testsupport

import (
	"testing"

	"datarecv/internal/config"
	"datarecv/internal/msgstore"
)

// MustOpenStore opens a msgstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *msgstore.Store {
	t.Helper()

	store, err := msgstore.Open(msgstore.Options{
		Dir:       cfg.Paths.OutputDir,
		TypeTag:   cfg.Store.TypeTag,
		Category:  cfg.Store.Category,
		IndexPath: cfg.IndexPath(),
	})
	if err != nil {
		t.Fatalf("msgstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustLatestRunDir returns the newest run directory under the output
// directory root.
func MustLatestRunDir(t testing.TB, root string) string {
	t.Helper()

	dirs, err := msgstore.RunDirs(root)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatalf("no run directory under %s", root)
	}
	return dirs[len(dirs)-1]
}

// MustReadRecord loads record id written by the newest run under root.
func MustReadRecord(t testing.TB, root string, id uint64) msgstore.Record {
	t.Helper()

	rec, err := msgstore.ReadRecord(msgstore.RecordPath(MustLatestRunDir(t, root), id))
	if err != nil {
		t.Fatalf("read record %d: %v", id, err)
	}
	return rec
}
