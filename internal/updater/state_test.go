package updater

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreLoadDefault(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Channel != ChannelStable {
		t.Fatalf("expected default channel %q, got %q", ChannelStable, st.Channel)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	st := State{
		Channel:            ChannelBeta,
		LastAppliedVersion: "1.2.3",
		PreviousVersion:    "1.2.2",
		BackupPath:         filepath.Join(dir, backupName),
	}
	if err := store.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Channel != ChannelBeta || loaded.LastAppliedVersion != st.LastAppliedVersion ||
		loaded.PreviousVersion != st.PreviousVersion || loaded.BackupPath != st.BackupPath {
		t.Fatalf("round trip mismatch: %#v", loaded)
	}

	if err := store.Save(State{Channel: "nightly"}); err == nil {
		t.Fatalf("expected error for unknown channel")
	}
}

func TestNormalizeChannel(t *testing.T) {
	cases := map[string]string{
		"":       ChannelStable,
		"Stable": ChannelStable,
		" BETA ": ChannelBeta,
		"stable": ChannelStable,
	}
	for input, want := range cases {
		got, err := NormalizeChannel(input)
		if err != nil {
			t.Fatalf("NormalizeChannel(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("NormalizeChannel(%q)=%q, want %q", input, got, want)
		}
	}
	if _, err := NormalizeChannel("nightly"); err == nil {
		t.Fatalf("expected error for unknown channel")
	}
}

func TestDefaultStateDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ADFGVX_UPDATER_STATE_DIR", dir)
	got, err := DefaultStateDir()
	if err != nil {
		t.Fatalf("DefaultStateDir: %v", err)
	}
	if got != dir {
		t.Fatalf("DefaultStateDir=%q, want %q", got, dir)
	}
}

func TestNewStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "child")
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := os.Stat(store.Dir()); err != nil {
		t.Fatalf("expected state dir to exist: %v", err)
	}
}
