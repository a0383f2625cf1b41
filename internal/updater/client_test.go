package updater

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kr/binarydist"

	"github.com/RowanDark/adfgvx/internal/logging"
)

type updateServer struct {
	server       *httptest.Server
	priv         ed25519.PrivateKey
	fullData     []byte
	deltaData    []byte
	manifestData []byte
	signature    []byte
	fullHits     atomic.Int32
	deltaHits    atomic.Int32
}

func newUpdateServer(t *testing.T, channel string, full, delta []byte) *updateServer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	us := &updateServer{priv: priv, fullData: full, deltaData: delta}
	mux := http.NewServeMux()
	mux.HandleFunc("/"+channel+"/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(us.manifestData)
	})
	mux.HandleFunc("/"+channel+"/manifest.json.sig", func(w http.ResponseWriter, r *http.Request) {
		w.Write(us.signature)
	})
	mux.HandleFunc("/artifacts/full", func(w http.ResponseWriter, r *http.Request) {
		us.fullHits.Add(1)
		w.Write(us.fullData)
	})
	mux.HandleFunc("/artifacts/delta", func(w http.ResponseWriter, r *http.Request) {
		us.deltaHits.Add(1)
		w.Write(us.deltaData)
	})
	us.server = httptest.NewServer(mux)
	t.Cleanup(us.server.Close)
	return us
}

func (s *updateServer) publicKey() ed25519.PublicKey {
	return s.priv.Public().(ed25519.PublicKey)
}

func (s *updateServer) publish(t *testing.T, manifest Manifest) {
	t.Helper()
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	s.manifestData = data
	s.signature = []byte(base64.StdEncoding.EncodeToString(ed25519.Sign(s.priv, data)))
}

func (s *updateServer) manifest(version, fromVersion string) Manifest {
	build := Build{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
		Full: Artifact{
			URL:    s.server.URL + "/artifacts/full",
			SHA256: fmt.Sprintf("%x", sha256Sum(s.fullData)),
		},
	}
	if s.deltaData != nil {
		build.Delta = &Delta{
			FromVersion: fromVersion,
			URL:         s.server.URL + "/artifacts/delta",
			SHA256:      fmt.Sprintf("%x", sha256Sum(s.deltaData)),
		}
	}
	return Manifest{Version: version, Channel: ChannelStable, Builds: []Build{build}}
}

func writeBinary(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adfgvx")
	if err := os.WriteFile(path, data, 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestClientUpdateAndRollback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Windows self-update semantics require elevated permissions in tests")
	}
	oldVersion := "1.0.0"
	newVersion := "1.1.0"
	oldBinary := []byte("adfgvx " + oldVersion + " GXFAFVDAAD")
	newBinary := []byte("adfgvx " + newVersion + " XFFAADGAAG")

	var deltaBuf bytes.Buffer
	if err := binarydist.Diff(bytes.NewReader(oldBinary), bytes.NewReader(newBinary), &deltaBuf); err != nil {
		t.Fatalf("Diff: %v", err)
	}

	server := newUpdateServer(t, ChannelStable, newBinary, deltaBuf.Bytes())
	server.publish(t, server.manifest(newVersion, oldVersion))

	audit := &bytes.Buffer{}
	store := newStore(t)
	execPath := writeBinary(t, oldBinary)
	client := &Client{
		Store:          store,
		BaseURL:        server.server.URL,
		PublicKey:      server.publicKey(),
		ExecPath:       execPath,
		CurrentVersion: oldVersion,
		Logger:         logging.MustNewAuditLogger("updater", logging.WithoutStderr(), logging.WithWriter(audit)),
	}

	if err := client.Update(context.Background(), UpdateOptions{Channel: ChannelStable, PersistChannel: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updatedData, err := os.ReadFile(execPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(updatedData, newBinary) {
		t.Fatalf("update did not write new binary")
	}
	if server.deltaHits.Load() == 0 {
		t.Fatalf("expected delta endpoint to be fetched")
	}
	if server.fullHits.Load() != 0 {
		t.Fatalf("full artifact should not be needed when the delta applies")
	}
	if !strings.Contains(audit.String(), `"event_type":"self_update"`) {
		t.Fatalf("expected self_update audit event, got %s", audit.String())
	}

	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load state: %v", err)
	}
	if st.LastAppliedVersion != newVersion {
		t.Fatalf("expected last applied %s, got %s", newVersion, st.LastAppliedVersion)
	}
	if st.PreviousVersion != oldVersion {
		t.Fatalf("expected previous version %s, got %s", oldVersion, st.PreviousVersion)
	}
	backupData, err := os.ReadFile(st.BackupPath)
	if err != nil {
		t.Fatalf("Read backup: %v", err)
	}
	if !bytes.Equal(backupData, oldBinary) {
		t.Fatalf("backup mismatch")
	}

	client.CurrentVersion = newVersion
	if err := client.Rollback(context.Background(), RollbackOptions{ForceStable: true}); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	rolledData, err := os.ReadFile(execPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(rolledData, oldBinary) {
		t.Fatalf("rollback did not restore previous binary")
	}
}

func TestClientUpdateFallsBackToFull(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Windows self-update semantics require elevated permissions in tests")
	}
	newBinary := []byte("adfgvx 2.0.0")
	server := newUpdateServer(t, ChannelStable, newBinary, []byte("not a bsdiff patch"))
	server.publish(t, server.manifest("2.0.0", "1.0.0"))

	out := &bytes.Buffer{}
	execPath := writeBinary(t, []byte("adfgvx 1.0.0"))
	client := &Client{
		Store:          newStore(t),
		BaseURL:        server.server.URL,
		PublicKey:      server.publicKey(),
		ExecPath:       execPath,
		CurrentVersion: "1.0.0",
		Out:            out,
	}
	if err := client.Update(context.Background(), UpdateOptions{}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	data, err := os.ReadFile(execPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(data, newBinary) {
		t.Fatalf("expected full artifact to be installed")
	}
	if server.fullHits.Load() != 1 {
		t.Fatalf("expected one full download, got %d", server.fullHits.Load())
	}
	if !strings.Contains(out.String(), "falling back to full download") {
		t.Fatalf("expected fallback message, got %q", out.String())
	}
}

func TestClientUpdateRejectsChecksumMismatch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Windows self-update semantics require elevated permissions in tests")
	}
	server := newUpdateServer(t, ChannelStable, []byte("adfgvx 2.0.0"), nil)
	manifest := server.manifest("2.0.0", "")
	manifest.Builds[0].Full.SHA256 = fmt.Sprintf("%x", sha256Sum([]byte("something else")))
	server.publish(t, manifest)

	oldBinary := []byte("adfgvx 1.0.0")
	execPath := writeBinary(t, oldBinary)
	client := &Client{
		Store:          newStore(t),
		BaseURL:        server.server.URL,
		PublicKey:      server.publicKey(),
		ExecPath:       execPath,
		CurrentVersion: "1.0.0",
	}
	if err := client.Update(context.Background(), UpdateOptions{}); err == nil {
		t.Fatalf("expected checksum error")
	}
	data, err := os.ReadFile(execPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(data, oldBinary) {
		t.Fatalf("binary must be untouched after a failed update")
	}
}

func TestClientUpdateAlreadyCurrent(t *testing.T) {
	server := newUpdateServer(t, ChannelStable, []byte("adfgvx 1.0.0"), nil)
	server.publish(t, server.manifest("1.0.0", ""))

	out := &bytes.Buffer{}
	client := &Client{
		Store:          newStore(t),
		BaseURL:        server.server.URL,
		PublicKey:      server.publicKey(),
		ExecPath:       filepath.Join(t.TempDir(), "missing"),
		CurrentVersion: "1.0.0",
		Out:            out,
	}
	if err := client.Update(context.Background(), UpdateOptions{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !strings.Contains(out.String(), "already the newest build") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if server.fullHits.Load() != 0 {
		t.Fatalf("no artifact should be downloaded")
	}
}

func TestClientCheck(t *testing.T) {
	server := newUpdateServer(t, ChannelStable, []byte("adfgvx 1.2.0"), nil)
	server.publish(t, server.manifest("1.2.0", ""))

	client := &Client{BaseURL: server.server.URL, PublicKey: server.publicKey(), CurrentVersion: "1.1.0"}
	manifest, available, err := client.Check(context.Background(), "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !available || manifest.Version != "1.2.0" {
		t.Fatalf("expected 1.2.0 to be available, got %s (available=%v)", manifest.Version, available)
	}

	client.CurrentVersion = "1.2.0"
	if _, available, err = client.Check(context.Background(), ChannelStable); err != nil || available {
		t.Fatalf("expected no update, got available=%v err=%v", available, err)
	}
}

func TestRollbackWithoutBackup(t *testing.T) {
	client := &Client{Store: newStore(t)}
	if err := client.Rollback(context.Background(), RollbackOptions{}); err == nil {
		t.Fatalf("expected error without a recorded backup")
	}
}
