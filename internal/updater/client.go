// Package updater replaces the running adfgvx binary with a newer build from
// a signed release manifest, preferring bsdiff deltas and falling back to full
// downloads. The previous binary is kept for Rollback.
package updater

import (
	"bytes"
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	update "github.com/inconshreveable/go-update"

	"github.com/RowanDark/adfgvx/internal/logging"
)

const (
	backupName      = "adfgvx.previous"
	maxArtifactSize = 256 << 20
)

// Client orchestrates manifest fetching, artifact validation and binary
// swaps.
type Client struct {
	Store          *Store
	HTTPClient     *http.Client
	BaseURL        string
	PublicKey      ed25519.PublicKey
	ExecPath       string
	CurrentVersion string
	Out            io.Writer
	Logger         *logging.AuditLogger
}

type UpdateOptions struct {
	Channel        string
	PersistChannel bool
}

type RollbackOptions struct {
	ForceStable bool
}

// Check fetches the manifest for channel and reports whether it offers a
// version other than the running one.
func (c *Client) Check(ctx context.Context, channel string) (Manifest, bool, error) {
	manifest, err := FetchManifest(ctx, c.httpClient(), c.BaseURL, channel, c.PublicKey)
	if err != nil {
		return Manifest{}, false, err
	}
	return manifest, manifest.Version != c.currentVersion(), nil
}

// Update downloads the manifest for opts.Channel and replaces the binary at
// ExecPath in place. With PersistChannel the stored channel preference is
// updated to match.
func (c *Client) Update(ctx context.Context, opts UpdateOptions) (err error) {
	if c.Store == nil {
		return errors.New("nil state store")
	}
	out := c.out()
	channel, err := NormalizeChannel(opts.Channel)
	if err != nil {
		return err
	}
	st, err := c.Store.Load()
	if err != nil {
		return err
	}

	manifest, err := FetchManifest(ctx, c.httpClient(), c.BaseURL, channel, c.PublicKey)
	if err != nil {
		return err
	}

	current := c.currentVersion()
	if manifest.Version == current || strings.TrimSpace(st.LastAppliedVersion) == manifest.Version {
		fmt.Fprintf(out, "adfgvx %s is already the newest build on the %s channel\n", current, channel)
		if opts.PersistChannel {
			st.Channel = channel
			return c.Store.Save(st)
		}
		return nil
	}

	defer func() {
		c.emit(manifest.Version, channel, err)
	}()

	build, ok := manifest.BuildFor(runtime.GOOS, runtime.GOARCH)
	if !ok {
		return fmt.Errorf("no build available for %s/%s in manifest", runtime.GOOS, runtime.GOARCH)
	}
	checksum, err := DecodeHex(build.Full.SHA256)
	if err != nil {
		return fmt.Errorf("decode full checksum: %w", err)
	}

	execPath, err := c.resolveExecPath()
	if err != nil {
		return err
	}
	info, err := os.Stat(execPath)
	if err != nil {
		return fmt.Errorf("stat executable: %w", err)
	}

	backupPath := filepath.Join(c.Store.Dir(), backupName)
	baseOpts := update.Options{
		TargetPath:  execPath,
		TargetMode:  info.Mode(),
		Checksum:    checksum,
		OldSavePath: backupPath,
		Hash:        crypto.SHA256,
	}
	if err := baseOpts.CheckPermissions(); err != nil {
		return fmt.Errorf("insufficient permissions to update %s: %w", execPath, err)
	}

	useDelta := build.Delta != nil && matchesCurrentVersion(build.Delta.FromVersion, current, st.LastAppliedVersion)
	var applyErr error
	if useDelta {
		applyErr = c.applyDelta(ctx, build, baseOpts)
		if applyErr == nil {
			fmt.Fprintln(out, "applied delta update")
		} else {
			fmt.Fprintf(out, "delta update failed (%v); falling back to full download\n", applyErr)
		}
	}
	if !useDelta || applyErr != nil {
		applyErr = c.applyFull(ctx, build, baseOpts)
	}
	if applyErr != nil {
		// Unattended runs fall back to stable after a failed beta update.
		if st.Channel == ChannelBeta {
			st.Channel = ChannelStable
			_ = c.Store.Save(st)
		}
		return applyErr
	}

	st.PreviousVersion = current
	st.LastAppliedVersion = manifest.Version
	st.BackupPath = backupPath
	st.LastAppliedAt = time.Now().UTC()
	if opts.PersistChannel {
		st.Channel = channel
	}
	if err := c.Store.Save(st); err != nil {
		return err
	}
	fmt.Fprintf(out, "updated adfgvx to %s on the %s channel\n", manifest.Version, channel)
	return nil
}

func (c *Client) applyDelta(ctx context.Context, build Build, opts update.Options) error {
	patchData, err := c.download(ctx, build.Delta.URL)
	if err != nil {
		return fmt.Errorf("download delta: %w", err)
	}
	expected, err := DecodeHex(build.Delta.SHA256)
	if err != nil {
		return fmt.Errorf("decode delta checksum: %w", err)
	}
	if actual := sha256Sum(patchData); !bytes.Equal(actual, expected) {
		return fmt.Errorf("delta checksum mismatch: got %x want %x", actual, expected)
	}
	opts.Patcher = update.NewBSDiffPatcher()
	return apply(patchData, opts, "apply delta update")
}

func (c *Client) applyFull(ctx context.Context, build Build, opts update.Options) error {
	data, err := c.download(ctx, build.Full.URL)
	if err != nil {
		return fmt.Errorf("download full artifact: %w", err)
	}
	return apply(data, opts, "apply update")
}

func apply(data []byte, opts update.Options, what string) error {
	if err := update.Apply(bytes.NewReader(data), opts); err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			return fmt.Errorf("%s: %v (rollback failed: %v)", what, err, rerr)
		}
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// Rollback restores the binary saved by the last successful Update.
func (c *Client) Rollback(ctx context.Context, opts RollbackOptions) error {
	if c.Store == nil {
		return errors.New("nil state store")
	}
	st, err := c.Store.Load()
	if err != nil {
		return err
	}
	if st.BackupPath == "" {
		return errors.New("no rollback backup recorded")
	}
	backup, err := os.ReadFile(st.BackupPath)
	if err != nil {
		return fmt.Errorf("read backup binary: %w", err)
	}
	execPath, err := c.resolveExecPath()
	if err != nil {
		return err
	}
	info, err := os.Stat(execPath)
	if err != nil {
		return fmt.Errorf("stat executable: %w", err)
	}
	err = apply(backup, update.Options{
		TargetPath:  execPath,
		TargetMode:  info.Mode(),
		OldSavePath: st.BackupPath,
		Checksum:    sha256Sum(backup),
		Hash:        crypto.SHA256,
	}, "rollback")
	c.emit(st.PreviousVersion, st.Channel, err)
	if err != nil {
		return err
	}

	st.LastAppliedAt = time.Now().UTC()
	st.LastAppliedVersion, st.PreviousVersion = st.PreviousVersion, st.LastAppliedVersion
	if opts.ForceStable {
		st.Channel = ChannelStable
	}
	if err := c.Store.Save(st); err != nil {
		return err
	}
	fmt.Fprintf(c.out(), "rolled back adfgvx to %s\n", st.LastAppliedVersion)
	return nil
}

func (c *Client) emit(version, channel string, err error) {
	if c.Logger == nil {
		return
	}
	event := logging.AuditEvent{
		EventType: logging.EventSelfUpdate,
		Decision:  logging.DecisionAllow,
		Metadata: map[string]any{
			"from_version": c.currentVersion(),
			"to_version":   version,
			"channel":      channel,
		},
	}
	if err != nil {
		event.Decision = logging.DecisionDeny
		event.Reason = err.Error()
	}
	_ = c.Logger.Emit(event)
}

func (c *Client) resolveExecPath() (string, error) {
	if strings.TrimSpace(c.ExecPath) != "" {
		return c.ExecPath, nil
	}
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("determine executable path: %w", err)
	}
	return path, nil
}

func (c *Client) download(ctx context.Context, targetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("construct request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("adfgvx/%s (%s/%s)", c.currentVersion(), runtime.GOOS, runtime.GOARCH))
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", targetURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, fmt.Errorf("download %s: unexpected status %d: %s", targetURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", targetURL, err)
	}
	return data, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c *Client) out() io.Writer {
	if c.Out == nil {
		return io.Discard
	}
	return c.Out
}

func (c *Client) currentVersion() string {
	if v := strings.TrimSpace(c.CurrentVersion); v != "" {
		return v
	}
	return "dev"
}

func matchesCurrentVersion(from, current, lastApplied string) bool {
	from = strings.TrimSpace(from)
	if from == "" {
		return false
	}
	return from == strings.TrimSpace(current) || from == strings.TrimSpace(lastApplied)
}

func sha256Sum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}
