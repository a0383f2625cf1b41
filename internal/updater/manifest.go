package updater

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"runtime"
	"strings"
)

// PublicKeyEnv overrides the manifest signing key when the caller does not
// supply one.
const PublicKeyEnv = "ADFGVX_UPDATER_PUBLIC_KEY"

const maxManifestBytes = 1 << 20

// Manifest lists the builds published on one channel.
type Manifest struct {
	Version  string  `json:"version"`
	Channel  string  `json:"channel"`
	NotesURL string  `json:"notes_url,omitempty"`
	Builds   []Build `json:"builds"`
}

// Build describes how to update a specific OS/architecture pair.
type Build struct {
	OS    string   `json:"os"`
	Arch  string   `json:"arch"`
	Full  Artifact `json:"full"`
	Delta *Delta   `json:"delta,omitempty"`
}

// Artifact references a complete binary.
type Artifact struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
}

// Delta references a bsdiff patch against the binary of FromVersion.
type Delta struct {
	FromVersion string `json:"from_version"`
	URL         string `json:"url"`
	SHA256      string `json:"sha256"`
}

// BuildFor returns the build entry matching the provided platform.
func (m Manifest) BuildFor(goos, goarch string) (Build, bool) {
	for _, b := range m.Builds {
		if strings.EqualFold(b.OS, goos) && strings.EqualFold(b.Arch, goarch) {
			return b, true
		}
	}
	return Build{}, false
}

// DecodeManifest parses manifest JSON.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if strings.TrimSpace(m.Version) == "" {
		return Manifest{}, errors.New("manifest missing version")
	}
	if len(m.Builds) == 0 {
		return Manifest{}, errors.New("manifest missing builds")
	}
	return m, nil
}

// FetchManifest downloads <baseURL>/<channel>/manifest.json and its detached
// ed25519 signature (manifest.json.sig, base64). The manifest is only decoded
// once the signature verifies against pub, or against PublicKeyEnv when pub
// is nil.
func FetchManifest(ctx context.Context, client *http.Client, baseURL, channel string, pub ed25519.PublicKey) (Manifest, error) {
	if client == nil {
		client = &http.Client{}
	}
	channel, err := NormalizeChannel(channel)
	if err != nil {
		return Manifest{}, err
	}
	if pub == nil {
		if pub, err = PublicKeyFromEnv(); err != nil {
			return Manifest{}, err
		}
	}

	manifestURL, err := manifestURLFor(baseURL, channel)
	if err != nil {
		return Manifest{}, err
	}
	manifestData, err := download(ctx, client, manifestURL, channel, maxManifestBytes)
	if err != nil {
		return Manifest{}, err
	}
	sigData, err := download(ctx, client, manifestURL+".sig", channel, 1<<10)
	if err != nil {
		return Manifest{}, fmt.Errorf("download manifest signature: %w", err)
	}
	sig, err := decodeSignature(sigData)
	if err != nil {
		return Manifest{}, err
	}
	if !ed25519.Verify(pub, manifestData, sig) {
		return Manifest{}, errors.New("manifest signature verification failed")
	}
	return DecodeManifest(manifestData)
}

// ParsePublicKey decodes a base64 ed25519 public key.
func ParsePublicKey(encoded string) (ed25519.PublicKey, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key has invalid length %d", len(key))
	}
	return ed25519.PublicKey(key), nil
}

// PublicKeyFromEnv reads the signing key from PublicKeyEnv.
func PublicKeyFromEnv() (ed25519.PublicKey, error) {
	encoded, ok := os.LookupEnv(PublicKeyEnv)
	if !ok || strings.TrimSpace(encoded) == "" {
		return nil, fmt.Errorf("no manifest signing key configured (set %s)", PublicKeyEnv)
	}
	key, err := ParsePublicKey(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PublicKeyEnv, err)
	}
	return key, nil
}

func manifestURLFor(baseURL, channel string) (string, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return "", errors.New("no update base URL configured")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	u.Path = path.Join(u.Path, channel, "manifest.json")
	return u.String(), nil
}

func download(ctx context.Context, client *http.Client, targetURL, channel string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("construct request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("adfgvx-updater (%s/%s)", runtime.GOOS, runtime.GOARCH))
	if channel != "" {
		req.Header.Set("X-Adfgvx-Update-Channel", channel)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", targetURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, fmt.Errorf("download %s: unexpected status %d: %s", targetURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	reader := io.Reader(resp.Body)
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", targetURL, err)
	}
	return data, nil
}

func decodeSignature(raw []byte) ([]byte, error) {
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("invalid signature length %d", len(sig))
	}
	return sig, nil
}

// DecodeHex decodes a SHA-256 checksum from a hex string into raw bytes.
func DecodeHex(sum string) ([]byte, error) {
	cleaned := strings.TrimSpace(sum)
	if len(cleaned) == 0 {
		return nil, errors.New("empty checksum")
	}
	if len(cleaned) != 64 {
		return nil, fmt.Errorf("invalid checksum length %d", len(cleaned))
	}
	b, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode checksum: %w", err)
	}
	return b, nil
}
