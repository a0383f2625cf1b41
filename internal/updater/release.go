package updater

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kr/binarydist"
	"gopkg.in/yaml.v3"
)

// SigningKeyEnv holds the base64 ed25519 private key used to sign manifests.
const SigningKeyEnv = "ADFGVX_UPDATER_SIGNING_KEY"

// Release describes one channel release as written by maintainers.
// Artifact checksums may be given directly or computed from local paths.
type Release struct {
	Channel  string         `yaml:"channel"`
	Version  string         `yaml:"version"`
	NotesURL string         `yaml:"notes_url"`
	Builds   []ReleaseBuild `yaml:"builds"`
}

type ReleaseBuild struct {
	OS    string          `yaml:"os"`
	Arch  string          `yaml:"arch"`
	Full  ReleaseArtifact `yaml:"full"`
	Delta *ReleaseDelta   `yaml:"delta"`
}

type ReleaseArtifact struct {
	URL    string `yaml:"url"`
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// ReleaseDelta references a published patch. When Path does not exist yet and
// FromPath names the previous binary, the patch is generated with bsdiff.
type ReleaseDelta struct {
	FromVersion string `yaml:"from_version"`
	FromPath    string `yaml:"from_path"`
	URL         string `yaml:"url"`
	Path        string `yaml:"path"`
	SHA256      string `yaml:"sha256"`
}

// LoadRelease reads a YAML release description.
func LoadRelease(path string) (Release, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Release{}, fmt.Errorf("read release file: %w", err)
	}
	var rel Release
	if err := yaml.Unmarshal(data, &rel); err != nil {
		return Release{}, fmt.Errorf("parse release file %s: %w", path, err)
	}
	return rel, nil
}

// BuildManifest resolves rel into a manifest. Relative paths are taken
// from baseDir.
func BuildManifest(rel Release, baseDir string) (Manifest, error) {
	channel, err := NormalizeChannel(rel.Channel)
	if err != nil {
		return Manifest{}, err
	}
	if strings.TrimSpace(rel.Version) == "" {
		return Manifest{}, errors.New("version is required")
	}
	if len(rel.Builds) == 0 {
		return Manifest{}, errors.New("at least one build must be defined")
	}

	manifest := Manifest{
		Version:  strings.TrimSpace(rel.Version),
		Channel:  channel,
		NotesURL: strings.TrimSpace(rel.NotesURL),
	}
	for i, b := range rel.Builds {
		if strings.TrimSpace(b.OS) == "" || strings.TrimSpace(b.Arch) == "" {
			return Manifest{}, fmt.Errorf("build %d missing os/arch", i)
		}
		full, err := resolveArtifact(b.Full, baseDir)
		if err != nil {
			return Manifest{}, fmt.Errorf("build %d full artifact: %w", i, err)
		}
		build := Build{OS: strings.TrimSpace(b.OS), Arch: strings.TrimSpace(b.Arch), Full: full}
		if b.Delta != nil {
			d, err := resolveDelta(*b.Delta, b.Full, baseDir)
			if err != nil {
				return Manifest{}, fmt.Errorf("build %d delta: %w", i, err)
			}
			build.Delta = &d
		}
		manifest.Builds = append(manifest.Builds, build)
	}
	return manifest, nil
}

// WriteSignedManifest writes <outDir>/<channel>/manifest.json and its
// detached signature, the layout FetchManifest expects.
func WriteSignedManifest(outDir string, manifest Manifest, key ed25519.PrivateKey) (string, error) {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')

	manifestPath := filepath.Join(outDir, manifest.Channel, "manifest.json")
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return "", fmt.Errorf("create manifest dir: %w", err)
	}
	if err := writeFileAtomic(manifestPath, data); err != nil {
		return "", err
	}
	sig := base64.StdEncoding.EncodeToString(ed25519.Sign(key, data))
	if err := os.WriteFile(manifestPath+".sig", []byte(sig), 0o644); err != nil {
		return "", fmt.Errorf("write signature: %w", err)
	}
	return manifestPath, nil
}

// SigningKeyFromEnv reads the private key from SigningKeyEnv.
func SigningKeyFromEnv() (ed25519.PrivateKey, error) {
	raw := strings.TrimSpace(os.Getenv(SigningKeyEnv))
	if raw == "" {
		return nil, fmt.Errorf("%s is not set", SigningKeyEnv)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", SigningKeyEnv, err)
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%s has invalid length %d", SigningKeyEnv, len(decoded))
	}
	return ed25519.PrivateKey(decoded), nil
}

func resolveArtifact(in ReleaseArtifact, baseDir string) (Artifact, error) {
	u := strings.TrimSpace(in.URL)
	if u == "" {
		return Artifact{}, errors.New("artifact url is required")
	}
	sum := strings.ToLower(strings.TrimSpace(in.SHA256))
	if sum == "" {
		p := resolvePath(in.Path, baseDir)
		if p == "" {
			return Artifact{}, errors.New("artifact sha256 or path must be provided")
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return Artifact{}, fmt.Errorf("read artifact: %w", err)
		}
		sum = hex.EncodeToString(sha256Sum(data))
	} else if _, err := DecodeHex(sum); err != nil {
		return Artifact{}, err
	}
	return Artifact{URL: u, SHA256: sum}, nil
}

func resolveDelta(in ReleaseDelta, full ReleaseArtifact, baseDir string) (Delta, error) {
	if strings.TrimSpace(in.FromVersion) == "" {
		return Delta{}, errors.New("delta from_version is required")
	}
	patchPath := resolvePath(in.Path, baseDir)
	fromPath := resolvePath(in.FromPath, baseDir)
	if in.SHA256 == "" && patchPath != "" && fromPath != "" {
		if _, err := os.Stat(patchPath); errors.Is(err, os.ErrNotExist) {
			if err := generatePatch(fromPath, resolvePath(full.Path, baseDir), patchPath); err != nil {
				return Delta{}, err
			}
		}
	}
	art, err := resolveArtifact(ReleaseArtifact{URL: in.URL, Path: in.Path, SHA256: in.SHA256}, baseDir)
	if err != nil {
		return Delta{}, err
	}
	return Delta{FromVersion: strings.TrimSpace(in.FromVersion), URL: art.URL, SHA256: art.SHA256}, nil
}

// generatePatch writes a bsdiff patch turning the binary at fromPath into
// the one at toPath.
func generatePatch(fromPath, toPath, patchPath string) error {
	if toPath == "" {
		return errors.New("generating a delta requires the full artifact path")
	}
	from, err := os.ReadFile(fromPath)
	if err != nil {
		return fmt.Errorf("read previous binary: %w", err)
	}
	to, err := os.ReadFile(toPath)
	if err != nil {
		return fmt.Errorf("read new binary: %w", err)
	}
	var patch bytes.Buffer
	if err := binarydist.Diff(bytes.NewReader(from), bytes.NewReader(to), &patch); err != nil {
		return fmt.Errorf("diff binaries: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(patchPath), 0o755); err != nil {
		return fmt.Errorf("create patch dir: %w", err)
	}
	return writeFileAtomic(patchPath, patch.Bytes())
}

func resolvePath(p, baseDir string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
