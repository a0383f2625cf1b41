// Command updater turns YAML release files into signed update manifests.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RowanDark/adfgvx/internal/updater"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("updater", flag.ContinueOnError)
	fs.SetOutput(stderr)
	releaseDir := fs.String("config", "packaging/updater", "directory of channel release files (*.yaml)")
	outDir := fs.String("out", "out/updater", "output directory for manifests")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	key, err := updater.SigningKeyFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	releases, err := findReleases(*releaseDir)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	for _, path := range releases {
		rel, err := updater.LoadRelease(path)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		manifest, err := updater.BuildManifest(rel, filepath.Dir(path))
		if err != nil {
			fmt.Fprintf(stderr, "error: %s: %v\n", path, err)
			return 1
		}
		written, err := updater.WriteSignedManifest(*outDir, manifest, key)
		if err != nil {
			fmt.Fprintf(stderr, "error: %s: %v\n", path, err)
			return 1
		}
		fmt.Fprintf(stdout, "%s %s -> %s\n", manifest.Channel, manifest.Version, written)
	}
	return 0
}

func findReleases(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read config dir: %w", err)
	}
	var releases []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, ".example.yaml") {
			continue
		}
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			releases = append(releases, filepath.Join(dir, name))
		}
	}
	sort.Strings(releases)
	if len(releases) == 0 {
		return nil, errors.New("no channel release files found")
	}
	return releases, nil
}
