// Package assets resolves and reads the versioned asset directory the
// server consumes at startup: packet-id reports, registry payloads,
// block reports, the internal block mapping and optional schematics.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// EnvDataDir overrides the asset directory when set.
	EnvDataDir = "DATA_DIR"

	// DefaultDir is used when neither the environment nor the
	// configuration names an asset directory.
	DefaultDir = "./assets"
)

var ErrNotFound = errors.New("asset not found")

// Resolve picks the asset directory: DATA_DIR wins over the configured
// path, which wins over the default.
func Resolve(configured string) string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	if configured != "" {
		return configured
	}
	return DefaultDir
}

// Store reads files from a resolved asset directory.
type Store struct {
	root string
}

// Open verifies the directory exists and returns a store over it.
func Open(root string) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset directory %s: not a directory", root)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string { return s.root }

func (s *Store) read(parts ...string) ([]byte, error) {
	path := filepath.Join(append([]string{s.root}, parts...)...)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// PacketReport returns the packet-id report for a protocol number.
func (s *Store) PacketReport(pvn int32) ([]byte, error) {
	return s.read("packets", fmt.Sprintf("%d.json", pvn))
}

// BlockReport returns the block-state report for a protocol number.
func (s *Store) BlockReport(pvn int32) ([]byte, error) {
	return s.read("blocks", fmt.Sprintf("%d.json", pvn))
}

// InternalMapping returns the shared internal block-id table.
func (s *Store) InternalMapping() ([]byte, error) {
	return s.read("internal_mapping.bin")
}

// Schematic returns a bundled schematic by file name.
func (s *Store) Schematic(name string) ([]byte, error) {
	return s.read("schematic", name)
}

// RegistryFile is one registry payload for a protocol number. Name is
// the registry identifier, rebuilt from the file stem where "__" stands
// in for the namespace colon first and path slashes after.
type RegistryFile struct {
	Name string
	Data []byte
}

func registryName(stem string) string {
	parts := strings.Split(stem, "__")
	if len(parts) == 1 {
		return stem
	}
	return parts[0] + ":" + strings.Join(parts[1:], "/")
}

// Registries returns every registry payload bundled for a protocol
// number, sorted by name. Versions before the configuration state have
// no registry directory; that is not an error.
func (s *Store) Registries(pvn int32) ([]RegistryFile, error) {
	dir := filepath.Join(s.root, "registries", fmt.Sprintf("%d", pvn))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	files := make([]RegistryFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".nbt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, RegistryFile{
			Name: registryName(strings.TrimSuffix(e.Name(), ".nbt")),
			Data: data,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
