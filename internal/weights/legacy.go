package weights

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// LegacyStore reads the legacy pytorch_model.bin container, which is a zip
// archive holding one payload file per tensor under a data/ directory. The
// archive's pickle metadata is not decoded, so tensor names are the archive
// record keys and shapes are unknown; CheckHiddenSize treats that as
// nothing to verify.
type LegacyStore struct {
	path    string
	archive *zip.ReadCloser
	entries map[string]*zip.File
}

// OpenLegacy opens a legacy pytorch checkpoint and indexes its payloads.
func OpenLegacy(filePath string) (*LegacyStore, error) {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy checkpoint (expected zip container): %w", err)
	}

	entries := make(map[string]*zip.File)
	for _, f := range archive.File {
		dir, name := path.Split(f.Name)
		if !strings.HasSuffix(dir, "data/") || name == "" {
			continue
		}
		entries[name] = f
	}
	if len(entries) == 0 {
		archive.Close()
		return nil, fmt.Errorf("legacy checkpoint %s contains no tensor payloads", filePath)
	}

	return &LegacyStore{
		path:    filePath,
		archive: archive,
		entries: entries,
	}, nil
}

// Format returns the checkpoint format name.
func (s *LegacyStore) Format() string {
	return FormatLegacy
}

// Tensors lists the checkpoint's payload records, sorted by key.
func (s *LegacyStore) Tensors() []TensorInfo {
	infos := make([]TensorInfo, 0, len(s.entries))
	for name := range s.entries {
		infos = append(infos, TensorInfo{Name: name})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Tensor returns the raw bytes of the named payload record.
func (s *LegacyStore) Tensor(name string) (TensorInfo, []byte, error) {
	f, ok := s.entries[name]
	if !ok {
		return TensorInfo{}, nil, fmt.Errorf("tensor payload %s not found in %s", name, s.path)
	}

	rc, err := f.Open()
	if err != nil {
		return TensorInfo{}, nil, fmt.Errorf("failed to open tensor payload %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return TensorInfo{}, nil, fmt.Errorf("failed to read tensor payload %s: %w", name, err)
	}
	return TensorInfo{Name: name}, data, nil
}

// Close closes the underlying archive.
func (s *LegacyStore) Close() error {
	if s.archive == nil {
		return nil
	}
	err := s.archive.Close()
	s.archive = nil
	s.entries = nil
	return err
}
