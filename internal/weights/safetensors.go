package weights

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"syscall"
)

// safetensors layout: an 8-byte little-endian header length, a JSON header
// mapping tensor names to dtype/shape/byte offsets, then the packed tensor
// data. Offsets in the header are relative to the start of the data section.

const maxHeaderSize = 100 << 20

// SafetensorsStore serves tensors out of a memory-mapped safetensors file.
type SafetensorsStore struct {
	path    string
	mapping []byte
	dataOff int
	index   map[string]safetensorsEntry
}

type safetensorsEntry struct {
	info  TensorInfo
	begin int
	end   int
}

type rawHeaderEntry struct {
	DType       string  `json:"dtype"`
	Shape       []int64 `json:"shape"`
	DataOffsets []int64 `json:"data_offsets"`
}

// OpenSafetensors memory-maps the file at path and parses its tensor index.
func OpenSafetensors(path string) (*SafetensorsStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open safetensors file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat safetensors file: %w", err)
	}
	size := stat.Size()
	if size < 8 {
		return nil, fmt.Errorf("safetensors file %s is truncated", path)
	}

	mapping, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap safetensors file: %w", err)
	}

	store, err := parseSafetensors(path, mapping)
	if err != nil {
		syscall.Munmap(mapping)
		return nil, err
	}
	return store, nil
}

func parseSafetensors(path string, mapping []byte) (*SafetensorsStore, error) {
	headerLen := binary.LittleEndian.Uint64(mapping[:8])
	if headerLen > maxHeaderSize || int(headerLen) > len(mapping)-8 {
		return nil, fmt.Errorf("safetensors header length %d out of bounds", headerLen)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(mapping[8:8+headerLen], &raw); err != nil {
		return nil, fmt.Errorf("failed to parse safetensors header: %w", err)
	}

	dataOff := 8 + int(headerLen)
	dataLen := len(mapping) - dataOff

	index := make(map[string]safetensorsEntry, len(raw))
	for name, msg := range raw {
		if name == "__metadata__" {
			continue
		}
		var entry rawHeaderEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse safetensors entry %s: %w", name, err)
		}
		if len(entry.DataOffsets) != 2 {
			return nil, fmt.Errorf("safetensors entry %s has malformed data offsets", name)
		}
		begin, end := entry.DataOffsets[0], entry.DataOffsets[1]
		if begin < 0 || end < begin || end > int64(dataLen) {
			return nil, fmt.Errorf("safetensors entry %s has out-of-bounds data offsets [%d, %d)", name, begin, end)
		}
		index[name] = safetensorsEntry{
			info: TensorInfo{
				Name:  name,
				DType: entry.DType,
				Shape: entry.Shape,
			},
			begin: int(begin),
			end:   int(end),
		}
	}

	return &SafetensorsStore{
		path:    path,
		mapping: mapping,
		dataOff: dataOff,
		index:   index,
	}, nil
}

// Format returns the checkpoint format name.
func (s *SafetensorsStore) Format() string {
	return FormatSafetensors
}

// Tensors lists the tensors in the checkpoint, sorted by name.
func (s *SafetensorsStore) Tensors() []TensorInfo {
	infos := make([]TensorInfo, 0, len(s.index))
	for _, entry := range s.index {
		infos = append(infos, entry.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Tensor returns the named tensor's metadata and raw bytes. The bytes are a
// view into the mapping and remain valid only until Close.
func (s *SafetensorsStore) Tensor(name string) (TensorInfo, []byte, error) {
	entry, ok := s.index[name]
	if !ok {
		return TensorInfo{}, nil, fmt.Errorf("tensor %s not found in %s", name, s.path)
	}
	return entry.info, s.mapping[s.dataOff+entry.begin : s.dataOff+entry.end], nil
}

// Close unmaps the checkpoint file.
func (s *SafetensorsStore) Close() error {
	if s.mapping == nil {
		return nil
	}
	err := syscall.Munmap(s.mapping)
	s.mapping = nil
	s.index = nil
	return err
}
