package weights

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// writeSafetensors builds a minimal safetensors file with the given tensors.
func writeSafetensors(t *testing.T, tensors map[string]struct {
	dtype string
	shape []int64
	data  []byte
}) string {
	t.Helper()

	header := make(map[string]interface{}, len(tensors))
	var payload bytes.Buffer
	for name, tensor := range tensors {
		begin := payload.Len()
		payload.Write(tensor.data)
		header[name] = map[string]interface{}{
			"dtype":        tensor.dtype,
			"shape":        tensor.shape,
			"data_offsets": []int{begin, payload.Len()},
		}
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("failed to marshal header: %v", err)
	}

	var file bytes.Buffer
	if err := binary.Write(&file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		t.Fatalf("failed to write header length: %v", err)
	}
	file.Write(headerJSON)
	file.Write(payload.Bytes())

	path := filepath.Join(t.TempDir(), "model.safetensors")
	if err := os.WriteFile(path, file.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write safetensors file: %v", err)
	}
	return path
}

func f32bytes(vals ...float32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, vals)
	return buf.Bytes()
}

func TestSafetensorsStore(t *testing.T) {
	path := writeSafetensors(t, map[string]struct {
		dtype string
		shape []int64
		data  []byte
	}{
		"embeddings.word_embeddings.weight": {
			dtype: "F32",
			shape: []int64{2, 3},
			data:  f32bytes(1, 2, 3, 4, 5, 6),
		},
		"encoder.layer.0.bias": {
			dtype: "F32",
			shape: []int64{3},
			data:  f32bytes(7, 8, 9),
		},
	})

	store, err := OpenSafetensors(path)
	if err != nil {
		t.Fatalf("OpenSafetensors() error: %v", err)
	}
	defer store.Close()

	if store.Format() != FormatSafetensors {
		t.Errorf("Format() = %q, expected %q", store.Format(), FormatSafetensors)
	}

	infos := store.Tensors()
	if len(infos) != 2 {
		t.Fatalf("Tensors() returned %d entries, expected 2", len(infos))
	}
	// Listing is sorted by name.
	if infos[0].Name != "embeddings.word_embeddings.weight" {
		t.Errorf("first tensor = %q, expected word embeddings", infos[0].Name)
	}

	info, data, err := store.Tensor("embeddings.word_embeddings.weight")
	if err != nil {
		t.Fatalf("Tensor() error: %v", err)
	}
	if info.DType != "F32" || len(info.Shape) != 2 || info.Shape[0] != 2 || info.Shape[1] != 3 {
		t.Errorf("unexpected tensor info: %+v", info)
	}
	if !bytes.Equal(data, f32bytes(1, 2, 3, 4, 5, 6)) {
		t.Errorf("unexpected tensor data: %v", data)
	}

	if _, _, err := store.Tensor("missing"); err == nil {
		t.Error("Tensor() expected error for missing tensor, got nil")
	}
}

func TestSafetensorsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := OpenSafetensors(path); err == nil {
		t.Error("OpenSafetensors() expected error for truncated file, got nil")
	}
}

func TestCheckHiddenSize(t *testing.T) {
	path := writeSafetensors(t, map[string]struct {
		dtype string
		shape []int64
		data  []byte
	}{
		"embeddings.word_embeddings.weight": {
			dtype: "F32",
			shape: []int64{2, 3},
			data:  f32bytes(1, 2, 3, 4, 5, 6),
		},
	})

	store, err := OpenSafetensors(path)
	if err != nil {
		t.Fatalf("OpenSafetensors() error: %v", err)
	}
	defer store.Close()

	if err := CheckHiddenSize(store, 3); err != nil {
		t.Errorf("CheckHiddenSize(3) unexpected error: %v", err)
	}
	if err := CheckHiddenSize(store, 384); err == nil {
		t.Error("CheckHiddenSize(384) expected error for mismatched checkpoint, got nil")
	}
}

func writeLegacyCheckpoint(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pytorch_model.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create checkpoint: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	entries := map[string][]byte{
		"archive/data.pkl": []byte("pickle metadata"),
		"archive/data/0":   f32bytes(1, 2, 3),
		"archive/data/1":   f32bytes(4, 5),
	}
	for name, data := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		if _, err := entry.Write(data); err != nil {
			t.Fatalf("failed to write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	return path
}

func TestLegacyStore(t *testing.T) {
	path := writeLegacyCheckpoint(t)

	store, err := OpenLegacy(path)
	if err != nil {
		t.Fatalf("OpenLegacy() error: %v", err)
	}
	defer store.Close()

	if store.Format() != FormatLegacy {
		t.Errorf("Format() = %q, expected %q", store.Format(), FormatLegacy)
	}

	infos := store.Tensors()
	if len(infos) != 2 {
		t.Fatalf("Tensors() returned %d entries, expected 2", len(infos))
	}

	_, data, err := store.Tensor("0")
	if err != nil {
		t.Fatalf("Tensor() error: %v", err)
	}
	if !bytes.Equal(data, f32bytes(1, 2, 3)) {
		t.Errorf("unexpected payload data: %v", data)
	}

	// Legacy index has no shapes, so the hidden size check has nothing
	// to verify and passes.
	if err := CheckHiddenSize(store, 4096); err != nil {
		t.Errorf("CheckHiddenSize() unexpected error: %v", err)
	}
}

func TestOpenLegacyNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pytorch_model.bin")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := OpenLegacy(path); err == nil {
		t.Error("OpenLegacy() expected error for non-zip file, got nil")
	}
}

func TestOpenSelectsFormat(t *testing.T) {
	stPath := writeSafetensors(t, map[string]struct {
		dtype string
		shape []int64
		data  []byte
	}{
		"w": {dtype: "F32", shape: []int64{1}, data: f32bytes(1)},
	})

	store, err := Open(stPath, false)
	if err != nil {
		t.Fatalf("Open(usePTH=false) error: %v", err)
	}
	defer store.Close()
	if store.Format() != FormatSafetensors {
		t.Errorf("Open(usePTH=false) format = %q", store.Format())
	}

	legacyPath := writeLegacyCheckpoint(t)
	legacy, err := Open(legacyPath, true)
	if err != nil {
		t.Fatalf("Open(usePTH=true) error: %v", err)
	}
	defer legacy.Close()
	if legacy.Format() != FormatLegacy {
		t.Errorf("Open(usePTH=true) format = %q", legacy.Format())
	}
}
