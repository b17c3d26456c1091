// Package weights abstracts pretrained checkpoint files behind a common
// tensor-store interface. The embedding pipeline never touches a Store;
// only model loading inspects it, so encoder backends stay free to consume
// whichever checkpoint format they support.
package weights

import (
	"fmt"
	"strings"
)

// Checkpoint format names.
const (
	FormatSafetensors = "safetensors"
	FormatLegacy      = "pytorch"
)

// TensorInfo describes one tensor in a checkpoint. Shape and DType may be
// empty for formats whose index does not carry them.
type TensorInfo struct {
	Name  string
	DType string
	Shape []int64
}

// Store provides read access to a checkpoint's tensor inventory.
type Store interface {
	// Format returns the checkpoint format name.
	Format() string

	// Tensors lists the tensors in the checkpoint.
	Tensors() []TensorInfo

	// Tensor returns the raw bytes of the named tensor.
	Tensor(name string) (TensorInfo, []byte, error)

	// Close releases the underlying file resources.
	Close() error
}

// Open opens the checkpoint at path using the format implied by usePTH:
// the legacy pytorch container when true, the memory-mapped safetensors
// format otherwise.
func Open(path string, usePTH bool) (Store, error) {
	if usePTH {
		return OpenLegacy(path)
	}
	return OpenSafetensors(path)
}

// CheckHiddenSize verifies that the checkpoint's word-embedding table, when
// present with shape information, agrees with the configured hidden size.
// Stores without shape metadata pass the check.
func CheckHiddenSize(store Store, hiddenSize int) error {
	for _, info := range store.Tensors() {
		if !strings.HasSuffix(info.Name, "word_embeddings.weight") {
			continue
		}
		if len(info.Shape) == 0 {
			return nil
		}
		last := info.Shape[len(info.Shape)-1]
		if last != int64(hiddenSize) {
			return fmt.Errorf("checkpoint tensor %s has embedding dimension %d, config says %d",
				info.Name, last, hiddenSize)
		}
		return nil
	}
	// No word-embedding tensor found; nothing to cross-check.
	return nil
}
