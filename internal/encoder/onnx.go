package encoder

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Default tensor names for transformer encoders exported to ONNX.
const (
	DefaultInputNameIDs     = "input_ids"
	DefaultInputNameTypeIDs = "token_type_ids"
	DefaultOutputName       = "last_hidden_state"
)

// ONNXConfig configures an ONNXEncoder.
type ONNXConfig struct {
	// ModelPath is the path to the exported model.onnx file.
	ModelPath string

	// InputNameIDs is the token-id input tensor name.
	InputNameIDs string

	// InputNameTypeIDs is the token-type-id input tensor name.
	InputNameTypeIDs string

	// OutputName is the per-token hidden-state output tensor name.
	OutputName string

	// LibraryPath optionally points at the onnxruntime shared library.
	LibraryPath string
}

// The onnxruntime environment is process-wide. It is initialized on first
// encoder construction and left up for the life of the process, so multiple
// encoders can coexist without tearing the runtime down under each other.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ONNXEncoder runs a transformer encoder exported to ONNX via onnxruntime.
type ONNXEncoder struct {
	cfg     ONNXConfig
	session *ort.DynamicAdvancedSession
}

// NewONNXEncoder loads the ONNX model at cfg.ModelPath and prepares an
// inference session with dynamic sequence length.
func NewONNXEncoder(cfg ONNXConfig) (*ONNXEncoder, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx model path must not be empty")
	}
	if cfg.InputNameIDs == "" {
		cfg.InputNameIDs = DefaultInputNameIDs
	}
	if cfg.InputNameTypeIDs == "" {
		cfg.InputNameTypeIDs = DefaultInputNameTypeIDs
	}
	if cfg.OutputName == "" {
		cfg.OutputName = DefaultOutputName
	}

	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputNameIDs, cfg.InputNameTypeIDs},
		[]string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create onnx session for %s: %w", cfg.ModelPath, err)
	}

	return &ONNXEncoder{cfg: cfg, session: session}, nil
}

// Forward runs one batch-size-1 forward pass and reshapes the flat output
// into one hidden-state row per token.
func (e *ONNXEncoder) Forward(tokenIDs, tokenTypeIDs []int64) ([][]float32, error) {
	if len(tokenTypeIDs) != len(tokenIDs) {
		return nil, fmt.Errorf("token type ids length %d does not match token ids length %d",
			len(tokenTypeIDs), len(tokenIDs))
	}
	if len(tokenIDs) == 0 {
		return nil, fmt.Errorf("cannot run forward pass on an empty token window")
	}

	n := int64(len(tokenIDs))
	idsTensor, err := ort.NewTensor(ort.NewShape(1, n), tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create token id tensor: %w", err)
	}
	defer idsTensor.Destroy()

	typeTensor, err := ort.NewTensor(ort.NewShape(1, n), tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create token type tensor: %w", err)
	}
	defer typeTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{idsTensor, typeTensor}, outputs); err != nil {
		return nil, fmt.Errorf("onnx forward pass failed: %w", err)
	}
	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("onnx output %s is not a float32 tensor", e.cfg.OutputName)
	}
	defer outTensor.Destroy()

	shape := outTensor.GetShape()
	if len(shape) != 3 || shape[0] != 1 || shape[1] != n {
		return nil, fmt.Errorf("unexpected output shape %v for %d input tokens", shape, n)
	}
	hiddenSize := int(shape[2])

	data := outTensor.GetData()
	hidden := make([][]float32, len(tokenIDs))
	for i := range hidden {
		row := make([]float32, hiddenSize)
		copy(row, data[i*hiddenSize:(i+1)*hiddenSize])
		hidden[i] = row
	}
	return hidden, nil
}

// Close destroys the inference session. The shared runtime environment is
// left up for other encoders in the process.
func (e *ONNXEncoder) Close() error {
	if e.session != nil {
		err := e.session.Destroy()
		e.session = nil
		return err
	}
	return nil
}
