// Package server provides the MCP server implementation for the textembed service.
package server

// EmbedToolServer defines the interface for the MCP server that handles
// embedding-related tool calls from MCP clients.
type EmbedToolServer interface {
	// Initialize initializes the server with dependencies and configurations.
	Initialize() error

	// Start starts the MCP server on the specified transport.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}

// ModelInfo describes the loaded model snapshot for the model_info tool.
type ModelInfo struct {
	ModelID      string
	Revision     string
	WeightFormat string
	TensorCount  int
}

// EmbeddingModel is the capability the tool server needs from a loaded
// model handle.
type EmbeddingModel interface {
	// Predict embeds one text into a fixed-size vector.
	Predict(text string) ([]float32, error)

	// MaxInputLen returns the encoder's maximum token window size.
	MaxInputLen() int

	// HiddenSize returns the embedding dimensionality.
	HiddenSize() int

	// Describe returns the loaded model's identity and checkpoint details.
	Describe() ModelInfo
}
