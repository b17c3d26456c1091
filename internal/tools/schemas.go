// Package tools defines the MCP tool names and data structures
// for the textembed service.
package tools

const (
	// ToolEmbedText is the name of the embed_text MCP tool
	ToolEmbedText = "embed_text"

	// ToolModelInfo is the name of the model_info MCP tool
	ToolModelInfo = "model_info"

	// ToolCompareTexts is the name of the compare_texts MCP tool
	ToolCompareTexts = "compare_texts"
)

// EmbedTextRequest defines the input schema for the embed_text tool
type EmbedTextRequest struct {
	// Text is the input to embed
	Text string `json:"text"`
}

// EmbedTextResponse defines the output schema for the embed_text tool
type EmbedTextResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Embedding is the document vector, one value per hidden channel
	Embedding []float32 `json:"embedding,omitempty"`

	// Dimensions is the length of the embedding
	Dimensions int `json:"dimensions,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// ModelInfoRequest defines the input schema for the model_info tool
type ModelInfoRequest struct{}

// ModelInfoResponse defines the output schema for the model_info tool
type ModelInfoResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// ModelID is the loaded model's repository identifier
	ModelID string `json:"model_id,omitempty"`

	// Revision is the loaded model revision
	Revision string `json:"revision,omitempty"`

	// MaxInputLen is the encoder's maximum token window size
	MaxInputLen int `json:"max_input_len,omitempty"`

	// HiddenSize is the embedding dimensionality
	HiddenSize int `json:"hidden_size,omitempty"`

	// WeightFormat names the checkpoint format in use
	WeightFormat string `json:"weight_format,omitempty"`

	// TensorCount is the number of tensors in the checkpoint index
	TensorCount int `json:"tensor_count,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// CompareTextsRequest defines the input schema for the compare_texts tool
type CompareTextsRequest struct {
	// TextA is the first text to compare
	TextA string `json:"text_a"`

	// TextB is the second text to compare
	TextB string `json:"text_b"`
}

// CompareTextsResponse defines the output schema for the compare_texts tool
type CompareTextsResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Similarity is the cosine similarity of the two embeddings
	Similarity float64 `json:"similarity,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}
