package server

import (
	"errors"
	"log/slog"

	"github.com/localrivet/gomcp/server"
	"github.com/localrivet/textembed/internal/errortypes"
	"github.com/localrivet/textembed/internal/tools"
	"github.com/localrivet/textembed/internal/vector"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("one or more required dependencies are nil")
)

// MCPEmbedToolServer implements the EmbedToolServer interface for handling
// MCP tool calls related to text embedding.
type MCPEmbedToolServer struct {
	model     EmbeddingModel
	mcpServer server.Server
}

// NewEmbedToolServer creates a new MCPEmbedToolServer instance.
func NewEmbedToolServer(model EmbeddingModel) *MCPEmbedToolServer {
	return &MCPEmbedToolServer{
		model: model,
	}
}

// Initialize initializes the server with dependencies and configurations.
func (s *MCPEmbedToolServer) Initialize() error {
	slog.Info("Initializing MCP Embed Tool Server")

	if s.model == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}

	// Create the MCP server
	srv := server.NewServer("textembed")

	// Register embed_text tool
	srv = srv.Tool(tools.ToolEmbedText, "Embed a text of any length into a fixed-size semantic vector",
		s.handleEmbedText)

	// Register model_info tool
	srv = srv.Tool(tools.ToolModelInfo, "Describe the loaded embedding model",
		s.handleModelInfo)

	// Register compare_texts tool
	srv = srv.Tool(tools.ToolCompareTexts, "Compute the cosine similarity of two texts' embeddings",
		s.handleCompareTexts)

	s.mcpServer = srv
	slog.Info("MCP Embed Tool Server initialized successfully", "tool_count", 3)
	return nil
}

// Start starts the MCP server on the specified transport.
func (s *MCPEmbedToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	slog.Info("Starting MCP Embed Tool Server")

	// Start the server using stdio transport
	stdioServer := s.mcpServer.AsStdio()
	return stdioServer.Run()
}

// Stop gracefully shuts down the MCP server.
func (s *MCPEmbedToolServer) Stop() error {
	slog.Info("Stopping MCP Embed Tool Server")
	// The server will exit when stdin is closed
	return nil
}

// handleEmbedText handles the embed_text MCP tool call.
func (s *MCPEmbedToolServer) handleEmbedText(ctx *server.Context, req tools.EmbedTextRequest) (tools.EmbedTextResponse, error) {
	slog.Info("Processing embed_text request", "text_length", len(req.Text))

	response := tools.EmbedTextResponse{
		Status: "success",
	}

	embedding, err := s.model.Predict(req.Text)
	if err != nil {
		err = errortypes.InternalError(err, "failed to embed text").
			WithField("text_length", len(req.Text))
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	response.Embedding = embedding
	response.Dimensions = len(embedding)
	slog.Info("Successfully embedded text", "dimensions", len(embedding))
	return response, nil
}

// handleModelInfo handles the model_info MCP tool call.
func (s *MCPEmbedToolServer) handleModelInfo(ctx *server.Context, req tools.ModelInfoRequest) (tools.ModelInfoResponse, error) {
	slog.Info("Processing model_info request")

	info := s.model.Describe()
	return tools.ModelInfoResponse{
		Status:       "success",
		ModelID:      info.ModelID,
		Revision:     info.Revision,
		MaxInputLen:  s.model.MaxInputLen(),
		HiddenSize:   s.model.HiddenSize(),
		WeightFormat: info.WeightFormat,
		TensorCount:  info.TensorCount,
	}, nil
}

// handleCompareTexts handles the compare_texts MCP tool call.
func (s *MCPEmbedToolServer) handleCompareTexts(ctx *server.Context, req tools.CompareTextsRequest) (tools.CompareTextsResponse, error) {
	slog.Info("Processing compare_texts request",
		"text_a_length", len(req.TextA), "text_b_length", len(req.TextB))

	response := tools.CompareTextsResponse{
		Status: "success",
	}

	embeddingA, err := s.model.Predict(req.TextA)
	if err != nil {
		err = errortypes.InternalError(err, "failed to embed first text")
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	embeddingB, err := s.model.Predict(req.TextB)
	if err != nil {
		err = errortypes.InternalError(err, "failed to embed second text")
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	similarity, err := vector.CosineSimilarity(embeddingA, embeddingB)
	if err != nil {
		err = errortypes.InternalError(err, "failed to compare embeddings")
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	response.Similarity = similarity
	slog.Info("Successfully compared texts", "similarity", similarity)
	return response, nil
}
