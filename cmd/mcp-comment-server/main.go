package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cexll/trajcomments/internal/commentstore"
	"github.com/cexll/trajcomments/internal/identity"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	// Load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	// 1. Resolve the data directory holding the submissions tree
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "public"
	}

	log.Println("[MCP Comment Server] Starting Trajectory Comment MCP Server v1.0.0")
	log.Printf("[MCP Comment Server] Data dir: %s", dataDir)

	handler := NewToolHandler(
		commentstore.NewStore(dataDir),
		identity.NewResolver(&identity.RealCommandRunner{}),
	)

	// 2. Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "trajectory-comment-server",
		Version: "v1.0.0",
	}, nil)

	// 3. Register comment tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_comments",
		Description: "List all comments on a simulation trajectory, across all authors, oldest first",
	}, handler.HandleListComments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_comment",
		Description: "Add a comment to a simulation trajectory (author defaults to the configured identity)",
	}, handler.HandleAddComment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "edit_comment",
		Description: "Replace the text of one of your comments on a simulation trajectory",
	}, handler.HandleEditComment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_comment",
		Description: "Delete one of your comments from a simulation trajectory",
	}, handler.HandleDeleteComment)

	log.Println("[MCP Comment Server] Registered tools: list_comments, add_comment, edit_comment, delete_comment")

	// 4. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[MCP Comment Server] Received shutdown signal")
		cancel()
	}()

	// 5. Start server with stdio transport
	log.Println("[MCP Comment Server] Starting on stdio transport...")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("[MCP Comment Server] Server error: %v", err)
	}
	log.Println("[MCP Comment Server] Server stopped gracefully")
}
