package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cexll/trajcomments/internal/commentstore"
	"github.com/cexll/trajcomments/internal/identity"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolHandler serves the comment tools over the same store the HTTP API uses
type ToolHandler struct {
	store    *commentstore.Store
	resolver *identity.Resolver
}

// NewToolHandler creates a new MCP tool handler
func NewToolHandler(store *commentstore.Store, resolver *identity.Resolver) *ToolHandler {
	return &ToolHandler{
		store:    store,
		resolver: resolver,
	}
}

// ListCommentsParams defines the input parameters for list_comments
type ListCommentsParams struct {
	Submission string `json:"submission" jsonschema:"The submission id"`
	Trajectory string `json:"trajectory" jsonschema:"The trajectory id"`
	Simulation string `json:"simulation" jsonschema:"The simulation id"`
}

// AddCommentParams defines the input parameters for add_comment
type AddCommentParams struct {
	Submission string `json:"submission" jsonschema:"The submission id"`
	Trajectory string `json:"trajectory" jsonschema:"The trajectory id"`
	Simulation string `json:"simulation" jsonschema:"The simulation id"`
	Text       string `json:"text" jsonschema:"The comment text"`
	Author     string `json:"author,omitempty" jsonschema:"Author identity; defaults to the configured identity"`
}

// EditCommentParams defines the input parameters for edit_comment
type EditCommentParams struct {
	Submission string `json:"submission" jsonschema:"The submission id"`
	Trajectory string `json:"trajectory" jsonschema:"The trajectory id"`
	Simulation string `json:"simulation" jsonschema:"The simulation id"`
	CommentID  string `json:"commentId" jsonschema:"The id of the comment to edit"`
	Text       string `json:"text" jsonschema:"The replacement comment text"`
	Author     string `json:"author,omitempty" jsonschema:"Author identity; defaults to the configured identity"`
}

// DeleteCommentParams defines the input parameters for delete_comment
type DeleteCommentParams struct {
	Submission string `json:"submission" jsonschema:"The submission id"`
	Trajectory string `json:"trajectory" jsonschema:"The trajectory id"`
	Simulation string `json:"simulation" jsonschema:"The simulation id"`
	CommentID  string `json:"commentId" jsonschema:"The id of the comment to delete"`
	Author     string `json:"author,omitempty" jsonschema:"Author identity; defaults to the configured identity"`
}

// resolveAuthor picks the acting author: an explicit argument wins, otherwise
// the resolver's current identity. Fails when neither is available.
func (h *ToolHandler) resolveAuthor(author string) (string, error) {
	if trimmed := strings.TrimSpace(author); trimmed != "" {
		return trimmed, nil
	}
	res := h.resolver.Resolve()
	if res.Source == identity.SourceNone {
		return "", fmt.Errorf("no author given and no identity configured. %s", res.Guidance)
	}
	return res.Username, nil
}

func textResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)},
		},
		IsError: true,
	}
}

// HandleListComments handles the list_comments tool call
func (h *ToolHandler) HandleListComments(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params ListCommentsParams,
) (*mcp.CallToolResult, any, error) {
	key := commentstore.Key{
		Submission: params.Submission,
		Trajectory: params.Trajectory,
		Simulation: params.Simulation,
	}

	comments, err := h.store.ListAll(key)
	if err != nil {
		log.Printf("[MCP Comment Server] list_comments failed: %v", err)
		return errorResult(err), nil, nil
	}

	result, err := textResult(map[string]any{
		"comments": comments,
		"count":    len(comments),
	})
	return result, nil, err
}

// HandleAddComment handles the add_comment tool call
func (h *ToolHandler) HandleAddComment(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params AddCommentParams,
) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Text) == "" {
		return nil, nil, fmt.Errorf("text parameter is required")
	}

	author, err := h.resolveAuthor(params.Author)
	if err != nil {
		return nil, nil, err
	}

	key := commentstore.Key{
		Submission: params.Submission,
		Trajectory: params.Trajectory,
		Simulation: params.Simulation,
	}

	entry, err := h.store.Append(key, author, params.Text)
	if err != nil {
		log.Printf("[MCP Comment Server] add_comment failed: %v", err)
		return errorResult(err), nil, nil
	}

	log.Printf("[MCP Comment Server] Added comment %s by %s on %s", entry.ID, author, key)
	result, err := textResult(map[string]any{
		"comment": commentstore.AggregatedComment{CommentEntry: *entry, Author: author},
	})
	return result, nil, err
}

// HandleEditComment handles the edit_comment tool call
func (h *ToolHandler) HandleEditComment(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params EditCommentParams,
) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Text) == "" {
		return nil, nil, fmt.Errorf("text parameter is required")
	}
	if params.CommentID == "" {
		return nil, nil, fmt.Errorf("commentId parameter is required")
	}

	author, err := h.resolveAuthor(params.Author)
	if err != nil {
		return nil, nil, err
	}

	key := commentstore.Key{
		Submission: params.Submission,
		Trajectory: params.Trajectory,
		Simulation: params.Simulation,
	}

	entry, err := h.store.Edit(key, author, params.CommentID, params.Text)
	if err != nil {
		if errors.Is(err, commentstore.ErrNotFound) {
			return errorResult(fmt.Errorf("comment %s not found for author %s", params.CommentID, author)), nil, nil
		}
		log.Printf("[MCP Comment Server] edit_comment failed: %v", err)
		return errorResult(err), nil, nil
	}

	result, err := textResult(map[string]any{
		"comment": commentstore.AggregatedComment{CommentEntry: *entry, Author: author},
	})
	return result, nil, err
}

// HandleDeleteComment handles the delete_comment tool call
func (h *ToolHandler) HandleDeleteComment(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params DeleteCommentParams,
) (*mcp.CallToolResult, any, error) {
	if params.CommentID == "" {
		return nil, nil, fmt.Errorf("commentId parameter is required")
	}

	author, err := h.resolveAuthor(params.Author)
	if err != nil {
		return nil, nil, err
	}

	key := commentstore.Key{
		Submission: params.Submission,
		Trajectory: params.Trajectory,
		Simulation: params.Simulation,
	}

	if err := h.store.Delete(key, author, params.CommentID); err != nil {
		if errors.Is(err, commentstore.ErrNotFound) {
			return errorResult(fmt.Errorf("comment %s not found for author %s", params.CommentID, author)), nil, nil
		}
		log.Printf("[MCP Comment Server] delete_comment failed: %v", err)
		return errorResult(err), nil, nil
	}

	result, err := textResult(map[string]any{
		"success":   true,
		"commentId": params.CommentID,
		"author":    author,
	})
	return result, nil, err
}
