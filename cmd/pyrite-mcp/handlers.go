package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
	"github.com/markramm/pyrite/pkg/service"
)

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf(format, args...))}}
}

// jsonResult renders v as a JSON text block. Tool results are plain text
// content over stdio; callers (LLM clients) parse the JSON themselves.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to encode result: %v", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(string(data))}}
}

func vectorArg(request mcp.CallToolRequest) model.Embedding {
	raw, ok := request.GetArguments()["vector"].([]any)
	if !ok {
		return nil
	}
	vec := make(model.Embedding, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			vec = append(vec, float32(f))
		}
	}
	return vec
}

func handleSearch(svc *service.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return errorResult("Error: query parameter is required"), nil
		}
		kbName, err := request.RequireString("kb_name")
		if err != nil || kbName == "" {
			return errorResult("Error: kb_name parameter is required"), nil
		}
		results, err := svc.Search(ctx, backend.SearchFilter{
			Query:  query,
			KBName: kbName,
			Type:   request.GetString("entry_type", ""),
			Limit:  request.GetInt("limit", 20),
		})
		if err != nil {
			logger.Error().Err(err).Msg("search failed")
			return errorResult("search error: %v", err), nil
		}
		return jsonResult(results), nil
	}
}

func handleSearchSemantic(svc *service.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kbName, err := request.RequireString("kb_name")
		if err != nil || kbName == "" {
			return errorResult("Error: kb_name parameter is required"), nil
		}
		vector := vectorArg(request)
		if len(vector) == 0 {
			return errorResult("Error: vector parameter is required"), nil
		}
		results, err := svc.SearchSemantic(ctx, backend.SemanticFilter{
			KBName: kbName, Vector: vector, Limit: request.GetInt("limit", 10),
		})
		if err != nil {
			logger.Error().Err(err).Msg("search_semantic failed")
			return errorResult("search_semantic error: %v", err), nil
		}
		return jsonResult(results), nil
	}
}

func handleSearchHybrid(svc *service.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kbName, err := request.RequireString("kb_name")
		if err != nil || kbName == "" {
			return errorResult("Error: kb_name parameter is required"), nil
		}
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return errorResult("Error: query parameter is required"), nil
		}
		vector := vectorArg(request)
		if len(vector) == 0 {
			return errorResult("Error: vector parameter is required"), nil
		}
		k := request.GetInt("k", 60)
		limit := request.GetInt("limit", 10)
		results, err := svc.SearchHybrid(ctx, kbName, query, vector, k, limit)
		if err != nil {
			logger.Error().Err(err).Msg("search_hybrid failed")
			return errorResult("search_hybrid error: %v", err), nil
		}
		return jsonResult(results), nil
	}
}

func handleGetGraph(svc *service.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kbName, err := request.RequireString("kb_name")
		if err != nil || kbName == "" {
			return errorResult("Error: kb_name parameter is required"), nil
		}
		id, err := request.RequireString("id")
		if err != nil || id == "" {
			return errorResult("Error: id parameter is required"), nil
		}
		data, err := svc.GetGraph(ctx, backend.GraphFilter{
			CenterID: id, CenterKB: kbName, Depth: request.GetInt("depth", 1),
		})
		if err != nil {
			logger.Error().Err(err).Msg("get_graph failed")
			return errorResult("get_graph error: %v", err), nil
		}
		return jsonResult(data), nil
	}
}

func handleGetBacklinks(svc *service.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kbName, err := request.RequireString("kb_name")
		if err != nil || kbName == "" {
			return errorResult("Error: kb_name parameter is required"), nil
		}
		id, err := request.RequireString("id")
		if err != nil || id == "" {
			return errorResult("Error: id parameter is required"), nil
		}
		links, err := svc.GetBacklinks(ctx, id, kbName)
		if err != nil {
			logger.Error().Err(err).Msg("get_backlinks failed")
			return errorResult("get_backlinks error: %v", err), nil
		}
		return jsonResult(links), nil
	}
}

func handleGetTimeline(svc *service.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kbName, err := request.RequireString("kb_name")
		if err != nil || kbName == "" {
			return errorResult("Error: kb_name parameter is required"), nil
		}
		entries, err := svc.GetTimeline(ctx, backend.TimelineFilter{
			KBName:        kbName,
			MinImportance: request.GetInt("min_importance", 0),
			Limit:         request.GetInt("limit", 50),
		})
		if err != nil {
			logger.Error().Err(err).Msg("get_timeline failed")
			return errorResult("get_timeline error: %v", err), nil
		}
		return jsonResult(entries), nil
	}
}

func handleGetTags(svc *service.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kbName, err := request.RequireString("kb_name")
		if err != nil || kbName == "" {
			return errorResult("Error: kb_name parameter is required"), nil
		}
		if request.GetBool("tree", false) {
			tree, err := svc.GetTagTree(ctx, kbName)
			if err != nil {
				logger.Error().Err(err).Msg("get_tags failed")
				return errorResult("get_tags error: %v", err), nil
			}
			return jsonResult(tree), nil
		}
		tags, err := svc.GetTags(ctx, kbName)
		if err != nil {
			logger.Error().Err(err).Msg("get_tags failed")
			return errorResult("get_tags error: %v", err), nil
		}
		return jsonResult(tags), nil
	}
}
