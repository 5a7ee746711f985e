package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func searchTool() mcp.Tool {
	return mcp.NewTool("search",
		mcp.WithDescription("Full-text search over a knowledge base's entries"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query text")),
		mcp.WithString("kb_name", mcp.Required(), mcp.Description("Knowledge base name")),
		mcp.WithString("entry_type", mcp.Description("Restrict to one entry type")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return (default: 20)")),
	)
}

func searchSemanticTool() mcp.Tool {
	return mcp.NewTool("search_semantic",
		mcp.WithDescription("K-nearest-neighbor search over stored embeddings"),
		mcp.WithString("kb_name", mcp.Required(), mcp.Description("Knowledge base name")),
		mcp.WithArray("vector", mcp.Required(), mcp.WithNumberItems(), mcp.Description("Query embedding vector")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return (default: 10)")),
	)
}

func searchHybridTool() mcp.Tool {
	return mcp.NewTool("search_hybrid",
		mcp.WithDescription("Fuses lexical and semantic search via reciprocal rank fusion"),
		mcp.WithString("kb_name", mcp.Required(), mcp.Description("Knowledge base name")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query text")),
		mcp.WithArray("vector", mcp.Required(), mcp.WithNumberItems(), mcp.Description("Query embedding vector")),
		mcp.WithNumber("k", mcp.Description("Candidates taken from each of the keyword and semantic lists before fusion (default: 60)")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return (default: 10)")),
	)
}

func getGraphTool() mcp.Tool {
	return mcp.NewTool("get_graph",
		mcp.WithDescription("Traverse the link graph outward from an entry"),
		mcp.WithString("kb_name", mcp.Required(), mcp.Description("Knowledge base name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Center entry id")),
		mcp.WithNumber("depth", mcp.Description("Traversal depth, clamped to [1,3] (default: 1)")),
	)
}

func getBacklinksTool() mcp.Tool {
	return mcp.NewTool("get_backlinks",
		mcp.WithDescription("List entries that link to a given entry"),
		mcp.WithString("kb_name", mcp.Required(), mcp.Description("Knowledge base name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Target entry id")),
	)
}

func getTimelineTool() mcp.Tool {
	return mcp.NewTool("get_timeline",
		mcp.WithDescription("List dated entries in chronological order"),
		mcp.WithString("kb_name", mcp.Required(), mcp.Description("Knowledge base name")),
		mcp.WithNumber("min_importance", mcp.Description("Only entries at or above this importance")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return (default: 50)")),
	)
}

func getTagsTool() mcp.Tool {
	return mcp.NewTool("get_tags",
		mcp.WithDescription("List a knowledge base's tags, flat or as a forward-slash hierarchy"),
		mcp.WithString("kb_name", mcp.Required(), mcp.Description("Knowledge base name")),
		mcp.WithBoolean("tree", mcp.Description("Group tags into their hierarchy instead of a flat list")),
	)
}
