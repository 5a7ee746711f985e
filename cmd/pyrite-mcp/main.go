package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/markramm/pyrite/internal/app"
)

func main() {
	logger := arbor.NewLogger().WithConsoleWriter(arbormodels.WriterConfiguration{
		Type:             arbormodels.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	application, err := app.Bootstrap("")
	if err != nil {
		logger.Fatal().Err(err).Msg("pyrite-mcp: failed to bootstrap")
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"pyrite",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(searchTool(), handleSearch(application.Service, application.Logger))
	mcpServer.AddTool(searchSemanticTool(), handleSearchSemantic(application.Service, application.Logger))
	mcpServer.AddTool(searchHybridTool(), handleSearchHybrid(application.Service, application.Logger))
	mcpServer.AddTool(getGraphTool(), handleGetGraph(application.Service, application.Logger))
	mcpServer.AddTool(getBacklinksTool(), handleGetBacklinks(application.Service, application.Logger))
	mcpServer.AddTool(getTimelineTool(), handleGetTimeline(application.Service, application.Logger))
	mcpServer.AddTool(getTagsTool(), handleGetTags(application.Service, application.Logger))

	if err := server.ServeStdio(mcpServer); err != nil {
		application.Logger.Fatal().Err(err).Msg("pyrite-mcp: server failed")
	}
}
