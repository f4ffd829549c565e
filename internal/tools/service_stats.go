package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/weather-mcp/internal/metrics"
)

// CollectFunc gathers the current metric points.
type CollectFunc func(ctx context.Context) ([]metrics.Point, error)

// ServiceStatsHandler returns the MCP tool handler for the "service-stats" tool.
func ServiceStatsHandler(collect CollectFunc) Handler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		points, err := collect(ctx)
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(formatPoints(points)), nil
	}
}

func formatPoints(points []metrics.Point) string {
	if len(points) == 0 {
		return "No activity recorded yet."
	}
	var sb strings.Builder
	for i, p := range points {
		sb.WriteString(p.Name)
		if p.Attrs != "" {
			fmt.Fprintf(&sb, "{%s}", p.Attrs)
		}
		if p.Count > 0 {
			fmt.Fprintf(&sb, " count=%d sum=%.3f", p.Count, p.Value)
		} else {
			fmt.Fprintf(&sb, " %g", p.Value)
		}
		if i < len(points)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
