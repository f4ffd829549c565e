package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/weather-mcp/internal/service"
	"github.com/leonardcser/weather-mcp/internal/weather"
)

// CitySearchHandler returns the MCP tool handler for the "city-search" tool.
func CitySearchHandler(svc Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := req.RequireString("query")
		if err != nil {
			return argError("query", err), nil
		}
		limit := req.GetInt("limit", service.DefaultLimit)
		cities, err := svc.Search(ctx, q, limit)
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(formatCities(cities)), nil
	}
}

// CityLookupHandler returns the MCP tool handler for the "city-lookup" tool.
func CityLookupHandler(svc Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errRes := cityID(req)
		if errRes != nil {
			return errRes, nil
		}
		c, err := svc.City(ctx, id)
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(formatCity(c)), nil
	}
}

// formatCities renders an ordered list, one city per block.
func formatCities(cities []weather.City) string {
	if len(cities) == 0 {
		return "No cities found."
	}
	var sb strings.Builder
	for i, c := range cities {
		fmt.Fprintf(&sb, "%d. %s", i+1, formatCity(c))
		if i < len(cities)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

func formatCity(c weather.City) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (id %d)\n   lat %.4f, lon %.4f", c.Label(), c.ID, c.Latitude, c.Longitude)
	if c.Population > 0 {
		fmt.Fprintf(&sb, ", population %d", c.Population)
	}
	if c.Timezone != "" {
		sb.WriteString(", ")
		sb.WriteString(c.Timezone)
	}
	return sb.String()
}
