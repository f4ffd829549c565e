// Package tools adapts the city/weather service to MCP tool handlers.
package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/weather-mcp/internal/weather"
)

// Handler is the mcp-go tool handler signature.
type Handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Service is what the handlers query.
type Service interface {
	Search(ctx context.Context, query string, limit int) ([]weather.City, error)
	City(ctx context.Context, id int64) (weather.City, error)
	Forecast(ctx context.Context, cityID int64, days int) (weather.Forecast, error)
	Activities(ctx context.Context, cityID int64, days int) (weather.City, []weather.RankedActivity, error)
}

// toolError reports err as a tool result, "<CODE>: <message>".
// Failures never surface as protocol errors.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", weather.CodeOf(err), err))
}

// argError reports a malformed or missing argument.
func argError(field string, err error) *mcp.CallToolResult {
	return toolError(&weather.InvalidArgumentError{Field: field, Reason: err.Error()})
}

// cityID reads the required city_id argument.
func cityID(req mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	id, err := req.RequireInt("city_id")
	if err != nil {
		return 0, argError("city_id", err)
	}
	return int64(id), nil
}
