package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/weather-mcp/internal/service"
	"github.com/leonardcser/weather-mcp/internal/weather"
)

// ForecastHandler returns the MCP tool handler for the "weather-forecast" tool.
func ForecastHandler(svc Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errRes := cityID(req)
		if errRes != nil {
			return errRes, nil
		}
		f, err := svc.Forecast(ctx, id, req.GetInt("days", service.DefaultDays))
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(formatForecast(f)), nil
	}
}

// ActivityRankingHandler returns the MCP tool handler for the "activity-ranking" tool.
func ActivityRankingHandler(svc Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errRes := cityID(req)
		if errRes != nil {
			return errRes, nil
		}
		city, ranked, err := svc.Activities(ctx, id, req.GetInt("days", service.DefaultDays))
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(formatRanking(city, ranked)), nil
	}
}

func formatForecast(f weather.Forecast) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", f.City.Label())
	if len(f.Days) == 0 {
		sb.WriteString("\nNo forecast days.")
		return sb.String()
	}
	for _, d := range f.Days {
		fmt.Fprintf(&sb, "\n- %s: %s, %.1f..%.1f °C, precipitation %.1f mm",
			d.Date, d.Condition, d.TempMinC, d.TempMaxC, d.PrecipitationMM)
		if d.SnowfallCM > 0 {
			fmt.Fprintf(&sb, ", snowfall %.1f cm", d.SnowfallCM)
		}
		fmt.Fprintf(&sb, ", wind up to %.0f km/h", d.WindSpeedMaxKmh)
	}
	return sb.String()
}

func formatRanking(city weather.City, ranked []weather.RankedActivity) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Activities in %s\n", city.Label())
	for _, r := range ranked {
		fmt.Fprintf(&sb, "\n%d. %s: %.1f", r.Rank, r.Activity, r.Score)
		if r.BestDay != "" {
			fmt.Fprintf(&sb, " (best %s, %.1f)", r.BestDay, r.BestScore)
		}
	}
	return sb.String()
}
