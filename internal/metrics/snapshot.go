package metrics

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Point is one collected data point.
type Point struct {
	Name  string  `json:"name"`
	Attrs string  `json:"attrs,omitempty"`
	Value float64 `json:"value"` // counter value, or histogram sum
	Count uint64  `json:"count"` // histogram sample count, 0 for counters
}

// Snapshot collects every int64 counter and float64 histogram from reader,
// sorted by name then attributes.
func Snapshot(ctx context.Context, reader sdkmetric.Reader) ([]Point, error) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	var out []Point
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out = append(out, Point{Name: m.Name, Attrs: formatAttrs(dp.Attributes), Value: float64(dp.Value)})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					out = append(out, Point{Name: m.Name, Attrs: formatAttrs(dp.Attributes), Value: dp.Sum, Count: dp.Count})
				}
			}
		}
	}
	slices.SortFunc(out, func(a, b Point) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Attrs, b.Attrs)
	})
	return out, nil
}

func formatAttrs(set attribute.Set) string {
	parts := make([]string, 0, set.Len())
	iter := set.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		parts = append(parts, string(kv.Key)+"="+kv.Value.Emit())
	}
	return strings.Join(parts, ",")
}
