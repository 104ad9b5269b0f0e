package portfolio

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/fitrackhq/fitrack/internal/models"
)

// RenderPerformanceChart renders a PNG line chart from the 12-point monthly
// performance series. Three series: Value (blue solid), Cost Basis (gray
// dashed) and Debt (red dotted). Returns raw PNG bytes.
func RenderPerformanceChart(points []models.PerformancePoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]float64, len(points))
	valueY := make([]float64, len(points))
	costY := make([]float64, len(points))
	debtY := make([]float64, len(points))
	labels := make([]string, len(points))

	for i, p := range points {
		xValues[i] = float64(i)
		valueY[i] = p.Value
		costY[i] = p.CostBasis
		debtY[i] = p.Debt
		labels[i] = p.Date
	}

	valueSeries := chart.ContinuousSeries{
		Name: "Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: valueY,
	}

	costSeries := chart.ContinuousSeries{
		Name: "Cost Basis",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: costY,
	}

	debtSeries := chart.ContinuousSeries{
		Name: "Debt",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("dc2626"), // red-600
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{2.0, 2.0},
		},
		XValues: xValues,
		YValues: debtY,
	}

	graph := chart.Chart{
		Title:  "Monthly Performance",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					i := int(f)
					if i >= 0 && i < len(labels) {
						return labels[i]
					}
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			valueSeries,
			costSeries,
			debtSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
