package report

import (
	"bytes"
	"fmt"

	"fintrack/internal/core"

	"github.com/wcharczuk/go-chart/v2"
)

const (
	chartWidth  = 1000
	chartHeight = 480
)

// RenderCategoryChart draws spent and budget bars for every category as PNG.
func RenderCategoryChart(d core.Dashboard) ([]byte, error) {
	bars := make([]chart.Value, 0, 2*len(d.Budgets))
	top := 1.0
	for _, b := range d.Budgets {
		spentColor := chart.ColorBlue
		if b.Over {
			spentColor = chart.ColorRed
		}
		bars = append(bars,
			chart.Value{
				Label: b.Category.Label(),
				Value: b.Spent.Float(),
				Style: chart.Style{
					StrokeColor: spentColor,
					FillColor:   spentColor,
				},
			},
			chart.Value{
				Label: "budget",
				Value: b.Budget.Float(),
				Style: chart.Style{
					StrokeColor: chart.ColorAlternateGray,
					FillColor:   chart.ColorAlternateGray.WithAlpha(100),
				},
			},
		)
		top = max(top, b.Spent.Float(), b.Budget.Float())
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no categories to chart")
	}

	graph := chart.BarChart{
		Title: fmt.Sprintf("Spending by category, %04d-%02d", d.Monthly.Year, d.Monthly.Month),
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   40,
		BarSpacing: 20,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("$%.0f", v.(float64))
			},
			Style: chart.Style{
				FontSize:  10,
				FontColor: chart.ColorBlack,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render category chart: %w", err)
	}
	return buffer.Bytes(), nil
}
