package outwriter

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const chartHeight = "500px"

// barSeries is one named series of a bar chart.
type barSeries struct {
	name   string
	values []float64
	stack  string // series with the same stack are drawn on top of each other
}

// newBarChart builds a bar chart over labels, one bar group per label.
func newBarChart(title, subtitle, yAxis string, labels []string, series []barSeries) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Interval: "0", Rotate: 30}}),
		charts.WithYAxisOpts(opts.YAxis{Name: yAxis}),
	)
	bar.SetXAxis(labels)

	for _, s := range series {
		data := make([]opts.BarData, len(s.values))
		for i, v := range s.values {
			data[i] = opts.BarData{Value: v}
		}
		var seriesOpts []charts.SeriesOpts
		if s.stack != "" {
			seriesOpts = append(seriesOpts, charts.WithBarChartOpts(opts.BarChart{Stack: s.stack}))
		}
		bar.AddSeries(s.name, data, seriesOpts...)
	}
	return bar
}

// renderCharts writes the charts as one HTML page.
func renderCharts(w io.Writer, pageTitle string, bars ...*charts.Bar) error {
	page := components.NewPage()
	page.PageTitle = pageTitle
	for _, b := range bars {
		page.AddCharts(b)
	}
	return page.Render(w)
}
