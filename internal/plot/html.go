package plot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTML writes each figure as a standalone go-echarts page.
type HTML struct {
	dir string
}

func (r *HTML) Render(fig Figure, name string) error {
	fig, err := prepare(fig)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(r.dir, name+".html")
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := chart(fig).Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

func chart(fig Figure) *charts.Line {
	size := int(fig.Font.Size)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fig.Title, Width: "900px", Height: "650px"}),
		charts.WithTitleOpts(opts.Title{
			Title:      fig.Title,
			TitleStyle: &opts.TextStyle{FontFamily: fig.Font.Name, FontSize: size},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: fig.XLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: fig.YLabel, NameLocation: "middle", NameGap: 35}),
	)

	for _, s := range fig.Series {
		switch s.Style {
		case Lines:
			data := make([]opts.LineData, len(s.X))
			for i := range s.X {
				data[i] = opts.LineData{Value: []interface{}{s.X[i], s.Y[i]}}
			}
			line.AddSeries(s.Name, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
		case Points:
			data := make([]opts.ScatterData, len(s.X))
			for i := range s.X {
				data[i] = opts.ScatterData{Value: []interface{}{s.X[i], s.Y[i]}}
			}
			scatter := charts.NewScatter()
			scatter.AddSeries(s.Name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
			line.Overlap(scatter)
		}
	}
	return line
}
