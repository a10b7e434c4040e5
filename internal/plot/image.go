package plot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Image writes figures as png, svg or pdf files with gonum/plot.
type Image struct {
	dir string
	ext string
}

func (r *Image) Render(fig Figure, name string) error {
	fig, err := prepare(fig)
	if err != nil {
		return err
	}

	p := gplot.New()
	p.Title.Text = fig.Title
	p.Title.TextStyle.Font = typeface(fig.Font, 1.2)
	p.X.Label.Text = fig.XLabel
	p.X.Label.TextStyle.Font = typeface(fig.Font, 1)
	p.Y.Label.Text = fig.YLabel
	p.Y.Label.TextStyle.Font = typeface(fig.Font, 1)
	p.X.Tick.Label.Font = typeface(fig.Font, 0.8)
	p.Y.Tick.Label.Font = typeface(fig.Font, 0.8)
	p.Legend.TextStyle.Font = typeface(fig.Font, 0.8)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, s := range fig.Series {
		if len(s.X) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.X))
		for j := range s.X {
			pts[j].X, pts[j].Y = s.X[j], s.Y[j]
		}

		switch s.Style {
		case Lines:
			l, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("series %q: %w", s.Name, err)
			}
			l.Color = plotutil.Color(i)
			l.Width = vg.Points(1)
			p.Add(l)
			if s.Name != "" {
				p.Legend.Add(s.Name, l)
			}
		case Points:
			sc, err := plotter.NewScatter(pts)
			if err != nil {
				return fmt.Errorf("series %q: %w", s.Name, err)
			}
			sc.GlyphStyle.Color = plotutil.Color(i)
			sc.GlyphStyle.Shape = draw.CircleGlyph{}
			sc.GlyphStyle.Radius = vg.Points(1.5)
			p.Add(sc)
			if s.Name != "" {
				p.Legend.Add(s.Name, sc)
			}
		}
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(r.dir, name+"."+r.ext)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// typeface maps a font family name onto the Liberation faces bundled with
// gonum/plot, scaled by rel.
func typeface(f Font, rel float64) font.Font {
	variant := "Sans"
	name := strings.ToLower(f.Name)
	switch {
	case strings.Contains(name, "mono"), strings.Contains(name, "courier"):
		variant = "Mono"
	case strings.Contains(name, "sans"), strings.Contains(name, "helvetica"), strings.Contains(name, "arial"):
		variant = "Sans"
	case strings.Contains(name, "serif"), strings.Contains(name, "times"):
		variant = "Serif"
	}
	return font.Font{Typeface: "Liberation", Variant: font.Variant(variant), Size: vg.Points(f.Size * rel)}
}
