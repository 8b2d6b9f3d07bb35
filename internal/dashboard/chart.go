package dashboard

import (
	"fmt"
	"math"
)

// Palette colors slices and legend entries by category position.
var Palette = []string{
	"#4F46E5", // indigo
	"#16A34A", // green
	"#DC2626", // red
	"#F59E0B", // amber
	"#0EA5E9", // sky
	"#9333EA", // purple
}

// Pie geometry in SVG user units.
const (
	PieWidth  = 420
	PieHeight = 320
	pieRadius = 110.0
	labelGap  = 18.0
)

// PieSlice is one drawn wedge.
type PieSlice struct {
	Label  string
	Value  float64
	Color  string
	Path   string
	Full   bool
	Text   string
	TextX  float64
	TextY  float64
	Anchor string
}

// LegendEntry is one legend line; zero-valued categories are listed too.
type LegendEntry struct {
	Label string
	Value string
	Color string
}

// PieChart is a render-ready pie with legend.
type PieChart struct {
	Title   string
	Width   int
	Height  int
	CX, CY  float64
	Radius  float64
	Slices  []PieSlice
	Legend  []LegendEntry
	Total   float64
	IsEmpty bool
}

// NewPieChart lays out d as a pie. Only non-zero categories get a wedge; a
// single non-zero category is drawn as a full circle.
func NewPieChart(title string, d Distribution) PieChart {
	c := PieChart{
		Title:  title,
		Width:  PieWidth,
		Height: PieHeight,
		CX:     PieWidth / 2,
		CY:     PieHeight / 2,
		Radius: pieRadius,
	}

	for i, s := range d {
		c.Legend = append(c.Legend, LegendEntry{
			Label: s.Label,
			Value: FormatCount(s.Value),
			Color: Palette[i%len(Palette)],
		})
		if s.Value > 0 {
			c.Total += s.Value
		}
	}
	if c.Total <= 0 {
		c.IsEmpty = true
		return c
	}

	var nonZero int
	for _, s := range d {
		if s.Value > 0 {
			nonZero++
		}
	}

	angle := -math.Pi / 2
	for i, s := range d {
		if s.Value <= 0 {
			continue
		}
		sweep := s.Value / c.Total * 2 * math.Pi
		slice := PieSlice{
			Label: s.Label,
			Value: s.Value,
			Color: Palette[i%len(Palette)],
			Text:  fmt.Sprintf("%s: %s", s.Label, FormatCount(s.Value)),
			Full:  nonZero == 1,
		}
		if !slice.Full {
			slice.Path = c.wedge(angle, angle+sweep)
		}

		mid := angle + sweep/2
		slice.TextX = round2(c.CX + (c.Radius+labelGap)*math.Cos(mid))
		slice.TextY = round2(c.CY + (c.Radius+labelGap)*math.Sin(mid))
		slice.Anchor = "start"
		if slice.TextX < c.CX {
			slice.Anchor = "end"
		}

		c.Slices = append(c.Slices, slice)
		angle += sweep
	}
	return c
}

// wedge returns the SVG path of the sector between two angles.
func (c PieChart) wedge(from, to float64) string {
	x0 := c.CX + c.Radius*math.Cos(from)
	y0 := c.CY + c.Radius*math.Sin(from)
	x1 := c.CX + c.Radius*math.Cos(to)
	y1 := c.CY + c.Radius*math.Sin(to)
	large := 0
	if to-from > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M %.2f %.2f L %.2f %.2f A %.2f %.2f 0 %d 1 %.2f %.2f Z",
		c.CX, c.CY, x0, y0, c.Radius, c.Radius, large, x1, y1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
