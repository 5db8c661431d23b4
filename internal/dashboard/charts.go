// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import (
	"math"

	"github.com/pdiddy/pubdash/internal/table"
	"github.com/pdiddy/pubdash/pkg/types"
)

// Figure is a Plotly figure (data plus layout). The browser renders it with
// Plotly.newPlot; the Go side only shapes the data.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly trace.
type Trace struct {
	Type        string   `json:"type"`
	Mode        string   `json:"mode,omitempty"`
	Orientation string   `json:"orientation,omitempty"`
	X           any      `json:"x"`
	Y           any      `json:"y"`
	Text        []string `json:"text,omitempty"`
	HoverInfo   string   `json:"hoverinfo,omitempty"`
	Marker      *Marker  `json:"marker,omitempty"`
}

// Marker styles trace points or bars.
type Marker struct {
	Size       []float64 `json:"size,omitempty"`
	Color      any       `json:"color,omitempty"`
	ColorScale string    `json:"colorscale,omitempty"`
	ShowScale  bool      `json:"showscale,omitempty"`
}

// Layout is the subset of Plotly layout options the dashboard sets.
type Layout struct {
	Title  string `json:"title"`
	XAxis  Axis   `json:"xaxis"`
	YAxis  Axis   `json:"yaxis"`
	Height int    `json:"height,omitempty"`
}

// Axis configures a Plotly axis.
type Axis struct {
	Title     string `json:"title,omitempty"`
	Type      string `json:"type,omitempty"`
	AutoRange string `json:"autorange,omitempty"`
	DTick     int    `json:"dtick,omitempty"`
}

// Chart is a named figure placed on the page.
type Chart struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Figure Figure `json:"figure"`
}

const chartHeight = 420

func trendChart(counts []table.YearCount) Chart {
	xs := make([]int, len(counts))
	ys := make([]int, len(counts))
	for i, c := range counts {
		xs[i], ys[i] = c.Year, c.Count
	}
	return Chart{
		ID:    "trends",
		Title: "Publication Trends",
		Figure: Figure{
			Data: []Trace{{Type: "scatter", Mode: "lines+markers", X: xs, Y: ys}},
			Layout: Layout{
				Title:  "Publication Trends",
				XAxis:  Axis{Title: "Year", DTick: 1},
				YAxis:  Axis{Title: "Count"},
				Height: chartHeight,
			},
		},
	}
}

// frequencyChart draws a bar chart of freqs. Horizontal bars list the most
// frequent value at the top.
func frequencyChart(id, title, label string, freqs []types.Frequency, horizontal bool) Chart {
	values := make([]string, len(freqs))
	counts := make([]int, len(freqs))
	for i, f := range freqs {
		values[i], counts[i] = f.Value, f.Count
	}

	tr := Trace{Type: "bar", X: values, Y: counts}
	layout := Layout{
		Title:  title,
		XAxis:  Axis{Title: label, Type: "category"},
		YAxis:  Axis{Title: "Count"},
		Height: chartHeight,
	}
	if horizontal {
		tr.Orientation = "h"
		tr.X, tr.Y = counts, values
		layout.XAxis = Axis{Title: "Count"}
		layout.YAxis = Axis{Title: label, Type: "category", AutoRange: "reversed"}
	}
	return Chart{ID: id, Title: title, Figure: Figure{Data: []Trace{tr}, Layout: layout}}
}

// citationChart plots citations against year; marker size and color both
// encode the citation count.
func citationChart(points []table.CitationPoint) Chart {
	xs := make([]int, len(points))
	ys := make([]int, len(points))
	titles := make([]string, len(points))
	maxCites := 0
	for i, p := range points {
		xs[i], ys[i], titles[i] = p.Year, p.Citations, p.Title
		maxCites = max(maxCites, p.Citations)
	}
	return Chart{
		ID:    "citations",
		Title: "Citation Impact",
		Figure: Figure{
			Data: []Trace{{
				Type: "scatter",
				Mode: "markers",
				X:    xs,
				Y:    ys,
				Text: titles,
				Marker: &Marker{
					Size:       markerSizes(ys, maxCites),
					Color:      ys,
					ColorScale: "Viridis",
					ShowScale:  true,
				},
			}},
			Layout: Layout{
				Title:  "Citation Impact",
				XAxis:  Axis{Title: "Year", DTick: 1},
				YAxis:  Axis{Title: "Citations"},
				Height: chartHeight,
			},
		},
	}
}

const (
	minMarker = 6.0
	maxMarker = 30.0
)

// markerSizes maps citation counts onto marker diameters by square root so
// marker area grows linearly with citations.
func markerSizes(citations []int, maxCites int) []float64 {
	sizes := make([]float64, len(citations))
	for i, c := range citations {
		if maxCites == 0 {
			sizes[i] = minMarker
			continue
		}
		sizes[i] = minMarker + (maxMarker-minMarker)*math.Sqrt(float64(c)/float64(maxCites))
	}
	return sizes
}
