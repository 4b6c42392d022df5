package compare

import (
	"fmt"
	"math"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultPalette is the colour-blind safe group palette. Its last entry is
// also the colour of an unlabelled single collection.
var DefaultPalette = []string{"#0077bb", "#ee3377", "#ee7733", "#009988", "#33bbee", "#cc3311", "#bbbbbb"}

// SingleColor marks every row of a lone, unlabelled collection.
const SingleColor = "#bbbbbb"

// Collection describes one input file of graphs.
type Collection struct {
	// File is the name shown in the annotation table.
	File string
	// Label names the group. Empty labels fall back to File.
	Label string
	// Color overrides the palette entry for the group. Any hex form
	// accepted by go-colorful works.
	Color string
	// Graphs is the number of graphs taken from the file, in file order.
	Graphs int
}

// Annotation ties a distance-matrix row back to its source.
type Annotation struct {
	Row   int    `json:"row"`
	File  string `json:"file"`
	Graph int    `json:"graph"` // 1-based position in the file
	Label string `json:"label"`
	Color string `json:"color"`
}

// Annotate lists one annotation per graph, collections in order. A single
// collection without a label is labelled per graph with the graph number and
// drawn in SingleColor. Otherwise every collection is one group coloured
// from palette, extended with generated colours when it runs out.
func Annotate(cols []Collection, palette []string) ([]Annotation, error) {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	colors, err := GroupColors(len(cols), palette)
	if err != nil {
		return nil, err
	}

	perGraph := len(cols) == 1 && cols[0].Label == ""
	var out []Annotation
	for ci, c := range cols {
		color := colors[ci]
		if c.Color != "" {
			parsed, err := colorful.Hex(c.Color)
			if err != nil {
				return nil, fmt.Errorf("collection %s: color %q: %w", c.File, c.Color, err)
			}
			color = parsed.Hex()
		} else if perGraph {
			color = SingleColor
		}
		label := c.Label
		if label == "" {
			label = c.File
		}

		for g := 1; g <= c.Graphs; g++ {
			a := Annotation{Row: len(out), File: c.File, Graph: g, Label: label, Color: color}
			if perGraph {
				a.Label = strconv.Itoa(g)
			}
			out = append(out, a)
		}
	}
	return out, nil
}

// GroupColors returns n hex colours: the palette entries first, then
// evenly spread hues at fixed chroma and lightness.
func GroupColors(n int, palette []string) ([]string, error) {
	out := make([]string, 0, n)
	for i := 0; i < n && i < len(palette); i++ {
		c, err := colorful.Hex(palette[i])
		if err != nil {
			return nil, fmt.Errorf("palette entry %d %q: %w", i, palette[i], err)
		}
		out = append(out, c.Hex())
	}
	for i := len(out); i < n; i++ {
		hue := math.Mod(float64(i-len(palette))*137.508, 360)
		out = append(out, colorful.Hcl(hue, 0.55, 0.6).Clamped().Hex())
	}
	return out, nil
}

// RowLabels returns the label of every annotation in row order.
func RowLabels(ann []Annotation) []string {
	out := make([]string, len(ann))
	for i, a := range ann {
		out[i] = a.Label
	}
	return out
}
