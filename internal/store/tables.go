package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/gravis-mcp/internal/compare"
	"github.com/ironsheep/gravis-mcp/internal/features"
)

// Table is a header plus rows of formatted cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// WriteCSV writes the table with a header line.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if t.Header != nil {
		if err := cw.Write(t.Header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteTable stores t as CSV at path.
func WriteTable(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logSize(path)
	return nil
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// CellTable is the per-cell results table of pavement mode.
func CellTable(recs []features.Record) Table {
	t := Table{Header: []string{
		"Cell", "Lobes", "Necks", "Junctions", "JunctionLobes",
		"Complexity", "Circularity", "Area", "Perimeter", "Nodes", "Edges", "Note",
	}}
	for _, r := range recs {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.Label), strconv.Itoa(r.Lobes), strconv.Itoa(r.Necks),
			strconv.Itoa(r.Junctions), strconv.Itoa(r.JunctionLobes),
			ftoa(r.Complexity), ftoa(r.Circularity),
			strconv.Itoa(r.Area), strconv.Itoa(r.Perimeter),
			strconv.Itoa(r.Nodes), strconv.Itoa(r.Edges), r.Note,
		})
	}
	return t
}

// LobeTable lists one row per neck pair.
func LobeTable(ms []features.LobeMeasurement) Table {
	t := Table{Header: []string{"Cell", "Neck1", "Neck2", "Lobe", "NeckWidth", "LobeLength", "Status"}}
	for _, m := range ms {
		lobe := ""
		if m.Lobe >= 0 {
			lobe = strconv.Itoa(m.Lobe)
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(m.Label), strconv.Itoa(m.Neck1), strconv.Itoa(m.Neck2), lobe,
			ftoa(m.NeckWidth), ftoa(m.LobeLength), m.Status,
		})
	}
	return t
}

// ShapeRow is one graph of generic-shape mode.
type ShapeRow struct {
	File  string `json:"file"`
	Graph int    `json:"graph"`
	features.Record
}

// ShapeTable is the results table of generic-shape mode.
func ShapeTable(rows []ShapeRow) Table {
	t := Table{Header: []string{
		"File", "Graph", "Nodes", "Edges", "Complexity", "Area", "Perimeter", "Circularity", "Note",
	}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.File, strconv.Itoa(r.Graph), strconv.Itoa(r.Nodes), strconv.Itoa(r.Edges),
			ftoa(r.Complexity), strconv.Itoa(r.Area), strconv.Itoa(r.Perimeter),
			ftoa(r.Circularity), r.Note,
		})
	}
	return t
}

// AnnotationTable maps distance-matrix rows to their source.
func AnnotationTable(ann []compare.Annotation) Table {
	t := Table{Header: []string{"Row", "File", "Graph", "Label", "Color"}}
	for _, a := range ann {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(a.Row), a.File, strconv.Itoa(a.Graph), a.Label, a.Color,
		})
	}
	return t
}

// MatrixTable renders a dense matrix, one CSV row per matrix row, without a
// header.
func MatrixTable(d mat.Matrix) Table {
	r, c := d.Dims()
	t := Table{Rows: make([][]string, r)}
	for i := range t.Rows {
		row := make([]string, c)
		for j := range row {
			row[j] = ftoa(d.At(i, j))
		}
		t.Rows[i] = row
	}
	return t
}

// ReadMatrix loads a square matrix written from MatrixTable.
func ReadMatrix(path string) (*mat.SymDense, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: distance matrix %s: %w", ErrPrerequisiteNotFound, path, err)
		}
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%s: empty matrix", path)
	}
	d := mat.NewSymDense(n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%s: row %d has %d columns, want %d", path, i+1, len(row), n)
		}
		for j := i; j < n; j++ {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", path, i+1, err)
			}
			d.SetSym(i, j, v)
		}
	}
	return d, nil
}
