package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"os"

	humanize "github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"github.com/tinylib/msgp/msgp"

	"github.com/ironsheep/gravis-mcp/internal/logging"
	"github.com/ironsheep/gravis-mcp/internal/visgraph"
)

const (
	// CollectionKind tags every collection payload.
	CollectionKind = "visibility-graph-collection"
	// CollectionVersion is the payload layout written by this package.
	CollectionVersion = 1
)

// ErrUnknownFormat means a file is not a graph collection this package can
// read.
var ErrUnknownFormat = errors.New("unknown collection format")

var magic = []byte("GVC")

// Compression is the payload encoding named in the header format byte.
type Compression uint8

const (
	Uncompressed Compression = 0
	Zstd         Compression = 1
)

func (c Compression) String() string {
	switch c {
	case Uncompressed:
		return "no compression"
	case Zstd:
		return "zstd compression"
	default:
		return "unknown compression"
	}
}

const headerSize = 3 + 1 + 4

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// StoredGraph is one visibility graph with what is needed to redraw it.
type StoredGraph struct {
	// Index is the 1-based graph number, running across the files of a
	// batch in shape mode and the cell number in pavement mode.
	Index   int
	Label   string
	Nodes   []image.Point
	Edges   []visgraph.Edge
	Contour []image.Point
}

// NewStoredGraph snapshots g.
func NewStoredGraph(index int, label string, g *visgraph.Graph, contour []image.Point) StoredGraph {
	return StoredGraph{
		Index:   index,
		Label:   label,
		Nodes:   g.Positions(),
		Edges:   g.Edges(),
		Contour: append([]image.Point(nil), contour...),
	}
}

// Graph rebuilds the visibility graph with the stored weights.
func (s StoredGraph) Graph() *visgraph.Graph {
	g := visgraph.New(s.Nodes)
	for _, e := range s.Edges {
		g.AddWeightedEdge(e.A, e.B, e.Weight)
	}
	return g
}

// Collection is a named, ordered set of graphs.
type Collection struct {
	Name   string
	Graphs []StoredGraph
}

// MarshalMsg appends the msgpack form of c to b.
func (c *Collection) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendMapHeader(b, 4)
	o = msgp.AppendString(o, "kind")
	o = msgp.AppendString(o, CollectionKind)
	o = msgp.AppendString(o, "version")
	o = msgp.AppendInt(o, CollectionVersion)
	o = msgp.AppendString(o, "name")
	o = msgp.AppendString(o, c.Name)
	o = msgp.AppendString(o, "graphs")
	o = msgp.AppendArrayHeader(o, uint32(len(c.Graphs)))
	for _, g := range c.Graphs {
		o = g.marshalMsg(o)
	}
	return o, nil
}

func (s StoredGraph) marshalMsg(o []byte) []byte {
	o = msgp.AppendMapHeader(o, 5)
	o = msgp.AppendString(o, "index")
	o = msgp.AppendInt(o, s.Index)
	o = msgp.AppendString(o, "label")
	o = msgp.AppendString(o, s.Label)
	o = msgp.AppendString(o, "nodes")
	o = appendPoints(o, s.Nodes)
	o = msgp.AppendString(o, "edges")
	o = msgp.AppendArrayHeader(o, uint32(len(s.Edges)))
	for _, e := range s.Edges {
		o = msgp.AppendArrayHeader(o, 3)
		o = msgp.AppendInt(o, e.A)
		o = msgp.AppendInt(o, e.B)
		o = msgp.AppendFloat64(o, e.Weight)
	}
	o = msgp.AppendString(o, "contour")
	return appendPoints(o, s.Contour)
}

func appendPoints(o []byte, pts []image.Point) []byte {
	o = msgp.AppendArrayHeader(o, uint32(len(pts)))
	for _, p := range pts {
		o = msgp.AppendArrayHeader(o, 2)
		o = msgp.AppendInt(o, p.X)
		o = msgp.AppendInt(o, p.Y)
	}
	return o
}

// UnmarshalMsg decodes a collection from bts and returns the remaining
// bytes. Unknown keys are skipped; a wrong kind or a newer version is
// ErrUnknownFormat.
func (c *Collection) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return nil, err
	}
	var kind string
	var version int
	for i := uint32(0); i < sz; i++ {
		var key string
		key, bts, err = msgp.ReadStringBytes(bts)
		if err != nil {
			return nil, err
		}
		switch key {
		case "kind":
			kind, bts, err = msgp.ReadStringBytes(bts)
		case "version":
			version, bts, err = msgp.ReadIntBytes(bts)
		case "name":
			c.Name, bts, err = msgp.ReadStringBytes(bts)
		case "graphs":
			var n uint32
			n, bts, err = msgp.ReadArrayHeaderBytes(bts)
			if err != nil {
				return nil, err
			}
			c.Graphs = make([]StoredGraph, n)
			for gi := range c.Graphs {
				if bts, err = c.Graphs[gi].unmarshalMsg(bts); err != nil {
					return nil, fmt.Errorf("graph %d: %w", gi+1, err)
				}
			}
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return nil, err
		}
	}

	if kind != CollectionKind {
		return nil, fmt.Errorf("%w: kind %q", ErrUnknownFormat, kind)
	}
	if version < 1 || version > CollectionVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnknownFormat, version)
	}
	return bts, nil
}

func (s *StoredGraph) unmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < sz; i++ {
		var key string
		key, bts, err = msgp.ReadStringBytes(bts)
		if err != nil {
			return nil, err
		}
		switch key {
		case "index":
			s.Index, bts, err = msgp.ReadIntBytes(bts)
		case "label":
			s.Label, bts, err = msgp.ReadStringBytes(bts)
		case "nodes":
			s.Nodes, bts, err = readPoints(bts)
		case "contour":
			s.Contour, bts, err = readPoints(bts)
		case "edges":
			s.Edges, bts, err = readEdges(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, e := range s.Edges {
		if e.A < 0 || e.B < 0 || e.A >= len(s.Nodes) || e.B >= len(s.Nodes) {
			return nil, fmt.Errorf("%w: edge %d-%d outside %d nodes", ErrUnknownFormat, e.A, e.B, len(s.Nodes))
		}
	}
	return bts, nil
}

func readPoints(bts []byte) ([]image.Point, []byte, error) {
	n, bts, err := msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return nil, nil, err
	}
	pts := make([]image.Point, n)
	for i := range pts {
		var sz uint32
		if sz, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
			return nil, nil, err
		}
		if sz != 2 {
			return nil, nil, msgp.ArrayError{Wanted: 2, Got: sz}
		}
		if pts[i].X, bts, err = msgp.ReadIntBytes(bts); err != nil {
			return nil, nil, err
		}
		if pts[i].Y, bts, err = msgp.ReadIntBytes(bts); err != nil {
			return nil, nil, err
		}
	}
	return pts, bts, nil
}

func readEdges(bts []byte) ([]visgraph.Edge, []byte, error) {
	n, bts, err := msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return nil, nil, err
	}
	edges := make([]visgraph.Edge, n)
	for i := range edges {
		var sz uint32
		if sz, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
			return nil, nil, err
		}
		if sz != 3 {
			return nil, nil, msgp.ArrayError{Wanted: 3, Got: sz}
		}
		if edges[i].A, bts, err = msgp.ReadIntBytes(bts); err != nil {
			return nil, nil, err
		}
		if edges[i].B, bts, err = msgp.ReadIntBytes(bts); err != nil {
			return nil, nil, err
		}
		if edges[i].Weight, bts, err = msgp.ReadFloat64Bytes(bts); err != nil {
			return nil, nil, err
		}
	}
	return edges, bts, nil
}

// Encode serialises c with the given payload compression.
func Encode(c *Collection, compress Compression) ([]byte, error) {
	payload, err := c.MarshalMsg(nil)
	if err != nil {
		return nil, err
	}
	switch compress {
	case Uncompressed:
	case Zstd:
		payload = encoder.EncodeAll(payload, make([]byte, 0, len(payload)/2))
	default:
		return nil, fmt.Errorf("illegal compression %d", compress)
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(payload))
	buf.Write(magic)
	buf.WriteByte(byte(compress))
	if err := binary.Write(&buf, binary.LittleEndian, crc32.ChecksumIEEE(payload)); err != nil {
		return nil, err
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}

// Decode parses the output of Encode.
func Decode(data []byte) (*Collection, error) {
	if len(data) < headerSize || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: missing header", ErrUnknownFormat)
	}
	compress := Compression(data[len(magic)])
	sum := binary.LittleEndian.Uint32(data[len(magic)+1 : headerSize])
	payload := data[headerSize:]
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrUnknownFormat)
	}

	switch compress {
	case Uncompressed:
	case Zstd:
		var err error
		if payload, err = decoder.DecodeAll(payload, nil); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, compress)
	}

	c := &Collection{}
	if _, err := c.UnmarshalMsg(payload); err != nil {
		if errors.Is(err, ErrUnknownFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	return c, nil
}

// WriteCollection stores c at path with zstd compression.
func WriteCollection(path string, c *Collection) error {
	data, err := Encode(c, Zstd)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write collection: %w", err)
	}
	logging.Infof("Wrote %d graphs to %s (%s)", len(c.Graphs), path, humanize.Bytes(uint64(len(data))))
	return nil
}

// ReadCollection loads a collection written by WriteCollection. A missing
// file is ErrPrerequisiteNotFound.
func ReadCollection(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: graph collection %s: %w", ErrPrerequisiteNotFound, path, err)
		}
		return nil, fmt.Errorf("read collection: %w", err)
	}
	c, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Debugf("Read %d graphs from %s (%s)", len(c.Graphs), path, humanize.Bytes(uint64(len(data))))
	return c, nil
}
