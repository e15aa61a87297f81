package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// PLYHeader is the parsed header of a PLY file
type PLYHeader struct {
	Format   string // "ascii", "binary_little_endian" or "binary_big_endian"
	Version  string
	Elements []PLYElement
}

// PLYElement is one "element" block of the header
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// PLYProperty is a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// element returns the named element, or nil
func (h *PLYHeader) element(name string) *PLYElement {
	for i := range h.Elements {
		if h.Elements[i].Name == name {
			return &h.Elements[i]
		}
	}
	return nil
}

// propertyIndex returns the index of the first property with one of the names, or -1
func (e *PLYElement) propertyIndex(names ...string) int {
	for i, prop := range e.Properties {
		for _, name := range names {
			if prop.Name == name {
				return i
			}
		}
	}
	return -1
}

// LoadPLY loads an ascii or binary PLY file into a mesh. Polygon faces are
// fan-triangulated and normals are generated when the file has none.
func LoadPLY(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	mesh, err := ParsePLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return mesh, nil
}

// ParsePLY reads PLY data from r
func ParsePLY(r io.Reader) (*Mesh, error) {
	reader := bufio.NewReaderSize(r, 1<<20)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "ascii":
		values = &asciiValueReader{reader: reader}
	case "binary_little_endian":
		values = &binaryValueReader{reader: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValueReader{reader: reader, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	mesh, err := readPLYBody(header, values)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	return mesh, nil
}

// parsePLYHeader consumes the header up to and including "end_header"
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	first := true

	for {
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, fmt.Errorf("missing end_header")
			}
			return nil, err
		}
		line = strings.TrimSpace(line)

		if first {
			if line != "ply" {
				return nil, fmt.Errorf("not a PLY file (magic %q)", line)
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", line)
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property before any element: %q", line)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			current := &header.Elements[len(header.Elements)-1]
			current.Properties = append(current.Properties, prop)
		default:
			return nil, fmt.Errorf("unknown header keyword %q", parts[0])
		}
	}

	if header.Format == "" {
		return nil, fmt.Errorf("missing format line")
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		for _, t := range parts[1:3] {
			if plyTypeSize(t) == 0 {
				return PLYProperty{}, fmt.Errorf("unsupported data type: %s", t)
			}
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}

	if plyTypeSize(parts[0]) == 0 {
		return PLYProperty{}, fmt.Errorf("unsupported data type: %s", parts[0])
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

// readPLYBody walks every element in header order, keeping vertices and
// faces and skipping anything else.
func readPLYBody(header *PLYHeader, values plyValueReader) (*Mesh, error) {
	vertexElem := header.element("vertex")
	if vertexElem == nil {
		return nil, fmt.Errorf("no vertex element")
	}

	px, py, pz := vertexElem.propertyIndex("x"), vertexElem.propertyIndex("y"), vertexElem.propertyIndex("z")
	if px < 0 || py < 0 || pz < 0 {
		return nil, fmt.Errorf("vertex element lacks x/y/z")
	}
	nx, ny, nz := vertexElem.propertyIndex("nx"), vertexElem.propertyIndex("ny"), vertexElem.propertyIndex("nz")
	hasNormals := nx >= 0 && ny >= 0 && nz >= 0
	tu, tv := vertexElem.propertyIndex("u", "s", "texture_u"), vertexElem.propertyIndex("v", "t", "texture_v")
	hasTexCoords := tu >= 0 && tv >= 0

	mesh := &Mesh{Name: "ply"}
	row := make([]float64, 0, 16)

	for _, elem := range header.Elements {
		switch elem.Name {
		case "vertex":
			mesh.Positions = make([]mgl32.Vec3, 0, elem.Count)
			for i := 0; i < elem.Count; i++ {
				row = row[:0]
				for _, prop := range elem.Properties {
					if prop.IsList {
						if err := skipPLYList(values, prop); err != nil {
							return nil, fmt.Errorf("vertex %d: %w", i, err)
						}
						row = append(row, 0)
						continue
					}
					v, err := values.scalar(prop.Type)
					if err != nil {
						return nil, fmt.Errorf("vertex %d, property %s: %w", i, prop.Name, err)
					}
					row = append(row, v)
				}

				mesh.Positions = append(mesh.Positions, vec3(row[px], row[py], row[pz]))
				if hasNormals {
					mesh.Normals = append(mesh.Normals, vec3(row[nx], row[ny], row[nz]))
				}
				if hasTexCoords {
					mesh.TexCoords = append(mesh.TexCoords, mgl32.Vec2{float32(row[tu]), float32(row[tv])})
				}
			}

		case "face":
			indicesProp := elem.propertyIndex("vertex_indices", "vertex_index")
			if indicesProp < 0 || !elem.Properties[indicesProp].IsList {
				return nil, fmt.Errorf("face element lacks a vertex_indices list")
			}
			mesh.Indices = make([]int, 0, elem.Count*3)
			for i := 0; i < elem.Count; i++ {
				for j, prop := range elem.Properties {
					if j != indicesProp {
						if err := skipPLYProperty(values, prop); err != nil {
							return nil, fmt.Errorf("face %d, property %s: %w", i, prop.Name, err)
						}
						continue
					}
					polygon, err := readPLYList(values, prop)
					if err != nil {
						return nil, fmt.Errorf("face %d: %w", i, err)
					}
					if len(polygon) < 3 {
						return nil, fmt.Errorf("face %d has %d vertices", i, len(polygon))
					}
					for k := 1; k+1 < len(polygon); k++ {
						mesh.Indices = append(mesh.Indices, polygon[0], polygon[k], polygon[k+1])
					}
				}
			}

		default:
			for i := 0; i < elem.Count; i++ {
				for _, prop := range elem.Properties {
					if err := skipPLYProperty(values, prop); err != nil {
						return nil, fmt.Errorf("%s %d: %w", elem.Name, i, err)
					}
				}
			}
		}
	}

	if err := mesh.validate(); err != nil {
		return nil, err
	}
	if !hasNormals {
		mesh.GenerateNormals()
	}
	return mesh, nil
}

func vec3(x, y, z float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

func readPLYList(values plyValueReader, prop PLYProperty) ([]int, error) {
	count, err := values.scalar(prop.ListType)
	if err != nil {
		return nil, fmt.Errorf("failed to read list count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("negative list count %v", count)
	}
	out := make([]int, int(count))
	for i := range out {
		v, err := values.scalar(prop.DataType)
		if err != nil {
			return nil, fmt.Errorf("failed to read list item %d: %w", i, err)
		}
		out[i] = int(v)
	}
	return out, nil
}

func skipPLYList(values plyValueReader, prop PLYProperty) error {
	_, err := readPLYList(values, prop)
	return err
}

func skipPLYProperty(values plyValueReader, prop PLYProperty) error {
	if prop.IsList {
		return skipPLYList(values, prop)
	}
	_, err := values.scalar(prop.Type)
	return err
}

// plyTypeSize returns the size in bytes of a PLY scalar type, or 0 if unknown
func plyTypeSize(dataType string) int {
	switch dataType {
	case "double", "float64":
		return 8
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

// plyValueReader yields successive scalar values of the body
type plyValueReader interface {
	scalar(dataType string) (float64, error)
}

type binaryValueReader struct {
	reader *bufio.Reader
	order  binary.ByteOrder
	buf    [8]byte
}

func (b *binaryValueReader) scalar(dataType string) (float64, error) {
	size := plyTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	data := b.buf[:size]
	if _, err := io.ReadFull(b.reader, data); err != nil {
		return 0, err
	}

	switch dataType {
	case "double", "float64":
		return math.Float64frombits(b.order.Uint64(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "char", "int8":
		return float64(int8(data[0])), nil
	default: // uchar, uint8
		return float64(data[0]), nil
	}
}

// asciiValueReader reads whitespace separated tokens regardless of line breaks
type asciiValueReader struct {
	reader *bufio.Reader
	token  []byte
}

func (a *asciiValueReader) scalar(dataType string) (float64, error) {
	a.token = a.token[:0]
	for {
		c, err := a.reader.ReadByte()
		if err != nil {
			if err == io.EOF && len(a.token) > 0 {
				break
			}
			if err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if len(a.token) > 0 {
				break
			}
			continue
		}
		a.token = append(a.token, c)
	}

	v, err := strconv.ParseFloat(string(a.token), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", dataType, a.token)
	}
	return v, nil
}
