package stl

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// ErrWrite marks any failure while serializing a model. Wrapped errors
// carry the underlying cause as text.
var ErrWrite = errors.New("stl: write failed")

// headerSize is the fixed binary STL header length
const headerSize = 80

// WriteFile writes the model as binary STL. The file is written to a
// temporary path in the same directory and renamed into place on
// success, so a failed run never leaves a partial file at filename.
func WriteFile(filename string, m *Model) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrWrite, err)
	}

	w := bufio.NewWriter(tmp)
	err = WriteBinary(w, m)
	if err == nil {
		if flushErr := w.Flush(); flushErr != nil {
			err = fmt.Errorf("%w: flush: %v", ErrWrite, flushErr)
		}
	}
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: close temp file: %v", ErrWrite, closeErr)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: rename into place: %v", ErrWrite, err)
	}
	return nil
}

// WriteBinary writes the model in binary STL format: an 80-byte header,
// a little-endian uint32 triangle count, then one 50-byte record per
// triangle (normal, three vertices, attribute count). Byte order is
// little-endian regardless of host platform, and triangle order follows
// the model, so identical models serialize byte-identically.
func WriteBinary(w io.Writer, m *Model) error {
	if uint64(len(m.Triangles)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d triangles exceed the uint32 count field", ErrWrite, len(m.Triangles))
	}

	if _, err := w.Write(binaryHeader(m.Name)); err != nil {
		return fmt.Errorf("%w: header: %v", ErrWrite, err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return fmt.Errorf("%w: triangle count: %v", ErrWrite, err)
	}

	for i, triangle := range m.Triangles {
		record := [12]float32{
			float32(triangle.Normal.X), float32(triangle.Normal.Y), float32(triangle.Normal.Z),
			float32(triangle.V1.X), float32(triangle.V1.Y), float32(triangle.V1.Z),
			float32(triangle.V2.X), float32(triangle.V2.Y), float32(triangle.V2.Z),
			float32(triangle.V3.X), float32(triangle.V3.Y), float32(triangle.V3.Z),
		}
		if err := binary.Write(w, binary.LittleEndian, record); err != nil {
			return fmt.Errorf("%w: triangle %d: %v", ErrWrite, i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("%w: triangle %d attribute: %v", ErrWrite, i, err)
		}
	}
	return nil
}

// binaryHeader builds the 80-byte header. The name is prefixed with the
// tool name so the header can never start with "solid", which would make
// readers misdetect the file as ASCII.
func binaryHeader(name string) []byte {
	header := make([]byte, headerSize)
	text := "terrastl"
	if name != "" {
		text = "terrastl: " + name
	}
	copy(header, text)
	return header
}

// WriteASCII writes the model in ASCII STL format. Mostly useful for
// debugging; slicers should be fed the binary form.
func WriteASCII(w io.Writer, m *Model) error {
	name := m.Name
	if name == "" {
		name = "terrastl"
	}
	if _, err := fmt.Fprintf(w, "solid %s\n", name); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	for _, t := range m.Triangles {
		_, err := fmt.Fprintf(w,
			"  facet normal %g %g %g\n    outer loop\n      vertex %g %g %g\n      vertex %g %g %g\n      vertex %g %g %g\n    endloop\n  endfacet\n",
			t.Normal.X, t.Normal.Y, t.Normal.Z,
			t.V1.X, t.V1.Y, t.V1.Z,
			t.V2.X, t.V2.Y, t.V2.Z,
			t.V3.X, t.V3.Y, t.V3.Z)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}
	if _, err := fmt.Fprintf(w, "endsolid %s\n", name); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}
