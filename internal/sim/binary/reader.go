// Package binary provides low-level positioned reads over simulation data files.
package binary

import (
	"encoding/binary"
	"io"
	"math"
)

// Reader reads binary values at an explicit position within an io.ReaderAt.
// A short read is always surfaced as io.ErrUnexpectedEOF so callers can
// distinguish a truncated file from other I/O failures.
type Reader struct {
	r     io.ReaderAt
	order binary.ByteOrder
	pos   int64
}

// NewReader creates a reader with the given byte order, positioned at offset 0.
// Idefix dumps and XDMF payloads are little-endian; legacy VTK is big-endian.
func NewReader(r io.ReaderAt, order binary.ByteOrder) *Reader {
	return &Reader{r: r, order: order}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{r: r.r, order: r.order, pos: offset}
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) {
	r.pos += n
}

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	read, err := r.r.ReadAt(buf, r.pos)
	if read < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// Peek reads n bytes without advancing the position.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	read, err := r.r.ReadAt(buf, r.pos)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return int32(r.order.Uint32(buf)), nil
}

// ReadInt32s reads n consecutive signed 32-bit integers.
func (r *Reader) ReadInt32s(n int) ([]int32, error) {
	buf, err := r.ReadBytes(4 * n)
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(r.order.Uint32(buf[4*i:]))
	}
	return out, nil
}

// ReadFloat64 reads one IEEE 754 double.
func (r *Reader) ReadFloat64() (float64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(r.order.Uint64(buf)), nil
}

// ReadString reads n bytes and returns them as a string with trailing
// NUL padding and whitespace removed.
func (r *Reader) ReadString(n int) (string, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	end := len(buf)
	for end > 0 {
		c := buf[end-1]
		if c != 0 && c != ' ' && c != '\n' && c != '\r' && c != '\t' {
			break
		}
		end--
	}
	return string(buf[:end]), nil
}

// ReadLine reads bytes up to and including the next '\n' and returns the
// line without its terminator (a trailing '\r' is also stripped). The last
// line of a file may be unterminated.
func (r *Reader) ReadLine() (string, error) {
	var line []byte
	for {
		chunk, err := r.Peek(256)
		if err != nil {
			return "", err
		}
		if len(chunk) == 0 {
			if len(line) == 0 {
				return "", io.EOF
			}
			break
		}
		done := false
		n := len(chunk)
		for i, c := range chunk {
			if c == '\n' {
				line = append(line, chunk[:i]...)
				n = i + 1
				done = true
				break
			}
		}
		if !done {
			line = append(line, chunk...)
		}
		r.pos += int64(n)
		if done || len(chunk) < 256 {
			break
		}
	}
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return string(line), nil
}

// ReadFloat64Array reads n doubles.
func (r *Reader) ReadFloat64Array(n int) ([]float64, error) {
	buf, err := r.ReadBytes(8 * n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(r.order.Uint64(buf[8*i:]))
	}
	return out, nil
}

// ReadFloat32Array reads n single-precision floats, widened to float64.
func (r *Reader) ReadFloat32Array(n int) ([]float64, error) {
	buf, err := r.ReadBytes(4 * n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(math.Float32frombits(r.order.Uint32(buf[4*i:])))
	}
	return out, nil
}

// ReadInt32Array reads n signed 32-bit integers, widened to float64.
func (r *Reader) ReadInt32Array(n int) ([]float64, error) {
	vals, err := r.ReadInt32s(n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out, nil
}

// ReadArray reads n elements of elemSize bytes (4-byte float, 8-byte float,
// or 4-byte integer when isInt is set), widened to float64.
func (r *Reader) ReadArray(n, elemSize int, isInt bool) ([]float64, error) {
	switch {
	case isInt:
		return r.ReadInt32Array(n)
	case elemSize == 4:
		return r.ReadFloat32Array(n)
	default:
		return r.ReadFloat64Array(n)
	}
}
