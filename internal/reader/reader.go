// Package reader provides a forward-only byte reader over source text with
// one-position lookahead and line-start tracking for error annotation.
package reader

// Reader walks a source buffer byte by byte. The source is treated as
// ASCII; identifiers and keywords never contain multibyte runes.
type Reader struct {
	src        []byte
	pos        int // index of the current byte
	lineStarts []int
}

func New(src []byte) *Reader {
	return &Reader{src: src, lineStarts: []int{0}}
}

// Current returns the byte at the read position, or 0 at end of input.
func (r *Reader) Current() byte {
	if r.pos >= len(r.src) {
		return 0
	}
	return r.src[r.pos]
}

// Peek returns the byte after the read position without consuming.
func (r *Reader) Peek() byte {
	if r.pos+1 >= len(r.src) {
		return 0
	}
	return r.src[r.pos+1]
}

// Advance moves the read position forward by one byte.
func (r *Reader) Advance() {
	if r.pos < len(r.src) {
		if r.src[r.pos] == '\n' {
			r.lineStarts = append(r.lineStarts, r.pos+1)
		}
		r.pos++
	}
}

// Offset is the absolute position of the current byte.
func (r *Reader) Offset() int {
	return r.pos
}

// EOF reports whether the reader is exhausted.
func (r *Reader) EOF() bool {
	return r.pos >= len(r.src)
}

// Source returns the underlying buffer.
func (r *Reader) Source() []byte {
	return r.src
}

// Line returns the 1-based line number containing offset.
func (r *Reader) Line(offset int) int {
	line := 1
	for i, start := range r.lineStarts {
		if start > offset {
			break
		}
		line = i + 1
	}
	return line
}

// LineBounds returns the [start, end) byte range of the line containing
// offset. The trailing newline is excluded.
func LineBounds(src []byte, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}
	start := 0
	for i := offset - 1; i >= 0; i-- {
		if src[i] == '\n' {
			start = i + 1
			break
		}
	}
	end := len(src)
	for i := offset; i < len(src); i++ {
		if src[i] == '\n' {
			end = i
			break
		}
	}
	return start, end
}
