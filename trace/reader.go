// Package trace reads and writes logical memory reference streams.
//
// A trace is plain text: whitespace-separated unsigned decimal addresses,
// each optionally followed by an R or W marker. A '#' starts a comment
// that runs to the end of the line. Line breaks carry no meaning beyond
// separating tokens, so a whole trace may sit on one line. Files ending in .lz4 or .sz/.snappy
// are transparently decompressed.
package trace

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sibexico/pagesim/vmem"
)

// Reference is one logical memory access
type Reference struct {
	Address uint64
	Write   bool
}

// maxTokenSize bounds a single address or marker; lines and comments are unbounded
const maxTokenSize = 64 * 1024

// Reader decodes references from a trace stream
type Reader struct {
	scanner   *bufio.Scanner
	closers   []func() error
	line      int  // line of the scanner's current position
	inComment bool // inside a '#' comment not yet closed by a newline

	peeked    bool
	peekToken string
	peekLine  int
}

// NewReader decodes plain-text references from r
func NewReader(r io.Reader) *Reader {
	rd := &Reader{line: 1}
	rd.scanner = bufio.NewScanner(r)
	rd.scanner.Buffer(make([]byte, 0, 64*1024), maxTokenSize)
	rd.scanner.Split(rd.splitTokens)
	return rd
}

// splitTokens is a bufio.SplitFunc yielding whitespace-separated tokens.
// Comments are consumed as they stream in, so neither a comment nor a line
// has a length limit.
func (r *Reader) splitTokens(data []byte, atEOF bool) (int, []byte, error) {
	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == '\n':
			r.line++
			r.inComment = false
			i++
		case r.inComment:
			j := bytes.IndexByte(data[i:], '\n')
			if j < 0 {
				return len(data), nil, nil
			}
			i += j
		case c == '#':
			r.inComment = true
			i++
		case isSpace(c):
			i++
		default:
			j := i
			for j < len(data) && !isSpace(data[j]) && data[j] != '#' && data[j] != '\n' {
				j++
			}
			if j == len(data) && !atEOF {
				// Token may continue in the next read
				return i, nil, nil
			}
			return j, data[i:j], nil
		}
	}
	return i, nil, nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\v', '\f':
		return true
	}
	return false
}

// Open opens a trace file, choosing the decoder from its extension.
// Plain files are memory-mapped where the platform allows it.
func Open(path string) (*Reader, error) {
	compressionType := CompressionForPath(path)
	if compressionType == CompressionNone {
		data, release, err := mapFile(path)
		if err != nil {
			return nil, err
		}
		r := NewReader(bytes.NewReader(data))
		r.closers = append(r.closers, release)
		return r, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open trace %s", path)
	}
	dec, err := NewDecompressor(file, compressionType)
	if err != nil {
		file.Close()
		return nil, err
	}
	r := NewReader(dec)
	r.closers = append(r.closers, file.Close)
	return r, nil
}

// token returns the next raw token with its line, or io.EOF
func (r *Reader) token() (string, int, error) {
	if r.peeked {
		r.peeked = false
		return r.peekToken, r.peekLine, nil
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", r.line, errors.Wrapf(err, "trace line %d", r.line)
		}
		return "", r.line, io.EOF
	}
	return r.scanner.Text(), r.line, nil
}

// Next returns the next reference, or io.EOF at the end of the stream.
// An address may be followed by an R or W marker.
func (r *Reader) Next() (Reference, error) {
	tok, line, err := r.token()
	if err != nil {
		return Reference{}, err
	}

	addr, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return Reference{}, vmem.ErrTraceFormat("trace.Next", line, tok)
	}
	ref := Reference{Address: addr}

	next, nextLine, err := r.token()
	switch {
	case err == io.EOF:
		return ref, nil
	case err != nil:
		return Reference{}, err
	}
	switch strings.ToUpper(next) {
	case "W":
		ref.Write = true
	case "R":
	default:
		r.peeked, r.peekToken, r.peekLine = true, next, nextLine
	}
	return ref, nil
}

// Close releases the underlying file or mapping
func (r *Reader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// ReadAll drains r
func ReadAll(r *Reader) ([]Reference, error) {
	var refs []Reference
	for {
		ref, err := r.Next()
		if err == io.EOF {
			return refs, nil
		}
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
}

// Load reads every reference in the trace file at path
func Load(path string) ([]Reference, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	refs, err := ReadAll(r)
	if cerr := r.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load trace %s", path)
	}
	return refs, nil
}

// Write stores refs at path, compressed according to the extension.
// Reads are written as bare addresses so that plain traces stay readable
// by tools expecting one integer per line.
func Write(path string, refs []Reference) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create trace %s", path)
	}

	enc, err := NewCompressor(file, CompressionForPath(path))
	if err != nil {
		file.Close()
		return err
	}

	if err := writeRefs(enc, refs); err != nil {
		enc.Close()
		file.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return errors.Wrap(err, "failed to finish trace encoding")
	}
	return errors.Wrap(file.Close(), "failed to close trace")
}

func writeRefs(w io.Writer, refs []Reference) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 24)
	for _, ref := range refs {
		buf = strconv.AppendUint(buf[:0], ref.Address, 10)
		if ref.Write {
			buf = append(buf, " W"...)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Wrap(err, "failed to write trace")
		}
	}
	return errors.Wrap(bw.Flush(), "failed to flush trace")
}
