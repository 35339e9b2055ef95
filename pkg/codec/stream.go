package codec

import (
	"bufio"
	"fmt"
	"io"
)

// maxStreamElement bounds a single element read from a stream. Uploaded
// file payloads are the largest records that travel through the export
// stream.
const maxStreamElement = 1 << 30

// Writer emits elements to an underlying stream one after another, so a
// Reader on the other side can consume them incrementally.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps the given stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteElement appends one encoded element to the stream.
func (w *Writer) WriteElement(e Element) error {
	if _, err := w.w.Write(e.Encode()); err != nil {
		return fmt.Errorf("codec: writing element: %w", err)
	}
	return nil
}

// Flush pushes buffered bytes to the underlying stream.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader consumes a stream of concatenated elements without loading the
// whole stream into memory.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps the given stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadElement reads the next element from the stream. It returns io.EOF
// when the stream is cleanly exhausted and io.ErrUnexpectedEOF when it
// ends mid-element.
func (r *Reader) ReadElement() (Element, error) {
	tagByte, err := r.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return Element{}, io.EOF
		}
		return Element{}, fmt.Errorf("codec: reading element tag: %w", err)
	}

	length, err := r.readLength()
	if err != nil {
		return Element{}, err
	}
	if length > maxStreamElement {
		return Element{}, fmt.Errorf("codec: element of %d bytes exceeds stream limit", length)
	}

	content := make([]byte, length)
	if _, err := io.ReadFull(r.r, content); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Element{}, fmt.Errorf("codec: reading element content: %w", err)
	}

	// Re-frame and decode so nested sequences are validated the same way
	// as in-memory elements.
	framed := Element{Tag: Tag(tagByte), Value: content}
	if Tag(tagByte) == TagSequence {
		return Decode(append(header(Tag(tagByte), length), content...))
	}
	return framed, nil
}

func (r *Reader) readLength() (int, error) {
	first, err := r.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, fmt.Errorf("codec: reading element length: %w", err)
	}
	if first < 0x80 {
		return int(first), nil
	}
	count := int(first & 0x7f)
	if count == 0 || count > 8 {
		return 0, fmt.Errorf("codec: invalid length header 0x%02x", first)
	}
	length := 0
	for i := 0; i < count; i++ {
		b, err := r.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, fmt.Errorf("codec: reading element length: %w", err)
		}
		length = length<<8 | int(b)
	}
	if length < 0 {
		return 0, fmt.Errorf("codec: element length overflows")
	}
	return length, nil
}

func header(tag Tag, length int) []byte {
	buf := make([]byte, 0, 1+lengthSize(length))
	buf = append(buf, byte(tag))
	if length < 0x80 {
		return append(buf, byte(length))
	}
	var tmp [8]byte
	i := len(tmp)
	for v := length; v > 0; v >>= 8 {
		i--
		tmp[i] = byte(v)
	}
	buf = append(buf, byte(0x80|(len(tmp)-i)))
	return append(buf, tmp[i:]...)
}
