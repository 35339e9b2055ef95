package codec

import (
	"bytes"
	"errors"
	"fmt"
)

// Tag identifies the type of an encoded element.
type Tag byte

const (
	// TagBoolean marks a single-byte boolean element.
	TagBoolean Tag = 0x01
	// TagOctetString marks a raw byte string element. Text values are
	// stored as their UTF-8 bytes.
	TagOctetString Tag = 0x04
	// TagSequence marks an ordered list of nested elements.
	TagSequence Tag = 0x30
)

var (
	// ErrTruncated indicates the input ended before a complete element
	// could be read.
	ErrTruncated = errors.New("codec: truncated element")

	// ErrTrailingData indicates extra bytes followed a complete top-level
	// element.
	ErrTrailingData = errors.New("codec: trailing data after element")
)

// Element is a single node of the tagged encoding: a boolean, an octet
// string, or a sequence of child elements. Elements are immutable once
// built; decoded elements share no state with their input buffer.
type Element struct {
	Tag      Tag
	Value    []byte
	Children []Element
}

// String builds an octet string element from a text value.
func String(s string) Element {
	return Element{Tag: TagOctetString, Value: []byte(s)}
}

// Bytes builds an octet string element from raw bytes. A nil slice is
// encoded as an empty string.
func Bytes(b []byte) Element {
	if b == nil {
		b = []byte{}
	}
	return Element{Tag: TagOctetString, Value: b}
}

// Bool builds a boolean element.
func Bool(v bool) Element {
	if v {
		return Element{Tag: TagBoolean, Value: []byte{0xff}}
	}
	return Element{Tag: TagBoolean, Value: []byte{0x00}}
}

// Sequence builds a sequence element from the given children.
func Sequence(children ...Element) Element {
	if children == nil {
		children = []Element{}
	}
	return Element{Tag: TagSequence, Children: children}
}

// Strings builds a sequence of octet strings, preserving order.
func Strings(values []string) Element {
	children := make([]Element, len(values))
	for i, v := range values {
		children[i] = String(v)
	}
	return Sequence(children...)
}

// AsString interprets the element as a text value.
func (e Element) AsString() (string, error) {
	if e.Tag != TagOctetString {
		return "", fmt.Errorf("codec: element has tag 0x%02x, not octet string", byte(e.Tag))
	}
	return string(e.Value), nil
}

// AsBytes interprets the element as raw bytes.
func (e Element) AsBytes() ([]byte, error) {
	if e.Tag != TagOctetString {
		return nil, fmt.Errorf("codec: element has tag 0x%02x, not octet string", byte(e.Tag))
	}
	return e.Value, nil
}

// AsBool interprets the element as a boolean. Any nonzero content byte is
// true.
func (e Element) AsBool() (bool, error) {
	if e.Tag != TagBoolean {
		return false, fmt.Errorf("codec: element has tag 0x%02x, not boolean", byte(e.Tag))
	}
	if len(e.Value) != 1 {
		return false, fmt.Errorf("codec: boolean element has %d content bytes", len(e.Value))
	}
	return e.Value[0] != 0, nil
}

// AsSequence interprets the element as a sequence and returns its children.
func (e Element) AsSequence() ([]Element, error) {
	if e.Tag != TagSequence {
		return nil, fmt.Errorf("codec: element has tag 0x%02x, not sequence", byte(e.Tag))
	}
	return e.Children, nil
}

// AsStringSlice interprets the element as a sequence of octet strings.
func (e Element) AsStringSlice() ([]string, error) {
	children, err := e.AsSequence()
	if err != nil {
		return nil, err
	}
	values := make([]string, len(children))
	for i, c := range children {
		values[i], err = c.AsString()
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Encode serializes the element with a tag byte, a definite length, and the
// content bytes, nesting recursively for sequences.
func (e Element) Encode() []byte {
	var buf bytes.Buffer
	e.encodeTo(&buf)
	return buf.Bytes()
}

func (e Element) encodeTo(buf *bytes.Buffer) {
	content := e.content()
	buf.WriteByte(byte(e.Tag))
	writeLength(buf, len(content))
	buf.Write(content)
}

func (e Element) content() []byte {
	if e.Tag != TagSequence {
		return e.Value
	}
	var buf bytes.Buffer
	for _, c := range e.Children {
		c.encodeTo(&buf)
	}
	return buf.Bytes()
}

// EncodedLength returns the total number of bytes Encode will produce.
func (e Element) EncodedLength() int {
	n := len(e.content())
	return 1 + lengthSize(n) + n
}

// Decode parses a byte slice holding exactly one element. Trailing bytes
// are an error; use Reader for concatenated streams.
func Decode(data []byte) (Element, error) {
	e, rest, err := decodeOne(data)
	if err != nil {
		return Element{}, err
	}
	if len(rest) != 0 {
		return Element{}, ErrTrailingData
	}
	return e, nil
}

func decodeOne(data []byte) (Element, []byte, error) {
	if len(data) < 2 {
		return Element{}, nil, ErrTruncated
	}
	tag := Tag(data[0])
	length, header, err := readLength(data[1:])
	if err != nil {
		return Element{}, nil, err
	}
	data = data[1+header:]
	if len(data) < length {
		return Element{}, nil, ErrTruncated
	}
	content, rest := data[:length], data[length:]

	switch tag {
	case TagBoolean, TagOctetString:
		value := make([]byte, len(content))
		copy(value, content)
		return Element{Tag: tag, Value: value}, rest, nil
	case TagSequence:
		children := []Element{}
		for len(content) > 0 {
			var child Element
			child, content, err = decodeOne(content)
			if err != nil {
				return Element{}, nil, err
			}
			children = append(children, child)
		}
		return Element{Tag: tag, Children: children}, rest, nil
	default:
		return Element{}, nil, fmt.Errorf("codec: unsupported tag 0x%02x", byte(tag))
	}
}

// writeLength emits a short-form length for values below 128 and a
// long-form length (count byte plus big-endian bytes) otherwise.
func writeLength(buf *bytes.Buffer, n int) {
	if n < 0x80 {
		buf.WriteByte(byte(n))
		return
	}
	var tmp [8]byte
	i := len(tmp)
	for v := n; v > 0; v >>= 8 {
		i--
		tmp[i] = byte(v)
	}
	buf.WriteByte(byte(0x80 | (len(tmp) - i)))
	buf.Write(tmp[i:])
}

func lengthSize(n int) int {
	if n < 0x80 {
		return 1
	}
	size := 1
	for v := n; v > 0; v >>= 8 {
		size++
	}
	return size
}

// readLength returns the decoded length and the number of header bytes
// consumed.
func readLength(data []byte) (length, header int, err error) {
	if len(data) == 0 {
		return 0, 0, ErrTruncated
	}
	first := data[0]
	if first < 0x80 {
		return int(first), 1, nil
	}
	count := int(first & 0x7f)
	if count == 0 || count > 8 {
		return 0, 0, fmt.Errorf("codec: invalid length header 0x%02x", first)
	}
	if len(data) < 1+count {
		return 0, 0, ErrTruncated
	}
	for _, b := range data[1 : 1+count] {
		length = length<<8 | int(b)
	}
	if length < 0 {
		return 0, 0, fmt.Errorf("codec: element length overflows")
	}
	return length, 1 + count, nil
}
