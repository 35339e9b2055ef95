package types

import "github.com/cuemby/loadstore/pkg/codec"

// Element names for encoded uploaded files.
const (
	fileElementName        = "name"
	fileElementSize        = "size"
	fileElementType        = "type"
	fileElementDescription = "description"
	fileElementData        = "data"
)

// UploadedFile is an arbitrary document attached to a job folder. Size is
// recorded alongside the data so listings can skip the payload.
type UploadedFile struct {
	Name        string
	Size        int
	ContentType string
	Description string
	Data        []byte
}

// NewUploadedFile creates a file with the size derived from the payload.
func NewUploadedFile(name, contentType, description string, data []byte) *UploadedFile {
	return &UploadedFile{
		Name:        name,
		Size:        len(data),
		ContentType: contentType,
		Description: description,
		Data:        data,
	}
}

// Encode serializes the file as a tagged record.
func (f *UploadedFile) Encode() []byte {
	return codec.Sequence(
		codec.String(fileElementName),
		codec.String(f.Name),
		codec.String(fileElementSize),
		intElement(f.Size),
		codec.String(fileElementType),
		codec.String(f.ContentType),
		codec.String(fileElementDescription),
		codec.String(f.Description),
		codec.String(fileElementData),
		codec.Bytes(f.Data),
	).Encode()
}

// DecodeUploadedFile parses a tagged record into a file, payload included.
func DecodeUploadedFile(data []byte) (*UploadedFile, error) {
	return decodeUploadedFile(data, true)
}

// DecodeUploadedFileWithoutData parses only the file's metadata, leaving
// Data nil. Listings use this to avoid materializing large payloads.
func DecodeUploadedFileWithoutData(data []byte) (*UploadedFile, error) {
	return decodeUploadedFile(data, false)
}

func decodeUploadedFile(data []byte, withData bool) (*UploadedFile, error) {
	const entity = "uploaded file"

	root, err := codec.Decode(data)
	if err != nil {
		return nil, decodeErr(entity, err)
	}
	elements, err := root.AsSequence()
	if err != nil {
		return nil, decodeErr(entity, err)
	}

	f := &UploadedFile{Size: -1}
	for i := 0; i+1 < len(elements); i += 2 {
		name, err := elements[i].AsString()
		if err != nil {
			return nil, decodeErr(entity, err)
		}
		value := elements[i+1]

		switch name {
		case fileElementName:
			f.Name, err = value.AsString()
		case fileElementSize:
			f.Size, err = decodeInt(value)
		case fileElementType:
			f.ContentType, err = value.AsString()
		case fileElementDescription:
			f.Description, err = value.AsString()
		case fileElementData:
			if withData {
				f.Data, err = value.AsBytes()
			}
		}
		if err != nil {
			return nil, decodeErr(entity, err)
		}
	}
	return f, nil
}
