package state

import (
	json "github.com/goccy/go-json"
)

// DocumentCodec is the one serialization configuration for the durable
// documents. A single constant value is created at startup and handed to
// each store explicitly; nothing reads codec settings from a global.
type DocumentCodec struct {
	prefix string
	indent string
}

// NewDocumentCodec returns the codec used for every document this layer
// owns: pretty-printed, camelCase property names via struct tags.
func NewDocumentCodec() DocumentCodec {
	return DocumentCodec{indent: "  "}
}

func (c DocumentCodec) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, c.prefix, c.indent)
}

func (c DocumentCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
