package datapack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/voxelio/voxel-studio/internal/models"
)

// Element is a parsed datapack resource
type Element struct {
	Identifier models.Identifier `json:"identifier"`
	Data       any               `json:"data"`

	// source holds the file bytes the element was parsed from; nil once edited
	source []byte
}

// NewElement returns an element without source bytes. It always compiles
// from Data.
func NewElement(id models.Identifier, data any) Element {
	return Element{Identifier: id, Data: data}
}

// Modified reports whether the element no longer matches its source file
func (e Element) Modified() bool {
	return e.source == nil
}

// Bytes returns the file content of the element
func (e Element) Bytes() ([]byte, error) {
	if e.source != nil {
		return e.source, nil
	}
	return encodeJSON(e.Data)
}

// ElementMap maps element keys to elements
type ElementMap map[string]Element

// Clone returns a shallow copy of the map
func (m ElementMap) Clone() ElementMap {
	out := make(ElementMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns element keys in sorted order
func (m ElementMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode element: %w", err)
	}
	return buf.Bytes(), nil
}

// cloneValue deep-copies decoded JSON so edits never alias earlier states
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// NewElementFromJSON decodes raw JSON into a new element
func NewElementFromJSON(id models.Identifier, raw []byte) (Element, error) {
	data, err := decodeJSON(raw)
	if err != nil {
		return Element{}, fmt.Errorf("failed to decode element %s: %w", id, err)
	}
	return NewElement(id, data), nil
}
