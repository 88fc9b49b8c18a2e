// Package extract pulls the score object out of free-form generated text.
package extract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "score.schema.json"

//go:embed score.schema.json
var scoreSchema []byte

// Extractor selects the first candidate block carrying both score keys.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	schema *jsonschema.Schema
}

// New compiles the score object schema.
func New() (*Extractor, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(scoreSchema)); err != nil {
		return nil, fmt.Errorf("add score schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile score schema: %w", err)
	}
	return &Extractor{schema: schema}, nil
}

// Extract returns the first candidate that parses as a JSON object containing
// both persuasive and empathy. Values are not checked here. Numbers are
// returned as json.Number.
func (e *Extractor) Extract(text string) (map[string]any, bool) {
	for block := range Candidates(text) {
		obj, ok := decodeObject(block)
		if !ok {
			continue
		}
		if err := e.schema.Validate(obj); err != nil {
			continue
		}
		return obj, true
	}
	return nil, false
}

func decodeObject(block string) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(block)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, false
	}
	return obj, true
}

// Candidates yields, left to right, every brace-delimited block that has no
// other brace inside it. Blocks never overlap.
func Candidates(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := -1
		for i := 0; i < len(text); i++ {
			switch text[i] {
			case '{':
				start = i
			case '}':
				if start < 0 {
					continue
				}
				if !yield(text[start : i+1]) {
					return
				}
				start = -1
			}
		}
	}
}
