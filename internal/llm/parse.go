package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// Kind tags how a completion response could be interpreted.
type Kind int

const (
	// Failed means the call errored or returned nothing usable.
	Failed Kind = iota
	// StructuredJSON means a balanced JSON object or array was found.
	StructuredJSON
	// PlainText means the response had text but no embedded JSON.
	PlainText
)

func (k Kind) String() string {
	switch k {
	case StructuredJSON:
		return "json"
	case PlainText:
		return "text"
	default:
		return "failed"
	}
}

// Parsed is the interpreted form of a raw completion. Exactly one of JSON or
// Text is meaningful, selected by Kind. Err is set when Kind is Failed.
type Parsed struct {
	Kind Kind
	JSON json.RawMessage
	Text string
	Err  error
}

var errNotJSON = errors.New("completion is not structured json")

// Decode unmarshals the structured payload into v.
func (p Parsed) Decode(v any) error {
	if p.Kind != StructuredJSON {
		return errNotJSON
	}
	return json.Unmarshal(p.JSON, v)
}

// Parse interprets raw completion text. The first balanced {...} or [...]
// substring that is valid JSON wins; otherwise non-empty text is PlainText.
func Parse(raw string, err error) Parsed {
	if err != nil {
		return Parsed{Kind: Failed, Err: err}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Parsed{Kind: Failed, Err: errors.New("empty completion")}
	}
	if js, ok := firstJSON(raw); ok {
		return Parsed{Kind: StructuredJSON, JSON: js, Text: raw}
	}
	return Parsed{Kind: PlainText, Text: raw}
}

// firstJSON scans for the earliest opening bracket whose balanced span is
// valid JSON. Brackets inside JSON strings are ignored while balancing.
func firstJSON(s string) (json.RawMessage, bool) {
	for start := 0; start < len(s); start++ {
		c := s[start]
		if c != '{' && c != '[' {
			continue
		}
		end := matchBalanced(s, start)
		if end < 0 {
			continue
		}
		cand := s[start : end+1]
		if json.Valid([]byte(cand)) {
			return json.RawMessage(cand), true
		}
	}
	return nil, false
}

func matchBalanced(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
			if depth < 0 {
				return -1
			}
		}
	}
	return -1
}

// StringList extracts a list of strings from a structured payload. It accepts
// a bare array or an object holding the array under one of keys.
func (p Parsed) StringList(keys ...string) ([]string, bool) {
	if p.Kind != StructuredJSON {
		return nil, false
	}
	var arr []string
	if err := json.Unmarshal(p.JSON, &arr); err == nil {
		return arr, true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(p.JSON, &obj); err != nil {
		return nil, false
	}
	for _, k := range keys {
		if raw, ok := obj[k]; ok {
			if err := json.Unmarshal(raw, &arr); err == nil {
				return arr, true
			}
		}
	}
	return nil, false
}
