// Package results turns solver-produced result payloads into the section/row
// view model displayed by the frontend.
//
// A result payload is a mapping of named sections to named fields, each field
// an ordered (value, unit) pair. Both halves of the pair are opaque display
// text: the renderer performs no numeric parsing and no unit validation.
// Section and field order is display-significant, so decoding walks the JSON
// token stream instead of going through a Go map.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a single named result value paired with its display unit.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Section is a named group of related result fields, in payload order.
type Section struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
	// Skipped counts malformed field entries dropped during decoding.
	// Malformed entries are isolated per field; they never abort the render.
	Skipped int `json:"skipped,omitempty"`
}

// ResultPayload is the top-level result entity. Output is nil or empty when
// the solve produced no solution, which is a normal terminal state.
type ResultPayload struct {
	Output []Section
}

// UnmarshalJSON decodes a payload object, preserving section and field order.
// Attributes other than "output" are ignored. A missing, null, or non-object
// "output" yields an empty payload rather than an error.
func (p *ResultPayload) UnmarshalJSON(data []byte) error {
	p.Output = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to decode result payload: %w", err)
	}
	if tok != json.Delim('{') {
		// Null or non-object payload: treat as empty, not as an error.
		return nil
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to decode result payload key: %w", err)
		}
		key, _ := keyTok.(string)

		if key != "output" {
			if err := skipValue(dec); err != nil {
				return fmt.Errorf("failed to skip payload attribute %q: %w", key, err)
			}
			continue
		}

		sections, err := decodeOutput(dec)
		if err != nil {
			return err
		}
		p.Output = sections
	}

	return nil
}

// decodeOutput decodes the "output" mapping of section name to section body.
func decodeOutput(dec *json.Decoder) ([]Section, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}
	if tok != json.Delim('{') {
		// Falsy or non-mapping output: the empty-state case.
		if tok == json.Delim('[') {
			if err := skipToClose(dec); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	var sections []Section
	for dec.More() {
		nameTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to decode section name: %w", err)
		}
		name, _ := nameTok.(string)

		section, err := decodeSection(dec, name)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	// Consume closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to close output mapping: %w", err)
	}

	return sections, nil
}

// decodeSection decodes one section body: a mapping of field name to
// [value, unit] pair. A section body that is not a mapping is kept as an
// empty section so its panel still appears with the name intact.
func decodeSection(dec *json.Decoder, name string) (Section, error) {
	section := Section{Name: name}

	tok, err := dec.Token()
	if err != nil {
		return section, fmt.Errorf("failed to decode section %q: %w", name, err)
	}
	if tok != json.Delim('{') {
		section.Skipped++
		if tok == json.Delim('[') {
			if err := skipToClose(dec); err != nil {
				return section, err
			}
		}
		return section, nil
	}

	for dec.More() {
		fieldTok, err := dec.Token()
		if err != nil {
			return section, fmt.Errorf("failed to decode field name in section %q: %w", name, err)
		}
		fieldName, _ := fieldTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return section, fmt.Errorf("failed to decode field %q in section %q: %w", fieldName, name, err)
		}

		field, ok := decodeFieldEntry(fieldName, raw)
		if !ok {
			section.Skipped++
			continue
		}
		section.Fields = append(section.Fields, field)
	}

	if _, err := dec.Token(); err != nil {
		return section, fmt.Errorf("failed to close section %q: %w", name, err)
	}

	return section, nil
}

// decodeFieldEntry converts a raw [value, unit] pair into a Field. Entries
// that are not arrays, or arrays with no elements, are reported malformed.
// A single-element pair renders with an empty unit.
func decodeFieldEntry(name string, raw json.RawMessage) (Field, bool) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) == 0 {
		return Field{}, false
	}

	field := Field{
		Name:  name,
		Value: displayText(parts[0]),
	}
	if len(parts) > 1 {
		field.Unit = displayText(parts[1])
	}
	return field, true
}

// displayText renders a raw JSON value as opaque display text. Strings are
// unquoted; numbers, booleans, and anything else keep their literal form.
func displayText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// skipValue consumes and discards the next JSON value from the decoder.
func skipValue(dec *json.Decoder) error {
	var discard json.RawMessage
	return dec.Decode(&discard)
}

// skipToClose consumes tokens until the current compound value closes.
func skipToClose(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
	return nil
}
