package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	blockIndent = "    "
	jsonIndent  = "  "
)

// RenderConfig serializes a document into the Python assignment syntax
// read by the chat application.
//
// Scalars are emitted bare when they are exactly True/False or numeric and
// single-quoted otherwise. Mappings and lists become a `KEY = {` block with
// one `'sub': '<json>',` line per entry. Nothing is escaped: a value holding
// a quote produces fragile output.
func RenderConfig(doc Document) string {
	lines := make([]string, 0, len(doc))

	for _, field := range doc {
		switch field.Value.Kind {
		case KindMapping:
			lines = append(lines, field.Key+" = {")
			for _, e := range field.Value.Entries {
				lines = append(lines, blockLine(e.Key, e.Value))
			}
			lines = append(lines, "}")
		case KindList:
			lines = append(lines, field.Key+" = {")
			for i, item := range field.Value.Items {
				lines = append(lines, blockLine(strconv.Itoa(i), item))
			}
			lines = append(lines, "}")
		default:
			lines = append(lines, fmt.Sprintf("%s = %s", field.Key, formatScalar(field.Value.Scalar)))
		}
	}

	return strings.Join(lines, "\n")
}

func blockLine(key string, value interface{}) string {
	return fmt.Sprintf("%s'%s': '%s',", blockIndent, key, encodeSubValue(value))
}

// encodeSubValue JSON-encodes a block entry with two-space indentation,
// continuation lines shifted by the block indent.
func encodeSubValue(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(blockIndent, jsonIndent)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func formatScalar(s string) string {
	if s == "True" || s == "False" || isNumeric(s) {
		return s
	}
	return "'" + s + "'"
}

// isNumeric reports whether s reads as a finite number. Blank strings are
// not numbers here, so an empty credential renders as an empty quoted string.
func isNumeric(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
