package fragment

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/yuin/goldmark"
)

var imageEssences = []string{TypePNG, TypeJPEG, TypeWebP, TypeGIF, TypeAVIF}

// conversionTargets is the fixed compatibility matrix: for each origin
// essence, the set of essences a fragment of that type can be served as.
var conversionTargets = map[string][]string{
	TypeTextPlain:    {TypeTextPlain},
	TypeTextMarkdown: {TypeTextMarkdown, TypeTextHTML, TypeTextPlain},
	TypeTextHTML:     {TypeTextHTML, TypeTextPlain},
	TypeTextCSV:      {TypeTextCSV, TypeTextPlain, TypeJSON},
	TypeJSON:         {TypeJSON, TypeYAML, TypeTextPlain},
	TypeYAML:         {TypeYAML, TypeTextPlain},
	TypePNG:          imageEssences,
	TypeJPEG:         imageEssences,
	TypeWebP:         imageEssences,
	TypeGIF:          imageEssences,
	TypeAVIF:         imageEssences,
}

// CanConvert reports whether the origin essence can be served as target.
func CanConvert(origin, target string) bool {
	for _, allowed := range conversionTargets[origin] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Convert transforms buf from its verified origin essence into the target
// essence. The pair must be in the compatibility matrix; a pair outside it
// fails with ErrUnsupportedConversion naming both essences. A pair inside
// the matrix whose payload cannot structurally support the conversion
// fails with ErrConversionFailed.
func Convert(buf []byte, origin, target string) ([]byte, error) {
	if !CanConvert(origin, target) {
		return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, origin, target)
	}

	if isImageEssence(origin) {
		return convertImage(buf, origin, target)
	}

	if origin == target {
		return buf, nil
	}

	switch target {
	case TypeTextPlain:
		// Markdown, HTML, CSV, JSON and YAML all serve their stored text
		// verbatim: "plain" means the decoded text, not a rendered form.
		return buf, nil
	case TypeTextHTML:
		return markdownToHTML(buf)
	case TypeJSON:
		return csvToJSON(buf)
	case TypeYAML:
		return jsonToYAML(buf)
	}

	return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, origin, target)
}

func markdownToHTML(buf []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := goldmark.Convert(buf, &out); err != nil {
		return nil, fmt.Errorf("%w: render markdown: %v", ErrConversionFailed, err)
	}
	return out.Bytes(), nil
}

// csvToJSON parses the CSV with its first row as the header row and emits
// an array of objects, one per data row, with string values. Keys keep the
// header order, which a plain map marshal would lose.
func csvToJSON(buf []byte) ([]byte, error) {
	records, err := csv.NewReader(bytes.NewReader(buf)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", ErrConversionFailed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: csv payload has no header row", ErrConversionFailed)
	}

	header := records[0]
	var out bytes.Buffer
	out.WriteByte('[')
	for i, record := range records[1:] {
		if i > 0 {
			out.WriteByte(',')
		}
		out.WriteByte('{')
		for j, field := range record {
			if j > 0 {
				out.WriteByte(',')
			}
			writeJSONString(&out, header[j])
			out.WriteByte(':')
			writeJSONString(&out, field)
		}
		out.WriteByte('}')
	}
	out.WriteByte(']')
	return out.Bytes(), nil
}

func writeJSONString(out *bytes.Buffer, s string) {
	encoded, err := json.Marshal(s)
	if err != nil {
		// Marshalling a string cannot fail; keep the output valid anyway.
		encoded = []byte(`""`)
	}
	out.Write(encoded)
}

// jsonToYAML emits a flat "key: value" line per top-level key of a JSON
// object. This is deliberately shallow: nested values are emitted as
// compact JSON on their line rather than recursively expanded, and a
// non-object top level is a conversion failure.
func jsonToYAML(buf []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()

	open, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: parse json: %v", ErrConversionFailed, err)
	}
	if delim, ok := open.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top-level JSON value is not an object", ErrConversionFailed)
	}

	var out bytes.Buffer
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", ErrConversionFailed, err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("%w: parse json: unexpected key token", ErrConversionFailed)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", ErrConversionFailed, err)
		}

		fmt.Fprintf(&out, "%s: %s\n", key, yamlScalar(raw))
	}

	return out.Bytes(), nil
}

func yamlScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	if raw[0] == '{' || raw[0] == '[' {
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err == nil {
			return compact.String()
		}
	}
	return string(bytes.TrimSpace(raw))
}
