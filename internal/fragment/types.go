package fragment

import (
	"fmt"
	"mime"
	"strings"
)

// Supported MIME essences. The type of a fragment is always one of these,
// optionally with a charset parameter.
const (
	TypeTextPlain    = "text/plain"
	TypeTextMarkdown = "text/markdown"
	TypeTextHTML     = "text/html"
	TypeTextCSV      = "text/csv"
	TypeJSON         = "application/json"
	TypeYAML         = "application/yaml"
	TypePNG          = "image/png"
	TypeJPEG         = "image/jpeg"
	TypeWebP         = "image/webp"
	TypeGIF          = "image/gif"
	TypeAVIF         = "image/avif"
)

var supportedTypes = map[string]bool{
	TypeTextPlain:    true,
	TypeTextMarkdown: true,
	TypeTextHTML:     true,
	TypeTextCSV:      true,
	TypeJSON:         true,
	TypeYAML:         true,
	TypePNG:          true,
	TypeJPEG:         true,
	TypeWebP:         true,
	TypeGIF:          true,
	TypeAVIF:         true,
}

var extensionTypes = map[string]string{
	".txt":  TypeTextPlain,
	".md":   TypeTextMarkdown,
	".html": TypeTextHTML,
	".csv":  TypeTextCSV,
	".json": TypeJSON,
	".yaml": TypeYAML,
	".yml":  TypeYAML,
	".png":  TypePNG,
	".jpg":  TypeJPEG,
	".jpeg": TypeJPEG,
	".webp": TypeWebP,
	".gif":  TypeGIF,
	".avif": TypeAVIF,
}

// ContentType is a parsed Content-Type header: the bare essence plus an
// optional charset parameter.
type ContentType struct {
	Essence string
	Charset string
}

// String re-serializes the content type for response headers.
func (t ContentType) String() string {
	if t.Charset == "" {
		return t.Essence
	}
	return fmt.Sprintf("%s; charset=%s", t.Essence, t.Charset)
}

// ParseContentType parses a Content-Type header value into essence and
// charset. A syntactically invalid header is a malformed request; an
// essence outside the supported set is reported separately so callers can
// distinguish the two failures.
func ParseContentType(raw string) (ContentType, error) {
	essence, params, err := mime.ParseMediaType(raw)
	if err != nil {
		return ContentType{}, fmt.Errorf("%w: %q", ErrMalformedContentType, raw)
	}

	parsed := ContentType{
		Essence: strings.ToLower(essence),
		Charset: strings.ToLower(params["charset"]),
	}
	if !supportedTypes[parsed.Essence] {
		return ContentType{}, fmt.Errorf("%w: %s", ErrUnsupportedType, parsed.Essence)
	}
	return parsed, nil
}

// TypeForExtension maps a filename extension (with leading dot) to its
// essence. The boolean reports whether the extension is known.
func TypeForExtension(ext string) (string, bool) {
	essence, ok := extensionTypes[strings.ToLower(ext)]
	return essence, ok
}

func isTextEssence(essence string) bool {
	return strings.HasPrefix(essence, "text/")
}

func isImageEssence(essence string) bool {
	return strings.HasPrefix(essence, "image/")
}
