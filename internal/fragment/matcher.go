package fragment

import (
	"encoding/json"
	"fmt"
	"mime"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"
)

// ValidatePayload checks that buf is genuinely an instance of the claimed
// essence. The declared Content-Type header is never trusted on its own:
// structured types are parsed and image types are sniffed for their actual
// encoded format. The check is pure and safe to run concurrently.
func ValidatePayload(buf []byte, essence string) error {
	if len(buf) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, ErrEmptyPayload)
	}
	if !supportedTypes[essence] {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, essence)
	}

	switch {
	case isTextEssence(essence):
		if !utf8.Valid(buf) {
			return fmt.Errorf("%w: %s payload is not valid text", ErrValidation, essence)
		}
		return nil

	case essence == TypeJSON:
		if !utf8.Valid(buf) || !json.Valid(buf) {
			return fmt.Errorf("%w: payload is not a JSON value", ErrValidation)
		}
		return nil

	case essence == TypeYAML:
		if !utf8.Valid(buf) {
			return fmt.Errorf("%w: payload is not valid text", ErrValidation)
		}
		var doc interface{}
		if err := yaml.Unmarshal(buf, &doc); err != nil {
			return fmt.Errorf("%w: payload is not valid YAML", ErrValidation)
		}
		return nil

	case isImageEssence(essence):
		return validateImage(buf, essence)
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedType, essence)
}

// validateImage sniffs the buffer's real codec and compares it to the
// claim. The heif and avif container formats are the same codec family:
// sniffers commonly report heif for files that are semantically AVIF, so
// both sides of the comparison are normalized before matching.
func validateImage(buf []byte, essence string) error {
	detected := mimetype.Detect(buf).String()
	if parsed, _, err := mime.ParseMediaType(detected); err == nil {
		detected = parsed
	}

	if codecFamily(detected) != codecFamily(essence) {
		return fmt.Errorf("%w: payload is %s, not %s", ErrValidation, detected, essence)
	}
	return nil
}

func codecFamily(essence string) string {
	switch essence {
	case TypeAVIF, "image/heif", "image/heic", "image/heif-sequence", "image/heic-sequence":
		return TypeAVIF
	}
	return essence
}
