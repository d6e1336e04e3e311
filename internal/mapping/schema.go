package mapping

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "github.com/julianstephens/habitcast/internal/errors"
)

const habitMappingSchema = `{
	"type": "object",
	"additionalProperties": {"type": "object"}
}`

const channelMappingSchema = `{
	"type": "object",
	"additionalProperties": {"type": ["string", "number"], "minLength": 1}
}`

// validate checks document against schema and reports every violation in a
// single ValidationError naming the file.
func validate(source, schema string, document []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return &apperrors.ValidationError{Source: source, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	var msgs []string
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return &apperrors.ValidationError{Source: source, Reason: strings.Join(msgs, "; ")}
}
