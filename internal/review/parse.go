package review

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sakif/code-review-assistant/internal/apperror"
	"github.com/sakif/code-review-assistant/internal/model"
)

// field binds one schema key to the Review field it fills.
type field struct {
	key    string
	scalar func(r *model.Review) *string
	list   func(r *model.Review) *[]string
}

// schema is the full review decoder, one entry per key in model.ReviewKeys.
var schema = []field{
	{key: model.KeyLanguageDetected, scalar: func(r *model.Review) *string { return &r.LanguageDetected }},
	{key: model.KeyCorrectedCode, scalar: func(r *model.Review) *string { return &r.CorrectedCode }},
	{key: model.KeyTimeComplexity, scalar: func(r *model.Review) *string { return &r.TimeComplexity }},
	{key: model.KeySpaceComplexity, scalar: func(r *model.Review) *string { return &r.SpaceComplexity }},
	{key: model.KeySummary, scalar: func(r *model.Review) *string { return &r.Summary }},
	{key: model.KeyPositiveFeedback, list: func(r *model.Review) *[]string { return &r.PositiveFeedback }},
	{key: model.KeyCriticalIssues, list: func(r *model.Review) *[]string { return &r.CriticalIssues }},
	{key: model.KeySecurityVulnerabilities, list: func(r *model.Review) *[]string { return &r.SecurityVulnerabilities }},
	{key: model.KeySuggestionsForImprovement, list: func(r *model.Review) *[]string { return &r.SuggestionsForImprovement }},
	{key: model.KeyTestabilityNotes, list: func(r *model.Review) *[]string { return &r.TestabilityNotes }},
}

var errNotObject = errors.New("review must be a JSON object")

// Parse decodes sanitized model output into a Review.
//
// Known keys are decoded one by one. Unknown keys are ignored. A missing or
// null key leaves its field empty: "" for text, an empty (non-nil) slice for
// lists. Anything that is not a single JSON object, or a known key holding
// the wrong JSON type, fails with *apperror.SchemaDecodeError.
//
// ReviewedAt is left zero; the caller stamps it.
func Parse(candidate string) (model.Review, error) {
	members, err := decodeObject(candidate)
	if err != nil {
		return model.Review{}, apperror.SchemaDecode(candidate, err)
	}

	var r model.Review
	for _, f := range schema {
		raw, present := members[f.key]
		if f.list != nil {
			if err := decodeList(raw, present, f.list(&r)); err != nil {
				return model.Review{}, apperror.SchemaDecode(candidate, fmt.Errorf("key %q: %w", f.key, err))
			}
			continue
		}
		if err := decodeScalar(raw, present, f.scalar(&r)); err != nil {
			return model.Review{}, apperror.SchemaDecode(candidate, fmt.Errorf("key %q: %w", f.key, err))
		}
	}

	return r, nil
}

// decodeObject reads exactly one JSON object and rejects trailing data.
func decodeObject(candidate string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(candidate))

	var members map[string]json.RawMessage
	if err := dec.Decode(&members); err != nil {
		return nil, err
	}
	if members == nil {
		return nil, errNotObject
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON object")
	}
	return members, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeScalar(raw json.RawMessage, present bool, dst *string) error {
	if !present || isNull(raw) {
		*dst = ""
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func decodeList(raw json.RawMessage, present bool, dst *[]string) error {
	*dst = []string{}
	if !present || isNull(raw) {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	if items != nil {
		*dst = items
	}
	return nil
}
