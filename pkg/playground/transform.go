// Package playground exposes string-in/string-out wrappers around the
// decoder and serializer for web embedding: options arrive as a JSON
// document and results leave as JSON, so a host page never has to share
// Go types.
package playground

import (
	"encoding/json"
	"fmt"

	"github.com/speakeasy-api/queryfold"
)

// Options is the JSON shape accepted by the transform entry points.
// Absent fields keep the library defaults.
type Options struct {
	Delimiter          *string `json:"delimiter,omitempty"`
	IgnoreQueryPrefix  *bool   `json:"ignoreQueryPrefix,omitempty"`
	Depth              *int    `json:"depth,omitempty"`
	ParameterLimit     *int    `json:"parameterLimit,omitempty"`
	ArrayLimit         *int    `json:"arrayLimit,omitempty"`
	ParseArrays        *bool   `json:"parseArrays,omitempty"`
	AllowDots          *bool   `json:"allowDots,omitempty"`
	AllowEmptyArrays   *bool   `json:"allowEmptyArrays,omitempty"`
	Comma              *bool   `json:"comma,omitempty"`
	Duplicates         *string `json:"duplicates,omitempty"`
	StrictNullHandling *bool   `json:"strictNullHandling,omitempty"`
	Charset            *string `json:"charset,omitempty"`
	ArrayFormat        *string `json:"arrayFormat,omitempty"`
	Encode             *bool   `json:"encode,omitempty"`
}

// TransformQuery parses a query string and returns the decoded composite
// as an indented JSON document.
func TransformQuery(query string, optionsJSON string) (string, error) {
	opts, err := parseOptions(optionsJSON)
	if err != nil {
		return "", err
	}
	rec, err := queryfold.Parse(query, opts)
	if err != nil {
		return "", fmt.Errorf("failed to parse query string: %w", err)
	}
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(out), nil
}

// RoundTrip parses a query string, re-serializes the composite, and
// returns both forms as one JSON document:
//
//	{"parsed": {...}, "serialized": "a=b&c=d"}
func RoundTrip(query string, optionsJSON string) (string, error) {
	opts, err := parseOptions(optionsJSON)
	if err != nil {
		return "", err
	}
	rec, err := queryfold.Parse(query, opts)
	if err != nil {
		return "", fmt.Errorf("failed to parse query string: %w", err)
	}

	sopts := queryfold.DefaultStringifyOptions()
	var raw Options
	if optionsJSON != "" {
		// Already validated by parseOptions.
		_ = json.Unmarshal([]byte(optionsJSON), &raw)
	}
	if raw.ArrayFormat != nil {
		sopts.ArrayFormat = *raw.ArrayFormat
	}
	if raw.Encode != nil {
		sopts.Encode = *raw.Encode
	}
	serialized, err := queryfold.Stringify(rec, sopts)
	if err != nil {
		return "", fmt.Errorf("failed to serialize result: %w", err)
	}

	parsed, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	out, err := json.MarshalIndent(map[string]json.RawMessage{
		"parsed":     parsed,
		"serialized": mustJSON(serialized),
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func mustJSON(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func parseOptions(optionsJSON string) (queryfold.ParseOptions, error) {
	opts := queryfold.DefaultParseOptions()
	if optionsJSON == "" {
		return opts, nil
	}
	var o Options
	if err := json.Unmarshal([]byte(optionsJSON), &o); err != nil {
		return opts, fmt.Errorf("invalid options document: %w", err)
	}
	if o.Delimiter != nil {
		opts.Delimiter = *o.Delimiter
	}
	if o.IgnoreQueryPrefix != nil {
		opts.IgnoreQueryPrefix = *o.IgnoreQueryPrefix
	}
	if o.Depth != nil {
		opts.Depth = *o.Depth
	}
	if o.ParameterLimit != nil {
		opts.ParameterLimit = *o.ParameterLimit
	}
	if o.ArrayLimit != nil {
		opts.ArrayLimit = *o.ArrayLimit
	}
	if o.ParseArrays != nil {
		opts.ParseArrays = *o.ParseArrays
	}
	if o.AllowDots != nil {
		opts.AllowDots = *o.AllowDots
	}
	if o.AllowEmptyArrays != nil {
		opts.AllowEmptyArrays = *o.AllowEmptyArrays
	}
	if o.Comma != nil {
		opts.Comma = *o.Comma
	}
	if o.StrictNullHandling != nil {
		opts.StrictNullHandling = *o.StrictNullHandling
	}
	if o.Charset != nil {
		opts.Charset = *o.Charset
	}
	if o.Duplicates != nil {
		switch *o.Duplicates {
		case "combine":
			opts.Duplicates = queryfold.DuplicatesCombine
		case "first":
			opts.Duplicates = queryfold.DuplicatesFirst
		case "last":
			opts.Duplicates = queryfold.DuplicatesLast
		default:
			return opts, fmt.Errorf("unknown duplicates policy %q", *o.Duplicates)
		}
	}
	return opts, nil
}
