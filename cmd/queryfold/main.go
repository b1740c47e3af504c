// Command queryfold decodes a query string into a composite value and
// prints it as YAML, JSON, or an aligned key/value table. An optional jq
// filter can be applied to the decoded result.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/speakeasy-api/queryfold"
)

func main() {
	var (
		delimiter  = flag.String("delimiter", "&", "pair delimiter")
		depth      = flag.Int("depth", 5, "maximum bracket nesting depth")
		arrayLimit = flag.Int("array-limit", 20, "maximum sequence length before overflow conversion")
		allowDots  = flag.Bool("allow-dots", false, "treat a.b as a[b]")
		comma      = flag.Bool("comma", false, "split unbracketed values on commas")
		strictNull = flag.Bool("strict-null", false, "decode bare keys as explicit nulls")
		queryExpr  = flag.String("query", "", "jq filter applied to the decoded value")
		output     = flag.String("output", "", "output format: json, yaml or table (default: yaml on a terminal, json otherwise)")
		logLevel   = flag.String("log-level", "", "stderr log level: error, warn, info or debug")
		verbose    = flag.Bool("v", false, "shorthand for -log-level debug")
	)
	flag.Parse()

	input, err := readInput()
	if err != nil {
		fatal(err)
	}

	opts := queryfold.DefaultParseOptions()
	opts.Delimiter = *delimiter
	opts.Depth = *depth
	opts.ArrayLimit = *arrayLimit
	opts.AllowDots = *allowDots
	opts.Comma = *comma
	opts.StrictNullHandling = *strictNull
	opts.IgnoreQueryPrefix = true
	if *verbose {
		opts.Logger = queryfold.NewLogger(queryfold.LevelDebug, os.Stderr)
	} else if *logLevel != "" {
		opts.Logger = queryfold.NewLogger(queryfold.ParseLogLevel(*logLevel), os.Stderr)
	}

	rec, err := queryfold.Parse(input, opts)
	if err != nil {
		fatal(fmt.Errorf("parse: %w", err))
	}

	results := []any{rec}
	if *queryExpr != "" {
		results, err = runFilter(*queryExpr, queryfold.ToNative(rec))
		if err != nil {
			fatal(err)
		}
	}

	format := *output
	if format == "" {
		if isatty.IsTerminal(os.Stdout.Fd()) {
			format = "yaml"
		} else {
			format = "json"
		}
	}

	for _, res := range results {
		if err := render(os.Stdout, res, format); err != nil {
			fatal(err)
		}
	}
}

func readInput() (string, error) {
	if flag.NArg() > 0 {
		return strings.TrimSpace(flag.Arg(0)), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// runFilter applies a jq expression to the decoded value and collects
// every output.
func runFilter(expr string, input any) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	var out []any
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("run query: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func render(w io.Writer, v any, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		return renderTable(w, v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// renderTable prints top-level entries as two aligned columns. Column
// width accounts for wide runes so CJK keys line up.
func renderTable(w io.Writer, v any) error {
	type kv struct {
		key string
		val any
	}
	var rows []kv
	switch t := v.(type) {
	case *queryfold.Record:
		for k, val := range t.All() {
			rows = append(rows, kv{k, val})
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, kv{k, t[k]})
		}
	default:
		return fmt.Errorf("table output needs a keyed top-level value, got %T", v)
	}

	width := 0
	for _, r := range rows {
		if kw := runewidth.StringWidth(r.key); kw > width {
			width = kw
		}
	}
	for _, r := range rows {
		cell, err := json.Marshal(queryfold.ToNative(r.val))
		if err != nil {
			return err
		}
		pad := strings.Repeat(" ", width-runewidth.StringWidth(r.key))
		if _, err := fmt.Fprintf(w, "%s%s  %s\n", r.key, pad, cell); err != nil {
			return err
		}
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "queryfold:", err)
	os.Exit(1)
}
