package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/BinToss/DeadLock/pkg/model"
)

// Format selects how scan results are written.
type Format string

const (
	FormatStandard Format = "standard"
	FormatShort    Format = "short"
	FormatTree     Format = "tree"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats lists every accepted Format value.
func Formats() []Format {
	return []Format{FormatStandard, FormatShort, FormatTree, FormatJSON, FormatYAML}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// report is the document written for machine-readable formats.
type report struct {
	Results []model.Result `json:"results" yaml:"results"`
}

// ToJSON writes results as one indented JSON document.
func ToJSON(w io.Writer, results []model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report{Results: nonNil(results)})
}

// ToYAML writes results as one YAML document.
func ToYAML(w io.Writer, results []model.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report{Results: nonNil(results)}); err != nil {
		return err
	}
	return enc.Close()
}

// Render writes results in a human-readable format, separated by blank lines.
func Render(w io.Writer, f Format, results []model.Result, colorEnabled bool) error {
	switch f {
	case FormatJSON:
		return ToJSON(w, results)
	case FormatYAML:
		return ToYAML(w, results)
	}
	for i, r := range results {
		if i > 0 && f != FormatShort {
			fmt.Fprintln(w)
		}
		switch f {
		case FormatShort:
			RenderShort(w, r, colorEnabled)
		case FormatTree:
			PrintTree(w, r, colorEnabled)
		default:
			RenderStandard(w, r, colorEnabled)
		}
	}
	return nil
}

func nonNil(results []model.Result) []model.Result {
	out := make([]model.Result, len(results))
	for i, r := range results {
		if r.Lockers == nil {
			r.Lockers = []model.LockerRecord{}
		}
		out[i] = r
	}
	return out
}
