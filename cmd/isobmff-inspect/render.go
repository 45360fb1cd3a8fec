package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
	"m7s.live/isobmff/pkg/box"
)

type document struct {
	File  string     `json:"file" yaml:"file"`
	Boxes []*box.Box `json:"boxes" yaml:"boxes"`
}

func render(w io.Writer, format string, docs []document) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(docs)
	default:
		for _, doc := range docs {
			if len(docs) > 1 {
				fmt.Fprintf(w, "%s:\n", doc.File)
			}
			for _, b := range doc.Boxes {
				writeTree(w, b, 0)
			}
		}
		return nil
	}
}

func writeTree(w io.Writer, b *box.Box, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s[%s] size=%d offset=%d", indent, b.Type, b.Size, b.Offset)
	if b.Name != "" {
		fmt.Fprintf(w, " %s", b.Name)
	}
	if b.Subtype != nil {
		fmt.Fprintf(w, " uuid=%s", b.Subtype)
	}
	fmt.Fprintln(w)
	for _, fd := range b.Fields {
		fmt.Fprintf(w, "%s  %s: %s\n", indent, fd.Key, formatValue(fd.Value))
	}
	if b.Preview != "" {
		fmt.Fprintf(w, "%s  > %s\n", indent, b.Preview)
	}
	if b.Error != "" {
		fmt.Fprintf(w, "%s  ! %s\n", indent, b.Error)
	}
	for _, child := range b.Children {
		writeTree(w, child, depth+1)
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case map[string]bool:
		var set []string
		for name, on := range v {
			if on {
				set = append(set, name)
			}
		}
		if len(set) == 0 {
			return "none"
		}
		slices.Sort(set)
		return strings.Join(set, "|")
	default:
		return fmt.Sprintf("%+v", v)
	}
}
