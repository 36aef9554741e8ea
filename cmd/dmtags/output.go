package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/gatan-dm/dm"
	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/pixels"
	"github.com/wippyai/gatan-dm/tagstore"
)

var (
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))
)

// filtered returns the tags to print: the full log, or the entries under
// prefix.
func filtered(store *tagstore.Store, prefix string) []tagstore.Entry {
	if prefix == "" {
		return store.Entries()
	}
	return store.Filter(prefix)
}

func writeText(w io.Writer, f *dm.File, entries []tagstore.Entry) error {
	h := f.Header
	if _, err := fmt.Fprintf(w, "# %s, %d bytes, %d tags\n", h.Version, h.StreamSize, f.Tags.Len()); err != nil {
		return err
	}
	if h.LengthMismatch {
		if _, err := fmt.Fprintf(w, "# root length %d does not match stream size\n", h.RootLength); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
	}
	return nil
}

// writeYAML emits a mapping in stream order. A later write to the same path
// replaces the earlier value in place.
func writeYAML(w io.Writer, entries []tagstore.Entry) error {
	node := &yaml.Node{Kind: yaml.MappingNode}
	index := make(map[string]int)
	for _, e := range entries {
		if i, ok := index[e.Path]; ok {
			node.Content[i+1].Value = e.Value
			continue
		}
		index[e.Path] = len(node.Content)
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Path},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value},
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return errors.Wrap(errors.PhaseCLI, errors.KindIO, err, "encode yaml")
	}
	return enc.Close()
}

func writeJSON(w io.Writer, entries []tagstore.Entry) error {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Path] = e.Value
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return errors.Wrap(errors.PhaseCLI, errors.KindIO, err, "encode json")
	}
	return nil
}

// writeInfo prints experiment info and the image descriptor. Styles are
// applied only when styled is set.
func writeInfo(w io.Writer, f *dm.File, fields []dm.InfoField, index int, styled bool) error {
	label := func(s string) string {
		if styled {
			return labelStyle.Render(s)
		}
		return s
	}
	value := func(s string) string {
		if styled {
			return valueStyle.Render(s)
		}
		return s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", label("File:"), value(f.Name))
	fmt.Fprintf(&b, "%s %s\n", label("Format:"), value(f.Header.Version.String()))

	info := dm.ExperimentInfo(f.Tags, fields)
	for _, fld := range fields {
		if v, ok := info[fld.Name]; ok {
			fmt.Fprintf(&b, "%s %s\n", label(fld.Name+":"), value(v))
		}
	}

	img, err := pixels.Describe(f.Tags, index)
	if err != nil {
		msg := fmt.Sprintf("no image %d: %v", index, err)
		if styled {
			msg = warnStyle.Render(msg)
		}
		fmt.Fprintln(&b, msg)
	} else {
		fmt.Fprintf(&b, "%s %s\n", label("Images:"), value(fmt.Sprint(pixels.Count(f.Tags))))
		fmt.Fprintf(&b, "%s %s\n", label("Data Type:"), value(img.DataType.String()))
		fmt.Fprintf(&b, "%s %s\n", label("Dimensions:"), value(fmt.Sprintf("%dx%dx%d", img.Width, img.Height, img.Depth)))
		fmt.Fprintf(&b, "%s %s\n", label("Pixel Data:"), value(fmt.Sprintf("%d bytes at 0x%x", img.Region.Size, img.Region.Offset)))
	}
	if size, unit, err := pixels.PixelSize(f.Tags); err == nil {
		fmt.Fprintf(&b, "%s %s\n", label("Pixel Size:"), value(fmt.Sprintf("%g %s", size, unit)))
	}
	if low, high, err := pixels.ContrastLimits(f.Tags); err == nil {
		fmt.Fprintf(&b, "%s %s\n", label("Contrast:"), value(fmt.Sprintf("%d..%d", low, high)))
	}

	_, err = io.WriteString(w, b.String())
	return err
}
