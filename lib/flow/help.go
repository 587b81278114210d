// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/flow/lib/markdown"
)

// HelpOptions control [RenderHelp].
type HelpOptions struct {
	// ShowAll renders every subflow recursively instead of listing the
	// direct children by name.
	ShowAll bool

	// Color selects styling. ColorAuto styles only terminal writers.
	Color ColorMode

	// Width is the wrapping width for descriptions and notes. Zero
	// means [DefaultHelpWidth].
	Width int
}

// RenderHelp writes usage text for workflow to w. path is the
// invocation path used in the header and usage lines (root first; the
// last element names workflow).
//
// The header, the built-in --help and --version switches, examples and
// notes appear only for the top-level node. With ShowAll, every
// subflow is rendered in full beneath its parent, indented one level
// per depth. Workflows are tracked by identity: a subflow that was
// already rendered (the tree may list an ancestor or itself) prints a
// one-line "(see above)" stub instead. Without ShowAll, direct
// children are listed by name and description, except the node itself.
//
// Loading a lazy subflow can fail; the error is returned and nothing
// is written.
func RenderHelp(w io.Writer, workflow *Workflow, path []string, options HelpOptions) error {
	if options.Width <= 0 {
		options.Width = DefaultHelpWidth
	}
	if len(path) == 0 {
		path = []string{workflow.Name}
	}

	h := &helpWriter{options: options}
	h.setStyle(w)
	if err := h.render(workflow, path, make(map[*Workflow]bool), 0); err != nil {
		return err
	}
	_, err := io.WriteString(w, h.output.String())
	return err
}

type helpWriter struct {
	options HelpOptions
	output  strings.Builder

	styled      bool
	lipRenderer *lipgloss.Renderer
}

func (h *helpWriter) setStyle(w io.Writer) {
	h.lipRenderer = lipgloss.NewRenderer(w)
	switch h.options.Color {
	case ColorAlways:
		h.lipRenderer.SetColorProfile(termenv.ANSI256)
		h.styled = true
	case ColorNever:
		h.styled = false
	default:
		h.styled = h.lipRenderer.ColorProfile() != termenv.Ascii
	}
}

func (h *helpWriter) heading(text string) string {
	if !h.styled {
		return text
	}
	return h.lipRenderer.NewStyle().Bold(true).Render(text)
}

func (h *helpWriter) title(text string) string {
	if !h.styled {
		return text
	}
	return h.lipRenderer.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Render(text)
}

func (h *helpWriter) line(text string) {
	h.output.WriteString(text)
	h.output.WriteString("\n")
}

// wrapped writes text wrapped to the help width, each line prefixed
// with indent.
func (h *helpWriter) wrapped(indent, text string) {
	width := max(h.options.Width-len(indent), 20)
	for _, line := range strings.Split(ansi.Wrap(text, width, " ,.;-+|"), "\n") {
		h.line(strings.TrimRight(indent+line, " "))
	}
}

func (h *helpWriter) render(node *Workflow, path []string, visited map[*Workflow]bool, depth int) error {
	visited[node] = true
	indent := strings.Repeat("  ", depth)

	names, err := node.SubflowNames()
	if err != nil {
		return err
	}

	if depth == 0 {
		h.line(h.title(fmt.Sprintf("%s v%s", joinPath(path), node.version())))
		if node.Description != "" {
			h.wrapped("", node.Description)
		}
		h.line("")
		h.line(h.heading("Usage:"))
		if len(names) > 0 {
			h.line(fmt.Sprintf("  %s [subflow] [options] [args...]", joinPath(path)))
		} else {
			h.line(fmt.Sprintf("  %s [options] [args...]", joinPath(path)))
		}
	} else {
		h.line(indent + h.title(joinPath(path)))
		if node.Description != "" {
			h.wrapped(indent+"  ", node.Description)
		}
	}

	h.renderOptions(node, indent, depth == 0)

	if len(names) > 0 {
		if err := h.renderSubflows(node, names, path, visited, depth); err != nil {
			return err
		}
	}

	if depth > 0 {
		return nil
	}

	if len(node.Examples) > 0 {
		h.line("")
		h.line(h.heading("Examples:"))
		for _, example := range node.Examples {
			if example.Description != "" {
				h.wrapped("  # ", example.Description)
			}
			h.line("  " + example.Command)
		}
	}

	if strings.TrimSpace(node.Notes) != "" {
		h.line("")
		h.line(h.heading("Notes:"))
		notes := markdown.Render(node.Notes, markdown.Options{
			Width:    h.options.Width - 2,
			Styled:   h.styled,
			Renderer: h.lipRenderer,
		})
		for _, line := range strings.Split(notes, "\n") {
			h.line(strings.TrimRight("  "+line, " "))
		}
	}

	if len(names) > 0 && !h.options.ShowAll {
		h.line("")
		h.line(fmt.Sprintf("Run '%s <subflow> --help' for more information on a subflow.", joinPath(path)))
		h.line(fmt.Sprintf("Run '%s --help=all' to show every subflow.", joinPath(path)))
	}
	return nil
}

func (h *helpWriter) renderOptions(node *Workflow, indent string, builtins bool) {
	if len(node.Args) == 0 && !builtins {
		return
	}

	h.line("")
	h.line(indent + h.heading("Options:"))

	var table strings.Builder
	tw := tabwriter.NewWriter(&table, 2, 0, 3, ' ', 0)
	for _, arg := range node.Args {
		fmt.Fprintf(tw, "%s  %s\t%s\t%s\n", indent, flagColumn(arg), arg.Kind, argSummary(arg))
	}
	if builtins {
		fmt.Fprintf(tw, "%s  -h, --help\t\tShow help (--help=all shows every subflow)\n", indent)
		fmt.Fprintf(tw, "%s      --version\t\tShow version\n", indent)
	}
	tw.Flush()
	h.output.WriteString(trimLineEnds(table.String()))
}

func (h *helpWriter) renderSubflows(node *Workflow, names []string, path []string, visited map[*Workflow]bool, depth int) error {
	indent := strings.Repeat("  ", depth)

	if !h.options.ShowAll {
		var table strings.Builder
		tw := tabwriter.NewWriter(&table, 2, 0, 3, ' ', 0)
		listed := 0
		for _, name := range names {
			child, _, err := node.Subflow(name)
			if err != nil {
				return err
			}
			if visited[child] {
				continue
			}
			fmt.Fprintf(tw, "%s  %s\t%s\n", indent, name, child.Description)
			listed++
		}
		tw.Flush()
		if listed > 0 {
			h.line("")
			h.line(indent + h.heading("Subflows:"))
			h.output.WriteString(trimLineEnds(table.String()))
		}
		return nil
	}

	h.line("")
	h.line(indent + h.heading("Subflows:"))
	for _, name := range names {
		child, _, err := node.Subflow(name)
		if err != nil {
			return err
		}
		childPath := append(slices.Clone(path), name)
		if visited[child] {
			h.line(fmt.Sprintf("%s  %s (see above)", indent, joinPath(childPath)))
			continue
		}
		h.line("")
		if err := h.render(child, childPath, visited, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// flagColumn renders "-a, --name" or "    --name" so long names align.
func flagColumn(arg Arg) string {
	if arg.Alias != "" {
		return fmt.Sprintf("-%s, --%s", arg.Alias, arg.Name)
	}
	return "    --" + arg.Name
}

func argSummary(arg Arg) string {
	var annotations []string
	if arg.Required {
		annotations = append(annotations, "(required)")
	}
	if value, ok := arg.DefaultValue(); ok {
		annotations = append(annotations, "(default: "+formatDefault(value)+")")
	}
	if len(annotations) == 0 {
		return arg.Description
	}
	if arg.Description == "" {
		return strings.Join(annotations, " ")
	}
	return arg.Description + " " + strings.Join(annotations, " ")
}

func formatDefault(value any) string {
	switch typed := value.(type) {
	case string:
		return strconv.Quote(typed)
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

func trimLineEnds(text string) string {
	lines := strings.Split(text, "\n")
	for index, line := range lines {
		lines[index] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}
