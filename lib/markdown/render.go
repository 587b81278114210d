// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package markdown

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Options control [Render].
type Options struct {
	// Width is the column paragraphs are wrapped at. Values below 20
	// are raised to 20.
	Width int

	// Styled enables lipgloss styling and chroma highlighting.
	Styled bool

	// Renderer is the lipgloss renderer styles are created from when
	// Styled is set. nil means a renderer forced to 256 colors.
	Renderer *lipgloss.Renderer

	// Palette overrides [DefaultPalette].
	Palette *Palette
}

// Palette holds the colors used when output is styled.
type Palette struct {
	Heading lipgloss.Color
	Text    lipgloss.Color
	Faint   lipgloss.Color
	Rule    lipgloss.Color
}

// DefaultPalette uses ANSI 256-color codes for broad terminal support.
var DefaultPalette = Palette{
	Heading: lipgloss.Color("39"),
	Text:    lipgloss.Color("252"),
	Faint:   lipgloss.Color("245"),
	Rule:    lipgloss.Color("240"),
}

var (
	parserInstance goldmark.Markdown
	parserOnce     sync.Once
)

func parser() goldmark.Markdown {
	parserOnce.Do(func() {
		parserInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return parserInstance
}

// Render converts Markdown source to terminal text. The result has no
// trailing newline.
func Render(input string, options Options) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if options.Width < 20 {
		options.Width = 20
	}
	palette := DefaultPalette
	if options.Palette != nil {
		palette = *options.Palette
	}

	lipRenderer := options.Renderer
	if options.Styled && lipRenderer == nil {
		lipRenderer = lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.ANSI256))
		lipRenderer.SetColorProfile(termenv.ANSI256)
	}

	source := []byte(input)
	document := parser().Parser().Parse(text.NewReader(source))

	w := &walker{
		source:      source,
		width:       options.Width,
		styled:      options.Styled,
		palette:     palette,
		lipRenderer: lipRenderer,
	}
	_ = ast.Walk(document, w.walk)

	return strings.TrimRight(w.output.String(), "\n")
}

// walker accumulates inline content per block and wraps it when the
// block closes, so hard-wrapped source paragraphs reflow at any width.
type walker struct {
	source  []byte
	width   int
	styled  bool
	palette Palette

	lipRenderer *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	// prefix is the concatenation of the active blockquote and list
	// continuation prefixes; prefixes records each level's length.
	prefix   string
	prefixes []int

	// bullet replaces prefix for the next emitted line only.
	bullet string

	bold   int
	italic int
	strike int

	lists []listLevel

	trailingNewlines int
}

type listLevel struct {
	ordered bool
	counter int
	tight   bool
}

func (w *walker) style(content string, configure func(lipgloss.Style) lipgloss.Style) string {
	if !w.styled || content == "" {
		return content
	}
	return configure(w.lipRenderer.NewStyle()).Render(content)
}

func (w *walker) faint(content string) string {
	return w.style(content, func(s lipgloss.Style) lipgloss.Style {
		return s.Foreground(w.palette.Faint)
	})
}

func (w *walker) contentWidth() int {
	return max(w.width-ansi.StringWidth(w.prefix), 10)
}

func (w *walker) pushPrefix(prefix string) {
	w.prefix += prefix
	w.prefixes = append(w.prefixes, len(prefix))
}

func (w *walker) popPrefix() {
	if len(w.prefixes) == 0 {
		return
	}
	last := w.prefixes[len(w.prefixes)-1]
	w.prefixes = w.prefixes[:len(w.prefixes)-1]
	w.prefix = w.prefix[:len(w.prefix)-last]
}

func (w *walker) tightList() bool {
	return len(w.lists) > 0 && w.lists[len(w.lists)-1].tight
}

func (w *walker) write(s string) {
	if s == "" {
		return
	}
	w.output.WriteString(s)
	trailing := len(s) - len(strings.TrimRight(s, "\n"))
	if trailing == len(s) {
		w.trailingNewlines += trailing
	} else {
		w.trailingNewlines = trailing
	}
}

func (w *walker) newline() {
	if w.trailingNewlines < 1 {
		w.write("\n")
	}
}

// blankLine separates blocks. Nothing is written before the first
// block.
func (w *walker) blankLine() {
	if w.output.Len() == 0 {
		return
	}
	for w.trailingNewlines < 2 {
		w.write("\n")
	}
}

func (w *walker) linePrefix() string {
	if w.bullet != "" {
		bullet := w.bullet
		w.bullet = ""
		return bullet
	}
	return w.prefix
}

func (w *walker) prefixLines(content string) string {
	lines := strings.Split(content, "\n")
	for index, line := range lines {
		if index == 0 {
			lines[index] = w.linePrefix() + line
		} else {
			lines[index] = w.prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func (w *walker) flushInline() string {
	content := w.inline.String()
	w.inline.Reset()
	if strings.TrimSpace(ansi.Strip(content)) == "" {
		return ""
	}
	return w.prefixLines(ansi.Wrap(strings.TrimRight(content, " "), w.contentWidth(), " ,.;-+|"))
}

func (w *walker) inlineText(content string) string {
	if !w.styled {
		return content
	}
	return w.style(content, func(s lipgloss.Style) lipgloss.Style {
		s = s.Foreground(w.palette.Text)
		if w.bold > 0 {
			s = s.Bold(true)
		}
		if w.italic > 0 {
			s = s.Italic(true)
		}
		if w.strike > 0 {
			s = s.Strikethrough(true)
		}
		return s
	})
}

// inlineContent renders node's children into a string without
// disturbing the enclosing block's inline buffer.
func (w *walker) inlineContent(node ast.Node) string {
	saved := w.inline.String()
	w.inline.Reset()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		_ = ast.Walk(child, w.walk)
	}
	result := w.inline.String()
	w.inline.Reset()
	w.inline.WriteString(saved)
	return result
}

func (w *walker) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			w.inline.Reset()
			return ast.WalkContinue, nil
		}
		if flushed := w.flushInline(); flushed != "" {
			if !w.tightList() {
				w.blankLine()
			}
			w.write(flushed)
			w.newline()
		}

	case ast.KindHeading:
		if entering {
			w.inline.Reset()
			return ast.WalkContinue, nil
		}
		w.heading()

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			w.code(w.lines(block.Lines()), string(block.Language(w.source)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			w.code(w.lines(node.Lines()), "")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			w.blankLine()
			w.pushPrefix("│ ")
		} else {
			w.popPrefix()
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			if w.tightList() {
				w.newline()
			} else {
				w.blankLine()
			}
			w.lists = append(w.lists, listLevel{ordered: list.IsOrdered(), counter: list.Start, tight: list.IsTight})
		} else {
			w.lists = w.lists[:len(w.lists)-1]
		}

	case ast.KindListItem:
		if entering {
			w.enterItem()
		} else {
			w.popPrefix()
			w.newline()
		}

	case ast.KindThematicBreak:
		if entering {
			w.blankLine()
			rule := w.style(strings.Repeat("─", w.contentWidth()), func(s lipgloss.Style) lipgloss.Style {
				return s.Foreground(w.palette.Rule)
			})
			w.write(w.prefixLines(rule))
			w.newline()
		}

	case ast.KindHTMLBlock:
		if entering {
			if stripped := strings.TrimSpace(stripTags(w.lines(node.Lines()))); stripped != "" {
				w.blankLine()
				w.write(w.prefixLines(w.faint(stripped)))
				w.newline()
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			w.inline.WriteString(w.inlineText(string(textNode.Segment.Value(w.source))))
			if textNode.SoftLineBreak() {
				w.inline.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				w.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			w.inline.WriteString(w.inlineText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		counter := &w.italic
		if node.(*ast.Emphasis).Level >= 2 {
			counter = &w.bold
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				switch typed := child.(type) {
				case *ast.Text:
					code.Write(typed.Segment.Value(w.source))
				case *ast.String:
					code.Write(typed.Value)
				}
			}
			w.inline.WriteString(w.faint(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			link := node.(*ast.Link)
			w.inline.WriteString(w.inlineContent(link))
			if destination := string(link.Destination); destination != "" {
				w.inline.WriteString(" " + w.faint("("+destination+")"))
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			w.inline.WriteString(w.faint(string(node.(*ast.AutoLink).URL(w.source))))
		}

	case ast.KindImage:
		if entering {
			image := node.(*ast.Image)
			w.inline.WriteString(w.faint("[" + w.inlineContent(image) + "]"))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindRawHTML:
		if entering {
			raw := node.(*ast.RawHTML)
			var html strings.Builder
			for index := 0; index < raw.Segments.Len(); index++ {
				segment := raw.Segments.At(index)
				html.Write(segment.Value(w.source))
			}
			w.inline.WriteString(w.faint(stripTags(html.String())))
		}

	case extast.KindStrikethrough:
		if entering {
			w.strike++
		} else {
			w.strike--
		}

	case extast.KindTaskCheckBox:
		if entering {
			if node.(*extast.TaskCheckBox).IsChecked {
				w.inline.WriteString("[x] ")
			} else {
				w.inline.WriteString("[ ] ")
			}
		}

	case extast.KindTable:
		if entering {
			w.table(node)
			return ast.WalkSkipChildren, nil
		}
	}

	return ast.WalkContinue, nil
}

func (w *walker) heading() {
	content := ansi.Strip(w.inline.String())
	w.inline.Reset()
	if content == "" {
		return
	}
	styled := w.style(content, func(s lipgloss.Style) lipgloss.Style {
		return s.Bold(true).Foreground(w.palette.Heading)
	})
	w.blankLine()
	w.write(w.prefixLines(ansi.Wrap(styled, w.contentWidth(), " ,.;-+|")))
	w.newline()
}

func (w *walker) lines(segments *text.Segments) string {
	var content strings.Builder
	for index := 0; index < segments.Len(); index++ {
		segment := segments.At(index)
		content.Write(segment.Value(w.source))
	}
	return content.String()
}

func (w *walker) code(code, language string) {
	highlighted := w.faint(code)
	if w.styled && language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err == nil {
			highlighted = buffer.String()
		}
	}
	w.blankLine()
	for _, line := range strings.Split(strings.TrimRight(highlighted, "\n"), "\n") {
		w.write(w.linePrefix() + "    " + line)
		w.write("\n")
	}
}

func (w *walker) enterItem() {
	if len(w.lists) == 0 {
		return
	}
	level := &w.lists[len(w.lists)-1]
	bullet := "- "
	if level.ordered {
		bullet = fmt.Sprintf("%d. ", level.counter)
		level.counter++
	}
	if !level.tight {
		w.blankLine()
	}
	w.bullet = w.prefix + bullet
	w.pushPrefix(strings.Repeat(" ", len(bullet)))
}

// table renders a GFM table as padded columns.
func (w *walker) table(node ast.Node) {
	var rows [][]string
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(w.inlineContent(cell)))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return
	}

	widths := make([]int, 0)
	for _, row := range rows {
		for index, cell := range row {
			if index >= len(widths) {
				widths = append(widths, 0)
			}
			widths[index] = max(widths[index], lipgloss.Width(cell))
		}
	}

	w.blankLine()
	for rowIndex, row := range rows {
		var line strings.Builder
		for index, cell := range row {
			if index > 0 {
				line.WriteString("  ")
			}
			line.WriteString(cell)
			if index < len(row)-1 {
				line.WriteString(strings.Repeat(" ", widths[index]-lipgloss.Width(cell)))
			}
		}
		w.write(w.linePrefix() + line.String())
		w.write("\n")
		if rowIndex == 0 {
			var rule []string
			for _, width := range widths {
				rule = append(rule, strings.Repeat("─", width))
			}
			w.write(w.prefix + strings.Join(rule, "  ") + "\n")
		}
	}
}

// stripTags removes HTML tags, keeping the text between them.
func stripTags(html string) string {
	var result strings.Builder
	inTag := false
	for _, character := range html {
		switch {
		case character == '<':
			inTag = true
		case character == '>':
			inTag = false
		case !inTag:
			result.WriteRune(character)
		}
	}
	return result.String()
}
