// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package markdown renders Markdown for terminal help output.
//
// Workflow notes are authored as Markdown and printed at the end of a
// workflow's help. [Render] parses the text with goldmark and walks the
// AST directly, reflowing paragraphs to the requested width (soft line
// breaks become spaces), keeping code blocks verbatim, and prefixing
// list items and blockquotes.
//
// Styling is optional. When [Options.Styled] is false the output is
// plain text with no escape sequences, which is what help written to a
// pipe or a file needs. When it is true, headings and emphasis are
// styled with lipgloss and fenced code blocks with a language tag are
// syntax-highlighted with chroma.
package markdown
