// Package report renders site results.
//
// Writers implement the Writer interface:
//   - SimpleWriter: human-readable text for the terminal
//   - JSONWriter: the site result as JSON for tool integration
//   - MarkdownWriter: a Markdown document with tables, a warning chart and
//     GitHub alerts
//
// Report data lives in the model package; this package only formats it.
package report
