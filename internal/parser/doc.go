// Package parser turns the raw markup of one page into a model.PageRecord.
//
// Parse decodes the bytes to UTF-8, drops HTML comments, and extracts the
// title, meta description, Open Graph tags, headings, internal links,
// images and the visible text. The text is tokenized twice: a raw stream
// feeds word counts and bigram/trigram counts, a stopword-filtered stream
// feeds the unigram keywords.
//
// Warnings are emitted in a fixed order so reports stay comparable between
// runs:
//
//	title length, description length, og:title, og:description, og:image,
//	keywords meta, anchors without title, generic anchor text,
//	images without alt, missing h1
//
// Parse never fails. Malformed markup yields a best-effort record.
package parser
