package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/seoscan/internal/model"
)

// Length limits in characters. Values exactly at a limit pass.
const (
	MinTitleLength       = 10
	MaxTitleLength       = 70
	MinDescriptionLength = 140
	MaxDescriptionLength = 255
)

var genericAnchorTexts = map[string]bool{
	"click here": true,
	"page":       true,
	"article":    true,
}

var openGraphRequired = []struct {
	property string
	warning  string
}{
	{"og:title", model.WarnMissingOGTitle},
	{"og:description", model.WarnMissingOGDesc},
	{"og:image", model.WarnMissingOGImage},
}

// warnings returns the page's SEO warnings in their fixed order: title,
// description, Open Graph, keywords meta, anchor titles, generic anchor
// text, image alt text and h1 presence.
func warnings(doc *goquery.Document, page *model.PageRecord, anchors []anchor) []string {
	w := []string{}

	if msg := lengthWarning(page.Title, MinTitleLength, MaxTitleLength,
		model.WarnMissingTitle, model.WarnTitleTooShort, model.WarnTitleTooLong); msg != "" {
		w = append(w, msg)
	}
	if msg := lengthWarning(page.Description, MinDescriptionLength, MaxDescriptionLength,
		model.WarnMissingDescription, model.WarnDescTooShort, model.WarnDescTooLong); msg != "" {
		w = append(w, msg)
	}

	for _, og := range openGraphRequired {
		if !hasMetaProperty(doc, og.property) {
			w = append(w, og.warning)
		}
	}

	if kw := metaContent(doc, "name", "keywords"); kw != "" {
		w = append(w, model.Warnf(model.WarnKeywordsTag, kw))
	}

	for _, a := range anchors {
		if a.internal && a.title == "" {
			w = append(w, model.Warnf(model.WarnAnchorNoTitle, a.href))
		}
	}
	for _, a := range anchors {
		if genericAnchorTexts[a.text] {
			w = append(w, model.Warnf(model.WarnAnchorGeneric, a.href))
		}
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if s.AttrOr("alt", "") != "" {
			return
		}
		src := s.AttrOr("src", "")
		if src == "" {
			src = s.AttrOr("data-src", "")
		}
		w = append(w, model.Warnf(model.WarnImageNoAlt, src))
	})

	if doc.Find("h1").Length() == 0 {
		w = append(w, model.WarnMissingH1)
	}

	return w
}

// lengthWarning checks s against [minLen, maxLen]. The three outcomes are
// mutually exclusive and checked in order: missing, too short, too long.
func lengthWarning(s string, minLen, maxLen int, missing, short, long string) string {
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return missing
	case n < minLen:
		return model.Warnf(short, s)
	case n > maxLen:
		return model.Warnf(long, s)
	default:
		return ""
	}
}

func hasMetaProperty(doc *goquery.Document, property string) bool {
	found := false
	doc.Find("meta[property]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(s.AttrOr("property", "")), property) {
			found = true
			return false
		}
		return true
	})
	return found
}
