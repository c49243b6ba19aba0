package model

import (
	"fmt"
	"strings"
)

// Warning message formats produced by the page parser.
const (
	WarnMissingTitle       = "Missing title tag"
	WarnTitleTooShort      = "Title tag is too short (less than 10 characters): %s"
	WarnTitleTooLong       = "Title tag is too long (more than 70 characters): %s"
	WarnMissingDescription = "Missing description"
	WarnDescTooShort       = "Description is too short (less than 140 characters): %s"
	WarnDescTooLong        = "Description is too long (more than 255 characters): %s"
	WarnMissingOGTitle     = "Missing og:title"
	WarnMissingOGDesc      = "Missing og:description"
	WarnMissingOGImage     = "Missing og:image"
	WarnKeywordsTag        = "Keywords should be avoided as they are a spam indicator: %s"
	WarnAnchorNoTitle      = "Anchor missing title tag: %s"
	WarnAnchorGeneric      = "Anchor text is too generic: %s"
	WarnImageNoAlt         = "Image missing alt tag: %s"
	WarnMissingH1          = "Page must have at least one h1 tag"
)

// Warnf formats a warning message with its subject.
func Warnf(format, subject string) string {
	return fmt.Sprintf(format, subject)
}

// Severity ranks how much a warning hurts search visibility.
type Severity int

const (
	// SeverityInfo marks cosmetic findings.
	SeverityInfo Severity = iota
	// SeverityLow marks accessibility or minor ranking issues.
	SeverityLow
	// SeverityMedium marks issues that degrade snippets or sharing.
	SeverityMedium
	// SeverityHigh marks issues search engines penalize directly.
	SeverityHigh
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// WarningCategory groups warnings by the element they concern.
type WarningCategory string

// Warning categories.
const (
	CategoryTitle       WarningCategory = "title"
	CategoryDescription WarningCategory = "description"
	CategoryOpenGraph   WarningCategory = "open_graph"
	CategoryKeywords    WarningCategory = "keywords_meta"
	CategoryAnchor      WarningCategory = "anchor"
	CategoryImage       WarningCategory = "image"
	CategoryHeading     WarningCategory = "heading"
	CategoryOther       WarningCategory = "other"
)

// WarningInfo describes a warning category for reports.
type WarningInfo struct {
	Severity       Severity
	Recommendation string
}

var warningInfoMapping = map[WarningCategory]WarningInfo{
	CategoryTitle: {
		Severity:       SeverityHigh,
		Recommendation: "Give every page a unique title between 10 and 70 characters.",
	},
	CategoryDescription: {
		Severity:       SeverityMedium,
		Recommendation: "Write a meta description between 140 and 255 characters.",
	},
	CategoryOpenGraph: {
		Severity:       SeverityMedium,
		Recommendation: "Add og:title, og:description and og:image for link previews.",
	},
	CategoryKeywords: {
		Severity:       SeverityLow,
		Recommendation: "Remove the keywords meta tag.",
	},
	CategoryAnchor: {
		Severity:       SeverityLow,
		Recommendation: "Use descriptive anchor text and title attributes on links.",
	},
	CategoryImage: {
		Severity:       SeverityLow,
		Recommendation: "Describe every image with an alt attribute.",
	},
	CategoryHeading: {
		Severity:       SeverityHigh,
		Recommendation: "Add exactly one h1 describing the page topic.",
	},
}

// prefixes maps the fixed leading text of each warning to its category.
var prefixes = []struct {
	prefix   string
	category WarningCategory
}{
	{"Missing title tag", CategoryTitle},
	{"Title tag is", CategoryTitle},
	{"Missing description", CategoryDescription},
	{"Description is", CategoryDescription},
	{"Missing og:", CategoryOpenGraph},
	{"Keywords should be avoided", CategoryKeywords},
	{"Anchor ", CategoryAnchor},
	{"Image missing alt", CategoryImage},
	{"Page must have at least one h1", CategoryHeading},
}

// ClassifyWarning returns the category of a warning message.
func ClassifyWarning(w string) WarningCategory {
	for _, p := range prefixes {
		if strings.HasPrefix(w, p.prefix) {
			return p.category
		}
	}
	return CategoryOther
}

// GetWarningInfo returns the report metadata of a category.
func GetWarningInfo(c WarningCategory) WarningInfo {
	if info, ok := warningInfoMapping[c]; ok {
		return info
	}
	return WarningInfo{Severity: SeverityInfo, Recommendation: "Review manually."}
}
