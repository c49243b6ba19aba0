package model

import "time"

// Summary is the condensed view of a SiteResult that the text and
// Markdown reports render. Every page warning becomes one Finding.
type Summary struct {
	StartURL     string    `json:"start_url"`
	DateAnalyzed time.Time `json:"date_analyzed"`

	HighCount   int `json:"high_count"`
	MediumCount int `json:"medium_count"`
	LowCount    int `json:"low_count"`
	InfoCount   int `json:"info_count"`

	Findings []Finding `json:"findings,omitempty"`

	PagesAnalyzed   int     `json:"pages_analyzed"`
	ErrorCount      int     `json:"error_count"`
	DuplicateGroups int     `json:"duplicate_groups"`
	TotalTime       float64 `json:"total_time"`
}

// Finding is one warning of one page.
type Finding struct {
	// URL is the page the warning was raised on.
	URL string `json:"url"`

	Category     WarningCategory `json:"category"`
	Severity     Severity        `json:"severity"`
	SeverityText string          `json:"severity_text"`

	// Warning is the message as the parser produced it.
	Warning string `json:"warning"`

	Recommendation string `json:"recommendation,omitempty"`
}

// NewSummary condenses result. Findings keep page order and, within a
// page, warning order.
func NewSummary(result *SiteResult, analyzedAt time.Time) *Summary {
	s := &Summary{
		StartURL:        result.StartURL,
		DateAnalyzed:    analyzedAt,
		PagesAnalyzed:   len(result.Pages),
		ErrorCount:      len(result.Errors),
		DuplicateGroups: len(result.DuplicatePages),
		TotalTime:       result.TotalTime,
	}

	for _, p := range result.Pages {
		if p == nil {
			continue
		}
		for _, w := range p.Warnings {
			s.addFinding(p.URL, w)
		}
	}

	s.countBySeverity()
	return s
}

func (s *Summary) addFinding(pageURL, warning string) {
	category := ClassifyWarning(warning)
	info := GetWarningInfo(category)
	s.Findings = append(s.Findings, Finding{
		URL:            pageURL,
		Category:       category,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Warning:        warning,
		Recommendation: info.Recommendation,
	})
}

func (s *Summary) countBySeverity() {
	for _, f := range s.Findings {
		switch f.Severity {
		case SeverityHigh:
			s.HighCount++
		case SeverityMedium:
			s.MediumCount++
		case SeverityLow:
			s.LowCount++
		case SeverityInfo:
			s.InfoCount++
		}
	}
}

// TotalFindings returns the total number of findings.
func (s *Summary) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings returns true if there are any findings.
func (s *Summary) HasFindings() bool {
	return len(s.Findings) > 0
}

// FindingsBySeverity returns findings filtered by severity.
func (s *Summary) FindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}

// CategoryCounts returns the number of findings per category.
func (s *Summary) CategoryCounts() map[WarningCategory]int {
	counts := make(map[WarningCategory]int)
	for _, f := range s.Findings {
		counts[f.Category]++
	}
	return counts
}
