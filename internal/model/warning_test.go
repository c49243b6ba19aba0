package model

import "testing"

func TestClassifyWarning(t *testing.T) {
	t.Parallel()

	tests := []struct {
		warning string
		want    WarningCategory
	}{
		{WarnMissingTitle, CategoryTitle},
		{Warnf(WarnTitleTooShort, "Home"), CategoryTitle},
		{Warnf(WarnTitleTooLong, "x"), CategoryTitle},
		{WarnMissingDescription, CategoryDescription},
		{Warnf(WarnDescTooShort, "Desc"), CategoryDescription},
		{WarnMissingOGImage, CategoryOpenGraph},
		{Warnf(WarnKeywordsTag, "a,b"), CategoryKeywords},
		{Warnf(WarnAnchorNoTitle, "/about"), CategoryAnchor},
		{Warnf(WarnAnchorGeneric, "/more"), CategoryAnchor},
		{Warnf(WarnImageNoAlt, "/x.png"), CategoryImage},
		{WarnMissingH1, CategoryHeading},
		{"something else", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.warning, func(t *testing.T) {
			t.Parallel()

			if got := ClassifyWarning(tt.warning); got != tt.want {
				t.Errorf("ClassifyWarning(%q) = %q, want %q", tt.warning, got, tt.want)
			}
		})
	}
}

func TestSeverityString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		s    Severity
		want string
	}{
		{SeverityInfo, "INFO"},
		{SeverityLow, "LOW"},
		{SeverityMedium, "MEDIUM"},
		{SeverityHigh, "HIGH"},
		{Severity(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestGetWarningInfo(t *testing.T) {
	t.Parallel()

	if got := GetWarningInfo(CategoryTitle).Severity; got != SeverityHigh {
		t.Errorf("title severity = %v, want HIGH", got)
	}
	if got := GetWarningInfo(CategoryOther).Severity; got != SeverityInfo {
		t.Errorf("unknown severity = %v, want INFO", got)
	}
}
