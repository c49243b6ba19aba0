package parser

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/nao1215/seoscan/internal/model"
)

// backfillMetadata fills Author, Sitename and Date from a readability
// extraction when the page's meta tags left them empty. Extraction
// failures leave the fields as they are.
func backfillMetadata(page *model.PageRecord, markup []byte) {
	if page.Author != "" && page.Sitename != "" && page.Date != "" {
		return
	}
	if len(bytes.TrimSpace(markup)) == 0 {
		return
	}
	u, err := url.Parse(page.URL)
	if err != nil {
		return
	}

	article, err := readability.FromReader(bytes.NewReader(markup), u)
	if err != nil {
		return
	}

	if page.Author == "" {
		page.Author = strings.TrimSpace(article.Byline)
	}
	if page.Sitename == "" {
		page.Sitename = strings.TrimSpace(article.SiteName)
	}
	if page.Date == "" && article.PublishedTime != nil {
		page.Date = article.PublishedTime.UTC().Format(time.RFC3339)
	}
}
