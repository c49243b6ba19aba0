// Package model defines the data structures shared by the crawler, the page
// parser, the aggregator and the report writers.
//
// This package contains the following main types:
//   - PageRecord: the analysis of one fetched page
//   - SiteResult: the aggregate of a whole run
//   - WorkItem: a URL queued for crawling at some depth
//   - CrawlMetrics: counters describing a crawl
//
// Models live in their own package so that crawler, aggregate, report and
// database can share them without import cycles. All of them serialize to the
// JSON shape used by reports and the archive.
package model
