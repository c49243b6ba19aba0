// Package pipeline runs the analysis of one or more sites.
//
// Every site goes through a short sequence of steps over a shared Run:
// a crawl (or a single request when link following is off and no sitemap
// is given), the aggregation into a model.SiteResult and, optionally, the
// archive write. Steps are small and independent so that the CLI can
// assemble them per site, and every step logs the same way.
//
// BatchProcessor analyzes several start URLs concurrently with a bounded
// errgroup.
package pipeline
