// Package crawler provides the breadth-first site crawler.
//
// # Architecture
//
// The crawler package is designed around the Spider type, which coordinates
// the crawling process. A fixed number of workers pull WorkItems from one
// shared FIFO queue. The crawl ends when the queue is empty and no worker
// is processing an item; there is no global timeout besides the caller's
// context.
//
// # Components
//
//   - Spider: configuration and the worker loop
//   - frontier: the FIFO queue with its drain barrier
//   - crawlState: the visited set, collected pages and counters of one crawl
//   - sitemap: XML and plain text sitemap seeding
//
// # Visiting
//
// A URL is marked visited when a worker dequeues it, before it is fetched.
// Marking is one check-and-insert under a lock, so concurrent workers never
// fetch the same URL twice even when many pages link to it.
//
// # Politeness
//
// The crawler is designed to be polite:
//   - robots.txt is loaded once per crawl and checked before every fetch
//   - the robots.txt crawl delay spaces requests to the same origin
//   - a semaphore bounds requests in flight
//   - only links on the homepage's origin are followed
//
// # Usage
//
//	spider := crawler.NewSpider(fetcher, crawler.WithMaxDepth(3))
//	res, err := spider.Crawl(ctx, "https://example.com/", "")
package crawler
