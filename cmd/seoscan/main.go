// Package main provides the entry point for the seoscan CLI.
//
// seoscan crawls a website from its start URL and reports on-page SEO
// problems, duplicate content and the most frequent keywords.
//
// Usage:
//
//	seoscan analyze https://example.com/
//	seoscan analyze --sitemap https://example.com/sitemap.xml https://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
