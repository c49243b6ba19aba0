// Package database provides the SQLite archive of finished seoscan runs.
//
// The archive stores one row per analyzed site and run, with the full
// result as JSON, plus one row per page for cheap comparisons between
// runs. It is opt-in and write-only from the crawler's point of view:
// crawling never consults it.
//
// modernc.org/sqlite is a CGO-free driver, so the binary still
// cross-compiles, and the archive is a single file in the XDG data
// directory.
package database
