// Package cache provides optional caching of extracted file content.
//
// Archives do not cache by default: every read goes to the data blob.
// A Cache passed to the archive with WithCache serves repeated reads of the
// same byte range from memory. Keys identify the data source as well as the
// range, so one cache can be shared by several archives.
package cache
