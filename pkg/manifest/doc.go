// Package manifest parses package repository manifests and expands their
// includes.
//
// A manifest is a JSON document with a schema_version (1.0, 1.1, 1.2 or
// 2.0), a packages array and optional includes and renamed_packages keys.
// [Parse] validates the root document; [Expander] fetches it through a
// [Fetcher], then fetches every include concurrently and appends their
// packages after the root's own, in include-list order.
//
// Includes are expanded one level deep. Relative references ("./x.json",
// "../x.json") resolve against the directory of the root URL.
package manifest
