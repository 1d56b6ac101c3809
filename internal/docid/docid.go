// Package docid handles Google document identifiers. A caller may supply
// either a bare document ID or a full docs.google.com viewing URL; both
// resolve to the same canonical identifier, which doubles as the cache key.
//
// This is a leaf package with zero dependencies beyond stdlib.
package docid

import "strings"

// docsHost identifies viewing URLs the extractor understands.
const docsHost = "docs.google.com"

// editURLPrefix and editURLSuffix form the canonical viewing URL recorded
// in cache sidecars.
const (
	editURLPrefix = "https://docs.google.com/document/d/"
	editURLSuffix = "/edit"
)

// Extract returns the document ID embedded in a docs.google.com URL
// (the path segment after "/d/"), or the input unchanged when it is
// already a bare identifier. Extraction is deterministic: the same ID is
// recovered regardless of which form the caller supplied.
func Extract(raw string) string {
	if !strings.Contains(raw, docsHost) {
		return raw
	}

	_, rest, found := strings.Cut(raw, "/d/")
	if !found {
		return raw
	}

	id, _, _ := strings.Cut(rest, "/")

	return id
}

// CanonicalURL returns the canonical viewing URL for a document ID.
func CanonicalURL(id string) string {
	return editURLPrefix + id + editURLSuffix
}

// Valid reports whether id is usable as a cache key. Document IDs are
// opaque URL-safe strings; anything empty or containing a path separator
// would escape the cache directory.
func Valid(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}

	return !strings.ContainsAny(id, `/\`)
}
