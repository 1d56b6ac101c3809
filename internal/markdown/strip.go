// Package markdown post-processes exported document bodies.
package markdown

import "regexp"

// imagePatterns matches the three Markdown image forms removed from
// exports. Google Docs embeds images as reference definitions carrying the
// full image payload as a base64 data URI, which bloats the cached file
// without adding anything a text consumer can use.
var imagePatterns = regexp.MustCompile(
	`!\[[^\]]*\]\([^)]+\)\n*` + // inline: ![alt](url)
		`|!\[[^\]]*\]\[[^\]]+\]\n*` + // reference use: ![alt][ref]
		`|\[[^\]]+\]:\s*<[^>]+>\n*`, // reference definition: [ref]: <data:...>
)

// StripImages removes embedded image references from a Markdown body:
// inline images, reference-style image uses, and their corresponding
// reference-definition lines. Running it on already-stripped content is a
// no-op.
func StripImages(body string) string {
	return imagePatterns.ReplaceAllString(body, "")
}
