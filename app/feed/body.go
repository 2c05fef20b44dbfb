package feed

import (
	"fmt"
	"html"
)

const continueReadingFormat = "%s\n\n<a href=\"%s\">Continue reading</a>"

// Body picks the richer of the entry's content and description and appends
// a link back to the original post.
func Body(entry Entry) string {
	text := entry.Description
	if len(entry.Content) > len(entry.Description) {
		text = entry.Content
	}

	return fmt.Sprintf(continueReadingFormat, text, html.EscapeString(entry.Link))
}
