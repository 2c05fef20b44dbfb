package feed

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// ErrNoChannel is returned for payloads that carry no feed metadata at all.
var ErrNoChannel = errors.New("feed has no channel")

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS or Atom payload. Entries keep document order.
func (p *Parser) Run(data []byte) (*Metadata, []Entry, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoChannel, err)
	}

	metadata := &Metadata{
		Title:       strings.TrimSpace(parsed.Title),
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.normalizeEntry(item))
	}

	return metadata, entries, nil
}

func (p *Parser) normalizeEntry(item *gofeed.Item) Entry {
	entry := Entry{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: item.Description,
		Content:     item.Content,
	}

	switch {
	case item.UpdatedParsed != nil:
		t := item.UpdatedParsed.UTC()
		entry.UpdatedAt = &t
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		entry.UpdatedAt = &t
	}

	return entry
}
