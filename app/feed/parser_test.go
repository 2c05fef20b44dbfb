package feed

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <language>en-us</language>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <description>Test Item 1 Description</description>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
      <description>Test Item 2 Description</description>
      <pubDate>Mon, 03 Jul 2023 11:00:00 +0200</pubDate>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	metadata, entries, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", metadata.Title)
	}
	if metadata.Language != "en-us" {
		t.Errorf("Expected language 'en-us', got: %s", metadata.Language)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(entries))
	}

	first := entries[0]
	if first.Title != "Test Item 1" {
		t.Errorf("Expected title 'Test Item 1', got: %s", first.Title)
	}
	if first.GUID != "item-1" {
		t.Errorf("Expected GUID 'item-1', got: %s", first.GUID)
	}
	if !first.HasTimestamp() {
		t.Fatal("Expected pubDate to be used as the entry timestamp")
	}
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !first.UpdatedAt.Equal(expected) {
		t.Errorf("Expected timestamp %v, got: %v", expected, first.UpdatedAt)
	}

	second := entries[1]
	if second.GUID != "https://example.com/item2" {
		t.Errorf("Expected GUID to fall back to link, got: %s", second.GUID)
	}
	if second.UpdatedAt.Location() != time.UTC {
		t.Errorf("Expected timestamp converted to UTC, got location %v", second.UpdatedAt.Location())
	}
	if second.UpdatedAt.Hour() != 9 {
		t.Errorf("Expected 09:00 UTC, got: %v", second.UpdatedAt)
	}
}

func TestParseAtomPrefersUpdated(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <link href="https://example.com"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <id>urn:uuid:1234567890</id>
  <entry>
    <title>Test Entry</title>
    <link href="https://example.com/entry1"/>
    <id>urn:uuid:entry-1</id>
    <published>2023-07-01T10:00:00Z</published>
    <updated>2023-07-03T10:00:00Z</updated>
    <summary>Short</summary>
    <content type="html">Much longer content</content>
  </entry>
</feed>`

	parser := NewParser()
	metadata, entries, err := parser.Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Title != "Test Atom Feed" {
		t.Errorf("Expected title 'Test Atom Feed', got: %s", metadata.Title)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(entries))
	}

	entry := entries[0]
	if entry.Link != "https://example.com/entry1" {
		t.Errorf("Expected link 'https://example.com/entry1', got: %s", entry.Link)
	}
	if entry.Content != "Much longer content" {
		t.Errorf("Expected content to be parsed, got: %s", entry.Content)
	}
	if !entry.UpdatedAt.Equal(time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected updated date to win over published, got: %v", entry.UpdatedAt)
	}
}

func TestParseEntryWithMissingFields(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Sparse</title>
    <item>
      <description>No title, link or date</description>
    </item>
  </channel>
</rss>`

	_, entries, err := NewParser().Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(entries))
	}

	entry := entries[0]
	if entry.HasTitle() || entry.HasLink() || entry.HasTimestamp() {
		t.Errorf("Expected title, link and timestamp to be absent, got: %+v", entry)
	}
}

func TestParseInvalidFeed(t *testing.T) {
	parser := NewParser()
	_, _, err := parser.Run([]byte("invalid xml"))

	if err == nil {
		t.Fatal("Expected error for invalid XML")
	}
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("Expected ErrNoChannel, got: %v", err)
	}
}

func TestBodyPrefersLongerContent(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		contains string
	}{
		{
			name:     "content longer than description",
			entry:    Entry{Description: "short", Content: "a much longer body", Link: "https://example.com/a"},
			contains: "a much longer body",
		},
		{
			name:     "description longer than content",
			entry:    Entry{Description: "the longer description", Content: "tiny", Link: "https://example.com/b"},
			contains: "the longer description",
		},
		{
			name:     "no content",
			entry:    Entry{Description: "only description", Link: "https://example.com/c"},
			contains: "only description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := Body(tt.entry)
			if !strings.HasPrefix(body, tt.contains) {
				t.Errorf("Expected body to start with %q, got: %q", tt.contains, body)
			}
			suffix := "\n\n<a href=\"" + tt.entry.Link + "\">Continue reading</a>"
			if !strings.HasSuffix(body, suffix) {
				t.Errorf("Expected body to end with link suffix, got: %q", body)
			}
		})
	}
}
