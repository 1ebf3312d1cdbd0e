// Package news serves headline items in a shuffled rotation. Every item is
// shown once per pass; the order is reshuffled when a pass completes.
package news

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// File is the news file name inside the data directory.
const File = "news.json"

var ErrInvalidNews = errors.New("invalid news file")

// Shuffler permutes n elements through swap.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Item is one headline.
type Item struct {
	Content string `json:"content"`
}

// Feed is not safe for concurrent use.
type Feed struct {
	items []Item
	next  int
	pass  int
	rng   Shuffler
}

// New creates a feed over contents and shuffles it once.
func New(contents []string, rng Shuffler) *Feed {
	items := make([]Item, len(contents))
	for i, c := range contents {
		items[i] = Item{Content: c}
	}
	f := &Feed{items: items, rng: rng}
	f.shuffle()
	return f
}

// Load reads {"news": [...]} from path.
func Load(path string, rng Shuffler) (*Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrInvalidNews, path, err)
	}
	f, err := Parse(data, rng)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("loaded and shuffled news", "path", path, "items", f.Len())
	return f, nil
}

// Parse decodes a news document.
func Parse(data []byte, rng Shuffler) (*Feed, error) {
	var doc struct {
		News *[]string `json:"news"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNews, err)
	}
	if doc.News == nil {
		return nil, fmt.Errorf("%w: missing news array", ErrInvalidNews)
	}
	return New(*doc.News, rng), nil
}

// Next returns the following item of the current pass. After the last item
// the feed reshuffles and starts over. ok is false for an empty feed.
func (f *Feed) Next() (Item, bool) {
	if len(f.items) == 0 {
		slog.Warn("news feed is empty")
		return Item{}, false
	}
	if f.next >= len(f.items) {
		f.shuffle()
		f.next = 0
		f.pass++
	}
	item := f.items[f.next]
	f.next++
	return item, true
}

func (f *Feed) Len() int { return len(f.items) }

// Pass counts completed reshuffles.
func (f *Feed) Pass() int { return f.pass }

func (f *Feed) shuffle() {
	if f.rng == nil || len(f.items) < 2 {
		return
	}
	f.rng.Shuffle(len(f.items), func(i, j int) {
		f.items[i], f.items[j] = f.items[j], f.items[i]
	})
}
