// Package catalog provides the media file registry backing a crop batch.
// Files are probed for dimensions and kind on add, and grouped by exact
// dimension match: absolute cropping applies only within the group
// matching the reference item.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// Kind classifies a media file.
type Kind int

// Media kinds.
const (
	KindUnknown Kind = iota
	KindImage
	KindVideo
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// MediaItem is a registered media file with its probed properties.
type MediaItem struct {
	// Path is the absolute or working-directory-relative file path.
	Path string
	// Width and Height are the probed pixel dimensions.
	Width  int
	Height int
	// Kind is the probed media kind.
	Kind Kind
}

// SameSize reports whether two items have identical pixel dimensions.
func (m MediaItem) SameSize(other MediaItem) bool {
	return m.Width == other.Width && m.Height == other.Height
}

// Catalog is the registry of candidate files for a batch. It is owned by
// the interactive thread; the executor only ever receives item copies.
type Catalog struct {
	prober *Prober
	logger *slog.Logger

	items []MediaItem
	index map[string]int
}

// New creates an empty catalog using the given prober.
func New(prober *Prober, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		prober: prober,
		logger: logger,
		index:  make(map[string]int),
	}
}

// Add probes and registers the given paths, skipping duplicates and
// unreadable files. It returns the number of items added and the number
// skipped as unreadable; unreadable files are logged, never fatal.
func (c *Catalog) Add(ctx context.Context, paths ...string) (added, unreadable int) {
	for _, path := range paths {
		if _, ok := c.index[path]; ok {
			continue
		}

		item, err := c.prober.Probe(ctx, path)
		if err != nil {
			unreadable++
			c.logger.Warn("skipping unreadable file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}

		c.index[path] = len(c.items)
		c.items = append(c.items, item)
		added++

		c.logger.Debug("added media item",
			slog.String("path", path),
			slog.Int("width", item.Width),
			slog.Int("height", item.Height),
			slog.String("kind", item.Kind.String()),
		)
	}
	return added, unreadable
}

// Remove deletes the item with the given path. It reports whether the
// item was present.
func (c *Catalog) Remove(path string) bool {
	i, ok := c.index[path]
	if !ok {
		return false
	}

	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, path)
	for p, j := range c.index {
		if j > i {
			c.index[p] = j - 1
		}
	}
	return true
}

// Clear removes all items.
func (c *Catalog) Clear() {
	c.items = nil
	c.index = make(map[string]int)
}

// Len returns the number of registered items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns a copy of all registered items in insertion order.
func (c *Catalog) Items() []MediaItem {
	out := make([]MediaItem, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the item registered under path.
func (c *Catalog) Get(path string) (MediaItem, bool) {
	i, ok := c.index[path]
	if !ok {
		return MediaItem{}, false
	}
	return c.items[i], true
}

// SameSizeAs returns all items whose dimensions exactly match the
// reference item, including the reference itself if registered.
func (c *Catalog) SameSizeAs(ref MediaItem) []MediaItem {
	var out []MediaItem
	for _, item := range c.items {
		if item.SameSize(ref) {
			out = append(out, item)
		}
	}
	return out
}

// SizeGroups partitions the items by exact dimensions, keyed "WxH". Used
// to warn the operator when a batch mixes sizes.
func (c *Catalog) SizeGroups() map[string][]MediaItem {
	groups := make(map[string][]MediaItem)
	for _, item := range c.items {
		key := fmt.Sprintf("%dx%d", item.Width, item.Height)
		groups[key] = append(groups[key], item)
	}
	return groups
}

// Prober returns the underlying prober, for duration and frame queries.
func (c *Catalog) Prober() *Prober {
	return c.prober
}
