package media

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Optional distinguishes "not given" from a given zero or nil value.
type Optional[T any] struct {
	Valid bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Valid: true, Value: v}
}

// Filter constrains List. Zero fields do not constrain; all given fields must hold.
type Filter struct {
	// AlbumID matches exactly when Valid; a nil Value matches unfiled items.
	AlbumID    Optional[*int64]
	Type       MediaType
	Tags       []string
	IsHidden   *bool
	IsFavorite *bool
	MinSize    *int64
	MaxSize    *int64
	DateFrom   *time.Time
	DateTo     *time.Time
}

func (f Filter) Match(m *MediaItem) bool {
	if f.AlbumID.Valid {
		want := f.AlbumID.Value
		switch {
		case want == nil && m.AlbumID != nil:
			return false
		case want != nil && (m.AlbumID == nil || *m.AlbumID != *want):
			return false
		}
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, t := range f.Tags {
			if m.HasTag(t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.IsHidden != nil && m.IsHidden != *f.IsHidden {
		return false
	}
	if f.IsFavorite != nil && m.IsFavorite != *f.IsFavorite {
		return false
	}
	return matchRanges(m, f.MinSize, f.MaxSize, f.DateFrom, f.DateTo)
}

// SearchOptions are the secondary filters applied after the query match.
type SearchOptions struct {
	Type     MediaType
	DateFrom *time.Time
	// DateTo is inclusive of the whole day it falls on.
	DateTo  *time.Time
	MinSize *int64
	MaxSize *int64
}

func (o SearchOptions) Match(m *MediaItem) bool {
	if o.Type != "" && m.Type != o.Type {
		return false
	}
	return matchRanges(m, o.MinSize, o.MaxSize, o.DateFrom, o.DateTo)
}

func matchRanges(m *MediaItem, minSize, maxSize *int64, from, to *time.Time) bool {
	if minSize != nil && m.Size < *minSize {
		return false
	}
	if maxSize != nil && m.Size > *maxSize {
		return false
	}
	if from != nil && m.Date.Before(*from) {
		return false
	}
	if to != nil && m.Date.After(EndOfDay(*to)) {
		return false
	}
	return true
}

// EndOfDay is the last representable instant of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// MatchesQuery is a case-insensitive substring match on name, any tag, or the serialized exif.
func MatchesQuery(m *MediaItem, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(m.Name), q) {
		return true
	}
	for _, t := range m.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	if len(m.Exif) > 0 {
		raw, err := json.Marshal(m.Exif)
		if err == nil && strings.Contains(strings.ToLower(string(raw)), q) {
			return true
		}
	}
	return false
}

// SortByDateDesc is the read path's default order; ties fall back to id so results are stable.
func SortByDateDesc(items []*MediaItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].ID > items[j].ID
	})
}
