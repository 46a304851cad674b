package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/pkg/logger"
)

const (
	DefaultLargeFileThreshold int64 = 10 * 1024 * 1024
	DefaultLongVideoSeconds         = 60.0
	DefaultRecentDays               = 7
)

type SearchUseCase struct {
	mediaRepo media.Repository
	logger    logger.Logger
	now       func() time.Time
}

func NewSearchUseCase(mr media.Repository, log logger.Logger) *SearchUseCase {
	return &SearchUseCase{mediaRepo: mr, logger: log, now: time.Now}
}

// Filters narrow a search. Hidden items are left out unless IsHidden is set or IncludeHidden is true.
type Filters struct {
	media.Filter
	IncludeHidden bool
}

func (f Filters) effective() media.Filter {
	out := f.Filter
	if out.IsHidden == nil && !f.IncludeHidden {
		visible := false
		out.IsHidden = &visible
	}
	return out
}

// Search matches query against names, tags and exif. A blank query lists by filters alone.
func (uc *SearchUseCase) Search(ctx context.Context, query string, filters Filters) ([]*media.MediaItem, error) {
	f := filters.effective()
	query = strings.TrimSpace(query)
	if query == "" {
		return uc.mediaRepo.List(ctx, f)
	}

	uc.logger.Debug("Searching media", zap.String("query", query))
	found, err := uc.mediaRepo.Search(ctx, query, media.SearchOptions{
		Type:     f.Type,
		DateFrom: f.DateFrom,
		DateTo:   f.DateTo,
		MinSize:  f.MinSize,
		MaxSize:  f.MaxSize,
	})
	if err != nil {
		return nil, err
	}
	out := found[:0]
	for _, m := range found {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (uc *SearchUseCase) Screenshots(ctx context.Context) ([]*media.MediaItem, error) {
	images, err := uc.mediaRepo.List(ctx, media.Filter{Type: media.TypeImage})
	if err != nil {
		return nil, err
	}
	out := images[:0]
	for _, m := range images {
		name := strings.ToLower(m.Name)
		if strings.Contains(name, "screenshot") || strings.Contains(name, "screen") || strings.HasPrefix(name, "scr_") {
			out = append(out, m)
		}
	}
	return out, nil
}

// LargeFiles returns items of at least threshold bytes, largest first.
func (uc *SearchUseCase) LargeFiles(ctx context.Context, threshold int64) ([]*media.MediaItem, error) {
	if threshold <= 0 {
		threshold = DefaultLargeFileThreshold
	}
	return uc.mediaRepo.ListLarge(ctx, threshold)
}

// LongVideos returns videos of at least seconds, longest first. Videos without a known
// duration are left out.
func (uc *SearchUseCase) LongVideos(ctx context.Context, seconds float64) ([]*media.MediaItem, error) {
	if seconds <= 0 {
		seconds = DefaultLongVideoSeconds
	}
	videos, err := uc.mediaRepo.List(ctx, media.Filter{Type: media.TypeVideo})
	if err != nil {
		return nil, err
	}
	out := videos[:0]
	for _, m := range videos {
		if m.Duration != nil && *m.Duration >= seconds {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Duration > *out[j].Duration })
	return out, nil
}

func (uc *SearchUseCase) Recent(ctx context.Context, days int) ([]*media.MediaItem, error) {
	if days <= 0 {
		days = DefaultRecentDays
	}
	return uc.mediaRepo.ListSince(ctx, uc.now().AddDate(0, 0, -days))
}

// DateGroups buckets items relative to a reference day. Order inside a bucket is kept.
type DateGroups struct {
	Today     []*media.MediaItem `json:"today"`
	Yesterday []*media.MediaItem `json:"yesterday"`
	ThisWeek  []*media.MediaItem `json:"thisWeek"`
	ThisMonth []*media.MediaItem `json:"thisMonth"`
	Older     []*media.MediaItem `json:"older"`
}

// GroupByDate uses calendar days in now's location. ThisWeek is the seven days before today.
func GroupByDate(items []*media.MediaItem, now time.Time) DateGroups {
	loc := now.Location()
	y, mo, d := now.Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, loc)
	yesterday := today.AddDate(0, 0, -1)
	weekAgo := today.AddDate(0, 0, -7)
	monthStart := time.Date(y, mo, 1, 0, 0, 0, 0, loc)

	groups := DateGroups{
		Today:     []*media.MediaItem{},
		Yesterday: []*media.MediaItem{},
		ThisWeek:  []*media.MediaItem{},
		ThisMonth: []*media.MediaItem{},
		Older:     []*media.MediaItem{},
	}
	for _, m := range items {
		local := m.Date.In(loc)
		iy, im, id := local.Date()
		day := time.Date(iy, im, id, 0, 0, 0, 0, loc)
		switch {
		case day.Equal(today):
			groups.Today = append(groups.Today, m)
		case day.Equal(yesterday):
			groups.Yesterday = append(groups.Yesterday, m)
		case !local.Before(weekAgo):
			groups.ThisWeek = append(groups.ThisWeek, m)
		case !local.Before(monthStart):
			groups.ThisMonth = append(groups.ThisMonth, m)
		default:
			groups.Older = append(groups.Older, m)
		}
	}
	return groups
}

func (uc *SearchUseCase) GroupByDate(items []*media.MediaItem) DateGroups {
	return GroupByDate(items, uc.now())
}

// FindDuplicates groups items sharing both size and name. Only groups of two or more are
// returned, in the order their first member appears.
func (uc *SearchUseCase) FindDuplicates(ctx context.Context) ([][]*media.MediaItem, error) {
	all, err := uc.mediaRepo.List(ctx, media.Filter{})
	if err != nil {
		return nil, err
	}

	type key struct {
		size int64
		name string
	}
	groups := make(map[key][]*media.MediaItem)
	var order []key
	for _, m := range all {
		k := key{m.Size, m.Name}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], m)
	}

	var dups [][]*media.MediaItem
	for _, k := range order {
		if len(groups[k]) > 1 {
			dups = append(dups, groups[k])
		}
	}
	return dups, nil
}
