// Package analytics derives the dashboard report from a user's video rows.
package analytics

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/invisireel/backend/internal/models"
)

// ErrInvalidRange is returned for an unknown range parameter.
var ErrInvalidRange = errors.New("range must be one of 7d, 30d, 90d, 1y")

// Range is the reporting window.
type Range string

const (
	Range7d  Range = "7d"
	Range30d Range = "30d"
	Range90d Range = "90d"
	Range1y  Range = "1y"
)

// TopVideoLimit is how many videos the top list holds.
const TopVideoLimit = 5

// ParseRange parses s, defaulting to 7d when empty.
func ParseRange(s string) (Range, error) {
	switch r := Range(s); r {
	case "":
		return Range7d, nil
	case Range7d, Range30d, Range90d, Range1y:
		return r, nil
	}
	return "", ErrInvalidRange
}

// Days returns the window length in days.
func (r Range) Days() int {
	switch r {
	case Range30d:
		return 30
	case Range90d:
		return 90
	case Range1y:
		return 365
	}
	return 7
}

// Overview holds the headline numbers.
type Overview struct {
	TotalViews     int `json:"total_views"`
	TotalVideos    int `json:"total_videos"`
	AvgWatchTime   int `json:"avg_watch_time"`
	EngagementRate int `json:"engagement_rate"`
}

// TopVideo is one entry of the most viewed list.
type TopVideo struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	Category  string             `json:"category,omitempty"`
	Status    models.VideoStatus `json:"status"`
	Views     int                `json:"views"`
	CreatedAt time.Time          `json:"created_at"`
}

// DayViews is the views of videos created on Date (YYYY-MM-DD, UTC).
type DayViews struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

// CategoryStat aggregates one category.
type CategoryStat struct {
	Category string `json:"category"`
	Videos   int    `json:"videos"`
	Views    int    `json:"views"`
	AvgViews int    `json:"avg_views"`
}

// Report is the analytics page payload.
type Report struct {
	Range               Range          `json:"range"`
	Overview            Overview       `json:"overview"`
	TopVideos           []TopVideo     `json:"top_videos"`
	ViewsByDay          []DayViews     `json:"views_by_day"`
	CategoryPerformance []CategoryStat `json:"category_performance"`
}

// Build computes the report for videos created within r before now.
func Build(videos []models.Video, r Range, now time.Time) Report {
	now = now.UTC()
	days := r.Days()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	inRange := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		created := v.CreatedAt.UTC()
		if !created.Before(start) && !created.After(now) {
			inRange = append(inRange, v)
		}
	}

	report := Report{
		Range:               r,
		Overview:            overview(inRange),
		TopVideos:           topVideos(inRange),
		ViewsByDay:          make([]DayViews, days),
		CategoryPerformance: categories(inRange),
	}

	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		report.ViewsByDay[i] = DayViews{Date: d}
		index[d] = i
	}
	for _, v := range inRange {
		if i, ok := index[v.CreatedAt.UTC().Format("2006-01-02")]; ok {
			report.ViewsByDay[i].Views += v.Views
		}
	}
	return report
}

func overview(videos []models.Video) Overview {
	o := Overview{TotalVideos: len(videos)}
	for _, v := range videos {
		o.TotalViews += v.Views
	}
	if o.TotalVideos > 0 {
		o.AvgWatchTime = round(float64(o.TotalViews) / float64(o.TotalVideos))
	}
	if o.TotalViews > 0 {
		o.EngagementRate = round(float64(o.TotalViews) / float64(o.TotalVideos*100) * 100)
	}
	return o
}

func topVideos(videos []models.Video) []TopVideo {
	sorted := append([]models.Video(nil), videos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Views != sorted[j].Views {
			return sorted[i].Views > sorted[j].Views
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > TopVideoLimit {
		sorted = sorted[:TopVideoLimit]
	}
	out := make([]TopVideo, 0, len(sorted))
	for _, v := range sorted {
		out = append(out, TopVideo{ID: v.ID, Title: v.Title, Category: v.Category, Status: v.Status, Views: v.Views, CreatedAt: v.CreatedAt})
	}
	return out
}

func categories(videos []models.Video) []CategoryStat {
	byName := make(map[string]*CategoryStat)
	for _, v := range videos {
		name := v.Category
		if name == "" {
			name = "uncategorized"
		}
		s := byName[name]
		if s == nil {
			s = &CategoryStat{Category: name}
			byName[name] = s
		}
		s.Videos++
		s.Views += v.Views
	}
	out := make([]CategoryStat, 0, len(byName))
	for _, s := range byName {
		s.AvgViews = round(float64(s.Views) / float64(s.Videos))
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// round rounds half away from zero.
func round(f float64) int {
	return int(math.Round(f))
}
