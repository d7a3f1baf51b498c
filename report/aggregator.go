// Package report computes time-windowed click statistics for dashboards and
// scheduled reports. Aggregation is read-only and safe to run concurrently
// for any number of users and windows; the only write is the lastSent stamp
// of a scheduled report, applied strictly after its data has been produced.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/model"
	"github.com/Alirezastar2/utmkit-sub001/store"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Windows up to this length get hourly buckets, longer ones daily.
const hourlyBucketLimit = 48 * time.Hour

const (
	hourlyLayout = "2006-01-02 15:00"
	dailyLayout  = "2006-01-02"
)

// Aggregator computes ReportData from the attribution store.
type Aggregator struct {
	store store.Store
}

func New(st store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// Aggregate computes click statistics for the user over [start, end).
// When linkIDs is non-empty the aggregation is restricted to that subset;
// ids not owned by the user are silently ignored.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, linkIDs []string, start, end time.Time) (model.ReportData, error) {
	links, err := a.store.LinksByUser(ctx, userID)
	if err != nil {
		return model.ReportData{}, err
	}
	links = filterLinks(links, linkIDs)

	layout := bucketLayout(start, end)
	perLink := make([]model.LinkStats, len(links))
	perLinkBuckets := make([]map[string]int64, len(links))

	g, gctx := errgroup.WithContext(ctx)
	for i := range links {
		i := i
		g.Go(func() error {
			stats, buckets, err := a.linkStats(gctx, links[i], start, end, layout)
			if err != nil {
				return err
			}
			perLink[i] = stats
			perLinkBuckets[i] = buckets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.ReportData{}, err
	}

	var total int64
	merged := make(map[string]int64)
	for i, stats := range perLink {
		total += stats.Clicks
		for bucket, count := range perLinkBuckets[i] {
			merged[bucket] += count
		}
	}

	sort.SliceStable(perLink, func(i, j int) bool {
		return perLink[i].Clicks > perLink[j].Clicks
	})

	return model.ReportData{
		TotalClicks: total,
		Links:       perLink,
		Series:      buildSeries(start, end, layout, merged),
		Period:      model.ReportPeriod{Start: start, End: end},
	}, nil
}

// GenerateScheduled produces the data of a scheduled report for its
// configured frequency window ending now, then stamps lastSent. A failed
// generation leaves lastSent untouched so the next cycle retries it.
func (a *Aggregator) GenerateScheduled(ctx context.Context, reportID string, now time.Time) (model.ReportData, error) {
	rep, err := a.store.ReportByID(ctx, reportID)
	if err != nil {
		return model.ReportData{}, err
	}

	start, err := Window(rep.Frequency, now)
	if err != nil {
		return model.ReportData{}, err
	}

	data, err := a.Aggregate(ctx, rep.UserID, rep.LinkIDs, start, now)
	if err != nil {
		return model.ReportData{}, err
	}

	if err := a.store.MarkReportSent(ctx, rep.ID, now); err != nil {
		// The data is good; losing the stamp means at worst a duplicate
		// send next cycle.
		log.Error().Err(err).Str("report_id", rep.ID).Msg("Failed to stamp report lastSent")
		return model.ReportData{}, err
	}

	log.Info().
		Str("report_id", rep.ID).
		Str("frequency", rep.Frequency).
		Int64("total_clicks", data.TotalClicks).
		Msg("Scheduled report generated")
	return data, nil
}

func (a *Aggregator) linkStats(ctx context.Context, link model.Link, start, end time.Time, layout string) (model.LinkStats, map[string]int64, error) {
	clicks, err := a.store.ClicksByLink(ctx, link.ID)
	if err != nil {
		return model.LinkStats{}, nil, err
	}

	stats := model.LinkStats{
		ID:           link.ID,
		ShortCode:    link.ShortCode,
		Title:        link.Title,
		CountryStats: make(map[string]int64),
		DeviceStats:  make(map[string]int64),
	}
	buckets := make(map[string]int64)

	for _, click := range clicks {
		// Half-open window: start inclusive, end exclusive.
		if click.CreatedAt.Before(start) || !click.CreatedAt.Before(end) {
			continue
		}
		stats.Clicks++
		buckets[click.CreatedAt.UTC().Format(layout)]++

		country := click.Country
		if country == "" {
			country = "unknown"
		}
		stats.CountryStats[country]++

		device := click.DeviceType
		if device == "" {
			device = "UNKNOWN"
		}
		stats.DeviceStats[device]++
	}
	return stats, buckets, nil
}

// filterLinks restricts links to the requested subset, dropping ids the
// user does not own.
func filterLinks(links []model.Link, linkIDs []string) []model.Link {
	if len(linkIDs) == 0 {
		return links
	}
	wanted := make(map[string]bool, len(linkIDs))
	for _, id := range linkIDs {
		wanted[id] = true
	}
	filtered := links[:0]
	for _, link := range links {
		if wanted[link.ID] {
			filtered = append(filtered, link)
		}
	}
	return filtered
}

func bucketLayout(start, end time.Time) string {
	if end.Sub(start) <= hourlyBucketLimit {
		return hourlyLayout
	}
	return dailyLayout
}

// buildSeries walks the window bucket by bucket, zero-filling gaps so chart
// consumers get a continuous series.
func buildSeries(start, end time.Time, layout string, counts map[string]int64) []model.TimeSeriesPoint {
	step := 24 * time.Hour
	if layout == hourlyLayout {
		step = time.Hour
	}

	series := make([]model.TimeSeriesPoint, 0, int(end.Sub(start)/step)+1)
	for t := start.UTC(); t.Before(end); t = t.Add(step) {
		bucket := t.Format(layout)
		series = append(series, model.TimeSeriesPoint{
			Bucket: bucket,
			Value:  counts[bucket],
		})
	}
	return series
}
