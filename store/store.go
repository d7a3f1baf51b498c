package store

import (
	"context"
	"errors"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/model"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrCodeTaken   = errors.New("short code already in use")
	ErrDomainTaken = errors.New("domain already registered")
)

// Store is the attribution store contract: durable storage for links,
// clicks, custom domains, user plan tiers and scheduled reports. Every
// operation is individually consistent; callers bring their own context
// deadlines.
type Store interface {
	// Ping reports backend reachability for health checks.
	Ping(ctx context.Context) error

	// Links. Short codes are a single global namespace; a deleted code is
	// tombstoned for the retention window and never reissued.
	CreateLink(ctx context.Context, link model.Link) error
	LinkByCode(ctx context.Context, code string) (model.Link, error)
	LinkByID(ctx context.Context, id string) (model.Link, error)
	LinksByUser(ctx context.Context, userID string) ([]model.Link, error)
	DeleteLink(ctx context.Context, code string) error

	// Clicks are append-only; they are written by the recorder and only
	// ever read back for aggregation.
	AppendClick(ctx context.Context, click model.Click) error
	ClicksByLink(ctx context.Context, linkID string) ([]model.Click, error)

	// Custom domains.
	CreateDomain(ctx context.Context, domain model.CustomDomain) error
	DomainByName(ctx context.Context, name string) (model.CustomDomain, error)
	DomainByID(ctx context.Context, id string) (model.CustomDomain, error)
	DomainsByUser(ctx context.Context, userID string) ([]model.CustomDomain, error)
	// MarkDomainVerified sets the verified flag and timestamp exactly once;
	// calling it on an already verified domain is a no-op.
	MarkDomainVerified(ctx context.Context, id string, at time.Time) error

	// Users. A missing user resolves to the FREE tier.
	PutUser(ctx context.Context, user model.User) error
	UserPlan(ctx context.Context, userID string) (string, error)

	// Scheduled reports.
	PutReport(ctx context.Context, report model.ScheduledReport) error
	ReportByID(ctx context.Context, id string) (model.ScheduledReport, error)
	MarkReportSent(ctx context.Context, id string, at time.Time) error
}
