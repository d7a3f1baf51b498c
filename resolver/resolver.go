// Package resolver maps an inbound (host, short code) pair to its final
// redirect target. Resolution is a pure read: click recording is the
// caller's follow-up, never a side effect of resolving.
package resolver

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/cache"
	"github.com/Alirezastar2/utmkit-sub001/model"
	"github.com/Alirezastar2/utmkit-sub001/plan"
	"github.com/Alirezastar2/utmkit-sub001/store"
	"github.com/Alirezastar2/utmkit-sub001/utm"

	"github.com/rs/zerolog/log"
)

// Resolution failures. All three render the same "link unavailable" response
// upstream; the distinction exists for logging and diagnostics only.
var (
	ErrNotFound         = errors.New("short code not found")
	ErrExpired          = errors.New("link inactive or expired")
	ErrDomainUnverified = errors.New("custom domain not verified")
)

// Short codes use the same alphabet links are generated from.
const codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"

// Resolver resolves short codes against the attribution store, with an
// optional in-process cache on the hot path. Safe for unbounded concurrent
// use; it holds no mutable state of its own.
type Resolver struct {
	store           store.Store
	cache           *cache.Cache
	canonicalDomain string
}

// New creates a resolver. cache may be nil when caching is disabled.
func New(st store.Store, c *cache.Cache, canonicalDomain string) *Resolver {
	return &Resolver{
		store:           st,
		cache:           c,
		canonicalDomain: strings.ToLower(canonicalDomain),
	}
}

// Resolve looks up shortCode, applies domain and lifecycle gates and returns
// the composed redirect target. hostDomain is the literal Host header of the
// inbound request.
func (r *Resolver) Resolve(ctx context.Context, hostDomain, shortCode string) (model.ResolvedTarget, error) {
	if !validCode(shortCode) {
		return model.ResolvedTarget{}, ErrNotFound
	}

	link, cached, err := r.lookup(ctx, shortCode)
	if err != nil {
		return model.ResolvedTarget{}, err
	}

	// Codes are global, not domain-scoped; a non-canonical host only ever
	// gates the request, it never changes which link is served.
	if host := normalizeHost(hostDomain); host != "" && host != r.canonicalDomain {
		if err := r.checkCustomDomain(ctx, host, link.UserID); err != nil {
			return model.ResolvedTarget{}, err
		}
	}

	now := time.Now()
	if !link.Active || link.Expired(now) {
		if cached {
			r.cache.Delete(shortCode)
		}
		return model.ResolvedTarget{}, ErrExpired
	}

	return model.ResolvedTarget{
		URL:    utm.Compose(link.OriginalURL, link.UTM),
		LinkID: link.ID,
	}, nil
}

func (r *Resolver) lookup(ctx context.Context, shortCode string) (model.Link, bool, error) {
	if link, found := r.cache.GetLink(shortCode); found {
		log.Debug().Str("short_code", shortCode).Msg("Cache hit")
		return link, true, nil
	}

	link, err := r.store.LinkByCode(ctx, shortCode)
	if err == store.ErrNotFound {
		return model.Link{}, false, ErrNotFound
	} else if err != nil {
		return model.Link{}, false, err
	}

	r.cache.SetLink(shortCode, link)
	return link, false, nil
}

// checkCustomDomain requires a verified domain record owned by the link's
// owner, whose plan must still carry the custom-domain capability. Anything
// less is treated as a lookup failure so a half-configured or hijacked
// domain never serves redirects.
func (r *Resolver) checkCustomDomain(ctx context.Context, host, ownerID string) error {
	domain, err := r.store.DomainByName(ctx, host)
	if err == store.ErrNotFound {
		return ErrDomainUnverified
	} else if err != nil {
		return err
	}

	if domain.UserID != ownerID || !domain.Verified {
		return ErrDomainUnverified
	}

	tier, err := r.store.UserPlan(ctx, ownerID)
	if err != nil {
		return err
	}
	if !plan.Allows(plan.FromString(tier), plan.CustomDomain) {
		return ErrDomainUnverified
	}
	return nil
}

func validCode(code string) bool {
	if code == "" {
		return false
	}
	for _, ch := range code {
		if !strings.ContainsRune(codeAlphabet, ch) {
			return false
		}
	}
	return true
}

// normalizeHost lowercases the Host header and strips any port.
func normalizeHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}
