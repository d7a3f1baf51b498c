// Package domains drives custom-domain ownership verification.
//
// A domain starts pending with an immutable random token. The owner
// publishes the token in a TXT record and points a CNAME at the platform;
// verification is an explicit, retryable pull that re-checks DNS. The TXT
// record is the ownership proof and is authoritative on its own: CNAME
// propagation lag is tolerated for routing readiness but never substitutes
// for the token check. Verified never regresses.
package domains

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/config"
	"github.com/Alirezastar2/utmkit-sub001/metrics"
	"github.com/Alirezastar2/utmkit-sub001/model"
	"github.com/Alirezastar2/utmkit-sub001/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidDomain = errors.New("invalid domain name")
)

var domainPattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// DNSResolver is the subset of net.Resolver the verifier needs. *net.Resolver
// satisfies it directly; tests substitute a fake.
type DNSResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// Result is the outcome of a verification attempt. A false Verified is a
// recoverable state the user can retry after fixing DNS, not an error.
type Result struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// Verifier owns the Pending → Verified state machine.
type Verifier struct {
	store   store.Store
	dns     DNSResolver
	cfg     config.DNSConfig
	metrics *metrics.Metrics
}

// New creates a verifier backed by the given store and DNS resolver.
func New(st store.Store, dns DNSResolver, cfg config.DNSConfig, m *metrics.Metrics) *Verifier {
	return &Verifier{store: st, dns: dns, cfg: cfg, metrics: m}
}

// Register normalizes and persists a new pending domain for the user and
// returns the DNS records the owner must publish. The verification token is
// generated once and never rotated.
func (v *Verifier) Register(ctx context.Context, userID, rawDomain string) (model.CustomDomain, model.DNSRecords, error) {
	name, err := normalizeDomain(rawDomain)
	if err != nil {
		return model.CustomDomain{}, model.DNSRecords{}, err
	}

	token, err := generateToken()
	if err != nil {
		return model.CustomDomain{}, model.DNSRecords{}, err
	}

	domain := model.CustomDomain{
		ID:                uuid.New().String(),
		UserID:            userID,
		Domain:            name,
		VerificationToken: token,
		CreatedAt:         time.Now().UTC(),
	}

	if err := v.store.CreateDomain(ctx, domain); err != nil {
		return model.CustomDomain{}, model.DNSRecords{}, err
	}

	log.Info().
		Str("domain", name).
		Str("user_id", userID).
		Msg("Custom domain registered, pending verification")

	return domain, v.Records(domain), nil
}

// Records returns the DNS records to publish for a domain.
func (v *Verifier) Records(domain model.CustomDomain) model.DNSRecords {
	return model.DNSRecords{
		CNAME: model.DNSRecord{
			Type:  "CNAME",
			Name:  domain.Domain,
			Value: v.cfg.PlatformHost,
			TTL:   v.cfg.RecordTTL,
		},
		TXT: model.DNSRecord{
			Type:  "TXT",
			Name:  v.cfg.TXTPrefix + "." + domain.Domain,
			Value: domain.VerificationToken,
			TTL:   v.cfg.RecordTTL,
		},
	}
}

// Verify re-checks DNS for the domain and marks it verified when the token
// is found. Safe to call repeatedly: an already verified domain returns a
// verified result with no further side effects, and DNS failures produce a
// retryable negative result rather than an error.
func (v *Verifier) Verify(ctx context.Context, domainID string) (Result, error) {
	domain, err := v.store.DomainByID(ctx, domainID)
	if err != nil {
		return Result{}, err
	}

	if domain.Verified {
		return Result{Verified: true, Message: "Domain already verified"}, nil
	}

	if !v.checkTXT(ctx, domain) {
		v.metrics.CountDomainVerify("not_verified")
		return Result{
			Verified: false,
			Message:  "Verification record not found. Check your DNS records and try again once they have propagated.",
		}, nil
	}

	// Routing readiness only; ownership is already proven by the token.
	if !v.checkCNAME(ctx, domain.Domain) {
		log.Info().Str("domain", domain.Domain).Msg("CNAME not propagated yet, verifying on TXT alone")
	}

	if err := v.store.MarkDomainVerified(ctx, domain.ID, time.Now().UTC()); err != nil {
		return Result{}, err
	}

	v.metrics.CountDomainVerify("verified")
	log.Info().Str("domain", domain.Domain).Msg("Domain verified")
	return Result{Verified: true, Message: "Domain verified successfully"}, nil
}

// checkTXT proves control over the domain's DNS. Resolution errors
// (NXDOMAIN, timeout, refused) count as not verified, never as a hard
// failure; verification is retryable at will.
func (v *Verifier) checkTXT(ctx context.Context, domain model.CustomDomain) bool {
	ctx, cancel := v.withTimeout(ctx)
	defer cancel()

	records, err := v.dns.LookupTXT(ctx, v.cfg.TXTPrefix+"."+domain.Domain)
	if err != nil {
		log.Debug().Err(err).Str("domain", domain.Domain).Msg("TXT lookup failed")
		return false
	}

	for _, record := range records {
		if strings.Contains(record, domain.VerificationToken) {
			return true
		}
	}
	return false
}

func (v *Verifier) checkCNAME(ctx context.Context, name string) bool {
	ctx, cancel := v.withTimeout(ctx)
	defer cancel()

	cname, err := v.dns.LookupCNAME(ctx, name)
	if err != nil {
		return false
	}
	return strings.Contains(strings.TrimSuffix(cname, "."), v.cfg.PlatformHost)
}

// withTimeout bounds a DNS lookup; resolvers can hang well past any useful
// wait.
func (v *Verifier) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(v.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// generateToken produces a 256-bit random token, hex encoded.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// normalizeDomain strips scheme, www prefix and trailing slash, lowercases
// and validates the remainder.
func normalizeDomain(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "www.")
	name = strings.TrimSuffix(name, "/")

	if !domainPattern.MatchString(name) {
		return "", ErrInvalidDomain
	}
	return name, nil
}
