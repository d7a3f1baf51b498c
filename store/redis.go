package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/model"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// Key layout. Link records are keyed by short code (codes are globally
// unique); hashes map secondary identities back to primary keys.
const (
	linkKeyPrefix      = "link:"
	linkIDIndexKey     = "link_ids"
	userLinksKeyPrefix = "user_links:"
	clicksKeyPrefix    = "clicks:"
	tombstoneKeyPrefix = "tombstone:"
	domainKeyPrefix    = "domain:"
	domainIDIndexKey   = "domain_ids"
	userDomainsPrefix  = "user_domains:"
	userKeyPrefix      = "user:"
	reportKeyPrefix    = "report:"
)

// RedisStore implements Store on a Redis backend, persisting each record as
// a JSON value.
type RedisStore struct {
	rdb          *redis.Client
	tombstoneTTL time.Duration
}

// NewRedisStore wraps an established Redis client. tombstoneTTL is the
// retention window during which a deleted short code may not be reassigned.
func NewRedisStore(rdb *redis.Client, tombstoneTTL time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, tombstoneTTL: tombstoneTTL}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) CreateLink(ctx context.Context, link model.Link) error {
	key := linkKeyPrefix + link.ShortCode

	exists, err := s.rdb.Exists(ctx, key, tombstoneKeyPrefix+link.ShortCode).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return ErrCodeTaken
	}

	data, err := json.Marshal(link)
	if err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, linkIDIndexKey, link.ID, link.ShortCode).Err(); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, userLinksKeyPrefix+link.UserID, link.ShortCode).Err()
}

func (s *RedisStore) LinkByCode(ctx context.Context, code string) (model.Link, error) {
	data, err := s.rdb.Get(ctx, linkKeyPrefix+code).Bytes()
	if err == redis.Nil {
		return model.Link{}, ErrNotFound
	} else if err != nil {
		return model.Link{}, err
	}

	var link model.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return model.Link{}, err
	}
	return link, nil
}

func (s *RedisStore) LinkByID(ctx context.Context, id string) (model.Link, error) {
	code, err := s.rdb.HGet(ctx, linkIDIndexKey, id).Result()
	if err == redis.Nil {
		return model.Link{}, ErrNotFound
	} else if err != nil {
		return model.Link{}, err
	}
	return s.LinkByCode(ctx, code)
}

func (s *RedisStore) LinksByUser(ctx context.Context, userID string) ([]model.Link, error) {
	codes, err := s.rdb.SMembers(ctx, userLinksKeyPrefix+userID).Result()
	if err != nil {
		return nil, err
	}

	links := make([]model.Link, 0, len(codes))
	for _, code := range codes {
		link, err := s.LinkByCode(ctx, code)
		if err == ErrNotFound {
			// Membership can lag behind deletion; skip stale entries.
			continue
		} else if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// DeleteLink removes the link, cascade-deletes its click list and leaves a
// tombstone so the code cannot be claimed by a new owner during the
// retention window.
func (s *RedisStore) DeleteLink(ctx context.Context, code string) error {
	link, err := s.LinkByCode(ctx, code)
	if err != nil {
		return err
	}

	if err := s.rdb.Del(ctx, linkKeyPrefix+code, clicksKeyPrefix+link.ID).Err(); err != nil {
		return err
	}
	if err := s.rdb.HDel(ctx, linkIDIndexKey, link.ID).Err(); err != nil {
		return err
	}
	if err := s.rdb.SRem(ctx, userLinksKeyPrefix+link.UserID, code).Err(); err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, tombstoneKeyPrefix+code, link.ID, s.tombstoneTTL).Err(); err != nil {
		log.Error().Err(err).Str("short_code", code).Msg("Failed to tombstone deleted short code")
		return err
	}
	return nil
}

func (s *RedisStore) AppendClick(ctx context.Context, click model.Click) error {
	data, err := json.Marshal(click)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, clicksKeyPrefix+click.LinkID, data).Err()
}

func (s *RedisStore) ClicksByLink(ctx context.Context, linkID string) ([]model.Click, error) {
	entries, err := s.rdb.LRange(ctx, clicksKeyPrefix+linkID, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	clicks := make([]model.Click, 0, len(entries))
	for _, entry := range entries {
		var click model.Click
		if err := json.Unmarshal([]byte(entry), &click); err != nil {
			log.Error().Err(err).Str("link_id", linkID).Msg("Skipping malformed click entry")
			continue
		}
		clicks = append(clicks, click)
	}
	return clicks, nil
}

func (s *RedisStore) CreateDomain(ctx context.Context, domain model.CustomDomain) error {
	key := domainKeyPrefix + domain.Domain

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return ErrDomainTaken
	}

	data, err := json.Marshal(domain)
	if err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, domainIDIndexKey, domain.ID, domain.Domain).Err(); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, userDomainsPrefix+domain.UserID, domain.Domain).Err()
}

func (s *RedisStore) DomainByName(ctx context.Context, name string) (model.CustomDomain, error) {
	data, err := s.rdb.Get(ctx, domainKeyPrefix+name).Bytes()
	if err == redis.Nil {
		return model.CustomDomain{}, ErrNotFound
	} else if err != nil {
		return model.CustomDomain{}, err
	}

	var domain model.CustomDomain
	if err := json.Unmarshal(data, &domain); err != nil {
		return model.CustomDomain{}, err
	}
	return domain, nil
}

func (s *RedisStore) DomainByID(ctx context.Context, id string) (model.CustomDomain, error) {
	name, err := s.rdb.HGet(ctx, domainIDIndexKey, id).Result()
	if err == redis.Nil {
		return model.CustomDomain{}, ErrNotFound
	} else if err != nil {
		return model.CustomDomain{}, err
	}
	return s.DomainByName(ctx, name)
}

func (s *RedisStore) DomainsByUser(ctx context.Context, userID string) ([]model.CustomDomain, error) {
	names, err := s.rdb.SMembers(ctx, userDomainsPrefix+userID).Result()
	if err != nil {
		return nil, err
	}

	domains := make([]model.CustomDomain, 0, len(names))
	for _, name := range names {
		domain, err := s.DomainByName(ctx, name)
		if err == ErrNotFound {
			continue
		} else if err != nil {
			return nil, err
		}
		domains = append(domains, domain)
	}
	return domains, nil
}

func (s *RedisStore) MarkDomainVerified(ctx context.Context, id string, at time.Time) error {
	domain, err := s.DomainByID(ctx, id)
	if err != nil {
		return err
	}
	if domain.Verified {
		// Verified is monotonic; the first timestamp wins.
		return nil
	}

	domain.Verified = true
	domain.VerifiedAt = at

	data, err := json.Marshal(domain)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, domainKeyPrefix+domain.Domain, data, 0).Err()
}

func (s *RedisStore) PutUser(ctx context.Context, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, userKeyPrefix+user.ID, data, 0).Err()
}

func (s *RedisStore) UserPlan(ctx context.Context, userID string) (string, error) {
	data, err := s.rdb.Get(ctx, userKeyPrefix+userID).Bytes()
	if err == redis.Nil {
		return "FREE", nil
	} else if err != nil {
		return "", err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return "", err
	}
	if user.Plan == "" {
		return "FREE", nil
	}
	return user.Plan, nil
}

func (s *RedisStore) PutReport(ctx context.Context, report model.ScheduledReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, reportKeyPrefix+report.ID, data, 0).Err()
}

func (s *RedisStore) ReportByID(ctx context.Context, id string) (model.ScheduledReport, error) {
	data, err := s.rdb.Get(ctx, reportKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return model.ScheduledReport{}, ErrNotFound
	} else if err != nil {
		return model.ScheduledReport{}, err
	}

	var report model.ScheduledReport
	if err := json.Unmarshal(data, &report); err != nil {
		return model.ScheduledReport{}, err
	}
	return report, nil
}

func (s *RedisStore) MarkReportSent(ctx context.Context, id string, at time.Time) error {
	report, err := s.ReportByID(ctx, id)
	if err != nil {
		return err
	}
	report.LastSent = at
	return s.PutReport(ctx, report)
}
