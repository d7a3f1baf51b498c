package store

import (
	"context"
	"testing"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, time.Hour), mr
}

func testLink(id, code, userID string) model.Link {
	return model.Link{
		ID:          id,
		ShortCode:   code,
		OriginalURL: "https://example.com/page",
		UserID:      userID,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestCreateLink_RoundTrip(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	link := testLink("l1", "promo", "u1")
	if err := st.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}

	byCode, err := st.LinkByCode(ctx, "promo")
	if err != nil {
		t.Fatalf("LinkByCode() error = %v", err)
	}
	if byCode.ID != link.ID || byCode.OriginalURL != link.OriginalURL {
		t.Errorf("LinkByCode() = %+v, want %+v", byCode, link)
	}

	byID, err := st.LinkByID(ctx, "l1")
	if err != nil {
		t.Fatalf("LinkByID() error = %v", err)
	}
	if byID.ShortCode != "promo" {
		t.Errorf("LinkByID().ShortCode = %q, want %q", byID.ShortCode, "promo")
	}

	mine, err := st.LinksByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("LinksByUser() error = %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("LinksByUser() returned %d links, want 1", len(mine))
	}
}

func TestCreateLink_DuplicateCode(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateLink(ctx, testLink("l1", "promo", "u1")); err != nil {
		t.Fatalf("first CreateLink() error = %v", err)
	}
	if err := st.CreateLink(ctx, testLink("l2", "promo", "u2")); err != ErrCodeTaken {
		t.Errorf("second CreateLink() error = %v, want ErrCodeTaken", err)
	}
}

func TestLinkByCode_NotFound(t *testing.T) {
	st, _ := newTestStore(t)
	if _, err := st.LinkByCode(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("LinkByCode() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteLink_TombstoneBlocksReuse(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateLink(ctx, testLink("l1", "promo", "u1")); err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}
	if err := st.DeleteLink(ctx, "promo"); err != nil {
		t.Fatalf("DeleteLink() error = %v", err)
	}

	if _, err := st.LinkByCode(ctx, "promo"); err != ErrNotFound {
		t.Fatalf("LinkByCode() after delete error = %v, want ErrNotFound", err)
	}

	// The code stays reserved while the tombstone lives.
	if err := st.CreateLink(ctx, testLink("l2", "promo", "u2")); err != ErrCodeTaken {
		t.Fatalf("CreateLink() on tombstoned code error = %v, want ErrCodeTaken", err)
	}

	// Once the retention window passes, the code is free again.
	mr.FastForward(2 * time.Hour)
	if err := st.CreateLink(ctx, testLink("l2", "promo", "u2")); err != nil {
		t.Errorf("CreateLink() after tombstone expiry error = %v", err)
	}
}

func TestDeleteLink_CascadesClicks(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateLink(ctx, testLink("l1", "promo", "u1")); err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}
	click := model.Click{ID: "c1", LinkID: "l1", CreatedAt: time.Now().UTC()}
	if err := st.AppendClick(ctx, click); err != nil {
		t.Fatalf("AppendClick() error = %v", err)
	}

	if err := st.DeleteLink(ctx, "promo"); err != nil {
		t.Fatalf("DeleteLink() error = %v", err)
	}

	clicks, err := st.ClicksByLink(ctx, "l1")
	if err != nil {
		t.Fatalf("ClicksByLink() error = %v", err)
	}
	if len(clicks) != 0 {
		t.Errorf("ClicksByLink() after delete returned %d clicks, want 0", len(clicks))
	}

	mine, err := st.LinksByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("LinksByUser() error = %v", err)
	}
	if len(mine) != 0 {
		t.Errorf("LinksByUser() after delete returned %d links, want 0", len(mine))
	}
}

func TestAppendClick_PreservesOrder(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		click := model.Click{
			ID:        string(rune('a' + i)),
			LinkID:    "l1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.AppendClick(ctx, click); err != nil {
			t.Fatalf("AppendClick() error = %v", err)
		}
	}

	clicks, err := st.ClicksByLink(ctx, "l1")
	if err != nil {
		t.Fatalf("ClicksByLink() error = %v", err)
	}
	if len(clicks) != 3 {
		t.Fatalf("ClicksByLink() returned %d clicks, want 3", len(clicks))
	}
	for i, click := range clicks {
		want := base.Add(time.Duration(i) * time.Minute)
		if !click.CreatedAt.Equal(want) {
			t.Errorf("clicks[%d].CreatedAt = %v, want %v", i, click.CreatedAt, want)
		}
	}
}

func TestCreateDomain_DuplicateName(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	domain := model.CustomDomain{ID: "d1", UserID: "u1", Domain: "links.example.com"}
	if err := st.CreateDomain(ctx, domain); err != nil {
		t.Fatalf("CreateDomain() error = %v", err)
	}

	other := model.CustomDomain{ID: "d2", UserID: "u2", Domain: "links.example.com"}
	if err := st.CreateDomain(ctx, other); err != ErrDomainTaken {
		t.Errorf("CreateDomain() duplicate error = %v, want ErrDomainTaken", err)
	}
}

func TestMarkDomainVerified_Monotonic(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	domain := model.CustomDomain{ID: "d1", UserID: "u1", Domain: "links.example.com"}
	if err := st.CreateDomain(ctx, domain); err != nil {
		t.Fatalf("CreateDomain() error = %v", err)
	}

	first := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	if err := st.MarkDomainVerified(ctx, "d1", first); err != nil {
		t.Fatalf("MarkDomainVerified() error = %v", err)
	}

	// A later verification keeps the original timestamp.
	if err := st.MarkDomainVerified(ctx, "d1", first.Add(time.Hour)); err != nil {
		t.Fatalf("second MarkDomainVerified() error = %v", err)
	}

	stored, err := st.DomainByID(ctx, "d1")
	if err != nil {
		t.Fatalf("DomainByID() error = %v", err)
	}
	if !stored.Verified {
		t.Error("domain not marked verified")
	}
	if !stored.VerifiedAt.Equal(first) {
		t.Errorf("VerifiedAt = %v, want first timestamp %v", stored.VerifiedAt, first)
	}
}

func TestUserPlan_DefaultsToFree(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	plan, err := st.UserPlan(ctx, "ghost")
	if err != nil {
		t.Fatalf("UserPlan() error = %v", err)
	}
	if plan != "FREE" {
		t.Errorf("UserPlan() for unknown user = %q, want FREE", plan)
	}

	if err := st.PutUser(ctx, model.User{ID: "u1", Plan: "PRO"}); err != nil {
		t.Fatalf("PutUser() error = %v", err)
	}
	plan, err = st.UserPlan(ctx, "u1")
	if err != nil {
		t.Fatalf("UserPlan() error = %v", err)
	}
	if plan != "PRO" {
		t.Errorf("UserPlan() = %q, want PRO", plan)
	}
}
