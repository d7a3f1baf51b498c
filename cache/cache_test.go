package cache

import (
	"testing"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/config"
	"github.com/Alirezastar2/utmkit-sub001/model"
)

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache

	if _, found := c.GetLink("promo"); found {
		t.Error("nil cache reported a hit")
	}
	if c.SetLink("promo", model.Link{}) {
		t.Error("nil cache accepted a set")
	}
	c.Delete("promo")
	c.Close()
	if snap := c.GetMetricsSnapshot(); snap.Hits != 0 {
		t.Errorf("nil cache snapshot = %+v, want zero value", snap)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c, err := New(config.CacheConfig{
		Enabled:     true,
		MaxSizeMB:   1,
		TTLSeconds:  60,
		CounterSize: 1000,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	link := model.Link{ID: "l1", ShortCode: "promo", OriginalURL: "https://example.com"}
	if !c.SetLink("promo", link) {
		t.Fatal("SetLink() rejected the entry")
	}
	// Sets are applied asynchronously; wait for the buffers to drain.
	c.client.Wait()

	got, found := c.GetLink("promo")
	if !found {
		t.Fatal("GetLink() missed a just-set entry")
	}
	if got.ID != link.ID || got.OriginalURL != link.OriginalURL {
		t.Errorf("GetLink() = %+v, want %+v", got, link)
	}

	c.Delete("promo")
	c.client.Wait()
	if _, found := c.GetLink("promo"); found {
		t.Error("GetLink() hit after Delete()")
	}
}

func TestCacheSnapshotTracksHits(t *testing.T) {
	c, err := New(config.CacheConfig{MaxSizeMB: 1, TTLSeconds: 60, CounterSize: 1000})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	c.SetLink("promo", model.Link{ID: "l1"})
	c.client.Wait()
	c.GetLink("promo")
	c.GetLink("missing")
	time.Sleep(10 * time.Millisecond) // metrics are updated off the hot path

	snap := c.GetMetricsSnapshot()
	if snap.Hits == 0 {
		t.Error("snapshot records no hits")
	}
	if snap.TTLSeconds != 60 {
		t.Errorf("TTLSeconds = %d, want 60", snap.TTLSeconds)
	}
}
