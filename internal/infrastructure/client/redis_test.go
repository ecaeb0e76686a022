package client

import (
	"testing"
	"time"

	"github.com/redis/rueidis"
)

// closeRecorder - клиент, у которого реализован только Close
type closeRecorder struct {
	rueidis.Client
	closed int
}

func (c *closeRecorder) Close() { c.closed++ }

func TestDashboardCacheCloseReleasesClient(t *testing.T) {
	rc := &closeRecorder{}
	cache := NewDashboardCache(rc, "dashboard:latest", time.Hour)

	cache.Close()
	if rc.closed != 1 {
		t.Fatalf("Expected client to be closed once, got %d", rc.closed)
	}
}

func TestDashboardCacheCloseWithoutClient(t *testing.T) {
	cache := NewDashboardCache(nil, "dashboard:latest", time.Hour)
	cache.Close()
}
