package db

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/sirupsen/logrus"
)

const (
	DashboardCacheTTL = 30 * time.Second
	ListCacheTTL      = 5 * time.Minute

	CategoryListCacheKey = "categories"
	LabelListCacheKey    = "labels"
)

// Dashboard cache keys are tracked per owner so a write by one user can
// invalidate all of that user's cached dashboard variants without touching
// anyone else's.
var (
	Cache              *ristretto.Cache
	DashboardCacheKeys = struct {
		sync.RWMutex
		m map[int64]map[string]struct{}
	}{m: make(map[int64]map[string]struct{})}
)

func InitCache() {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize cache")
	}
}

func DashboardCacheKey(userID int64, rangeSel, from, to string) string {
	return fmt.Sprintf("dashboard:%d:%s:%s:%s", userID, rangeSel, from, to)
}

func SetDashboardCache(userID int64, cacheKey string, value interface{}) {
	DashboardCacheKeys.Lock()
	if DashboardCacheKeys.m[userID] == nil {
		DashboardCacheKeys.m[userID] = make(map[string]struct{})
	}
	DashboardCacheKeys.m[userID][cacheKey] = struct{}{}
	DashboardCacheKeys.Unlock()
	Cache.SetWithTTL(cacheKey, value, 1, DashboardCacheTTL)
}

// ClearDashboardCache drops every cached dashboard payload for one user.
// Called after any expense, income or budget write by that user.
func ClearDashboardCache(userID int64) {
	DashboardCacheKeys.Lock()
	for key := range DashboardCacheKeys.m[userID] {
		Cache.Del(key)
	}
	delete(DashboardCacheKeys.m, userID)
	DashboardCacheKeys.Unlock()
}

// List caches hold the shared category and label lists.
func SetListCache(cacheKey string, value interface{}) {
	Cache.SetWithTTL(cacheKey, value, 1, ListCacheTTL)
}

func ClearListCache(cacheKey string) {
	Cache.Del(cacheKey)
}
