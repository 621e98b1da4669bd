package syncer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbank/internal/domain"
)

func TestDedupCacheRoundTrip(t *testing.T) {
	t.Parallel()

	cache := NewDedupCache()
	fp := Fingerprint(map[string]string{"id": "DON001"})
	require.NotEmpty(t, fp)

	assert.False(t, cache.Seen(domain.SyncDonations, "DON001", fp))
	cache.Remember(domain.SyncDonations, "DON001", fp)
	assert.True(t, cache.Seen(domain.SyncDonations, "DON001", fp))

	// Same identity under a different sync type is a different key.
	assert.False(t, cache.Seen(domain.SyncInventory, "DON001", fp))

	// A changed payload supersedes the old fingerprint.
	changed := Fingerprint(map[string]string{"id": "DON001", "volume": "500"})
	assert.False(t, cache.Seen(domain.SyncDonations, "DON001", changed))
	cache.Remember(domain.SyncDonations, "DON001", changed)
	assert.True(t, cache.Seen(domain.SyncDonations, "DON001", changed))
	assert.False(t, cache.Seen(domain.SyncDonations, "DON001", fp))
	assert.Equal(t, 1, cache.Len())
}

func TestDedupCacheClear(t *testing.T) {
	t.Parallel()

	cache := NewDedupCache()
	cache.Remember(domain.SyncDonations, "DON001", "fp1")
	cache.Remember(domain.SyncInventory, "BP001", "fp2")
	require.Equal(t, 2, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	assert.False(t, cache.Seen(domain.SyncDonations, "DON001", "fp1"))
}

func TestDedupCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	cache := NewDedupCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Remember(domain.SyncDonations, "DON001", "fp")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Seen(domain.SyncDonations, "DON001", "fp")
				cache.Len()
			}
		}()
	}
	wg.Wait()
	assert.True(t, cache.Seen(domain.SyncDonations, "DON001", "fp"))
}

func TestFingerprintStability(t *testing.T) {
	t.Parallel()

	d := domain.Donation{ID: "DON001", DonorID: "D001", VolumeCollected: 450}
	assert.Equal(t, Fingerprint(d), Fingerprint(d))

	d2 := d
	d2.VolumeCollected = 451
	assert.NotEqual(t, Fingerprint(d), Fingerprint(d2))
}
