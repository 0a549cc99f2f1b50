package hitbtc

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMicrosecondNonce_Increasing(t *testing.T) {
	ng := NewMicrosecondNonce()

	var last int64
	for i := 0; i < 1000; i++ {
		n := ng.GetInt64()
		if i > 0 {
			assert.Greater(t, n, last)
		}
		last = n
	}
}

func TestMicrosecondNonce_FrozenClock(t *testing.T) {
	frozen := time.Unix(1500000000, 0)
	ng := &MicrosecondNonce{now: func() time.Time { return frozen }}

	assert.Equal(t, "1500000000000000", ng.GetString())
	assert.Equal(t, "1500000000000001", ng.GetString())
	assert.Equal(t, "1500000000000002", ng.GetString())
}

func TestMicrosecondNonce_Concurrent(t *testing.T) {
	ng := NewMicrosecondNonce()

	const workers, perWorker = 8, 250

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				n := ng.GetString()
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
	for n := range seen {
		_, err := strconv.ParseInt(n, 10, 64)
		assert.NoError(t, err)
		assert.Len(t, n, 16)
	}
}
