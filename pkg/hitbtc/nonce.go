package hitbtc

import (
	"strconv"
	"sync/atomic"
	"time"
)

// NonceGenerator issues the nonce parameter of v1 authenticated calls.
type NonceGenerator interface {
	GetString() string
}

// MicrosecondNonce generates nonces from the wall clock at microsecond resolution: the
// unix seconds followed by six digits of the fractional part. Values are strictly
// increasing per generator, so calls within the same microsecond still get distinct
// nonces.
type MicrosecondNonce struct {
	current int64
	now     func() time.Time
}

func NewMicrosecondNonce() *MicrosecondNonce {
	return &MicrosecondNonce{now: time.Now}
}

func (ng *MicrosecondNonce) GetString() string {
	return strconv.FormatInt(ng.GetInt64(), 10)
}

func (ng *MicrosecondNonce) GetInt64() int64 {
	for {
		current := atomic.LoadInt64(&ng.current)
		next := ng.now().UnixMicro()
		if next <= current {
			next = current + 1
		}

		if atomic.CompareAndSwapInt64(&ng.current, current, next) {
			return next
		}
	}
}
