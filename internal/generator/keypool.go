package generator

import "sync/atomic"

// KeyPool hands out API keys round-robin. Rotation is lock-free so
// concurrent sessions never serialize on key selection, and the key
// set can be swapped live without pausing callers.
type KeyPool struct {
	keys atomic.Pointer[[]string]
	next atomic.Uint64
}

// NewKeyPool builds a pool over the given keys. Order is preserved;
// the first call to Next returns keys[0].
func NewKeyPool(keys []string) *KeyPool {
	p := &KeyPool{}
	p.Swap(keys)
	return p
}

// Next returns the next key in rotation. An empty pool returns "".
func (p *KeyPool) Next() string {
	if p == nil {
		return ""
	}
	ptr := p.keys.Load()
	if ptr == nil || len(*ptr) == 0 {
		return ""
	}
	keys := *ptr
	n := p.next.Add(1) - 1
	return keys[n%uint64(len(keys))]
}

// Len reports the number of keys in the pool.
func (p *KeyPool) Len() int {
	if p == nil {
		return 0
	}
	ptr := p.keys.Load()
	if ptr == nil {
		return 0
	}
	return len(*ptr)
}

// Swap replaces the key set. In-flight Next calls finish against the
// old set; the rotation counter carries over, so the swap does not
// reset fairness.
func (p *KeyPool) Swap(keys []string) {
	if p == nil {
		return
	}
	cp := make([]string, len(keys))
	copy(cp, keys)
	p.keys.Store(&cp)
}
