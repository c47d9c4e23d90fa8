package service

import "sync"

// RefreshRegistry tracks the refresh token ids that are still redeemable.
// Ids are single-use: Redeem removes atomically, so when several requests
// race on the same id exactly one of them wins. The registry is process
// local; a restart invalidates all outstanding refresh tokens.
type RefreshRegistry struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewRefreshRegistry() *RefreshRegistry {
	return &RefreshRegistry{ids: make(map[string]struct{})}
}

// Insert registers a freshly minted refresh token id.
func (r *RefreshRegistry) Insert(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = struct{}{}
}

// Redeem removes id from the registry. It returns true only for the caller
// that actually removed it; an unknown or already redeemed id returns false.
func (r *RefreshRegistry) Redeem(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[id]; !ok {
		return false
	}
	delete(r.ids, id)
	return true
}

// Contains reports whether id is currently redeemable.
func (r *RefreshRegistry) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// Len returns the number of outstanding refresh token ids.
func (r *RefreshRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}
