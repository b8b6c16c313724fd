package auth

import "sync"

// CacheStore persists tokens across driver instances, keyed by client id.
type CacheStore interface {
	Get(clientID string) (*Token, bool)
	Put(clientID string, tok *Token)
	Delete(clientID string)
	Close() error
}

type MemoryStore struct {
	tokens sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (st *MemoryStore) Get(clientID string) (*Token, bool) {
	val, ok := st.tokens.Load(clientID)
	if !ok {
		return nil, false
	}
	tok := val.(*Token)
	if !tok.Valid() {
		st.tokens.Delete(clientID)
		return nil, false
	}
	return tok, true
}

func (st *MemoryStore) Put(clientID string, tok *Token) {
	st.tokens.Store(clientID, tok)
}

func (st *MemoryStore) Delete(clientID string) {
	st.tokens.Delete(clientID)
}

func (st *MemoryStore) Close() error {
	return nil
}
