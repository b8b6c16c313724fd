package auth

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps one JSON cache file per client id under the user
// config directory, so sequential CLI invocations reuse tokens.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore() (*FileStore, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(configDir, "kone-driver", "tokens")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (st *FileStore) path(clientID string) string {
	return filepath.Join(st.dir, clientID+".json")
}

func (st *FileStore) Get(clientID string) (*Token, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := os.ReadFile(st.path(clientID))
	if err != nil {
		return nil, false
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		log.Printf("token cache: discarding unreadable cache file: %v", err)
		os.Remove(st.path(clientID))
		return nil, false
	}
	if !tok.Valid() {
		os.Remove(st.path(clientID))
		return nil, false
	}
	return &tok, true
}

func (st *FileStore) Put(clientID string, tok *Token) {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := json.Marshal(tok)
	if err != nil {
		log.Printf("token cache: failed to marshal token: %v", err)
		return
	}
	if err := os.WriteFile(st.path(clientID), data, 0600); err != nil {
		log.Printf("token cache: failed to write cache file: %v", err)
	}
}

func (st *FileStore) Delete(clientID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	os.Remove(st.path(clientID))
}

func (st *FileStore) Close() error {
	return nil
}
