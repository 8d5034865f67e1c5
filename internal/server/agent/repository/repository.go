package repository

import (
	"sync"
	"time"

	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
)

// Credentials identify a connected agent on every poll.
type Credentials struct {
	AgentID         string `json:"agentId"`
	AgentKey        string `json:"agentKey"`
	PollingInterval int    `json:"pollingInterval"`
	APIEndpoint     string `json:"apiEndpoint,omitempty"`
}

// Valid reports whether both halves of the credential pair are present.
func (c Credentials) Valid() bool {
	return c.AgentID != "" && c.AgentKey != ""
}

type StoreData struct {
	Credentials *Credentials
	Snapshot    *dto.PollResponse
	UpdatedAt   time.Time
}

type Repository struct {
	current StoreData
	mutex   sync.RWMutex
}

// NewRepository creates a new repository instance
func NewRepository() *Repository {
	return &Repository{}
}

// SetCredentials sets the agent credentials
func (r *Repository) SetCredentials(creds Credentials) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.current.Credentials = &creds
}

// Credentials returns the stored credentials, if any
func (r *Repository) Credentials() (Credentials, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.current.Credentials == nil {
		return Credentials{}, false
	}
	return *r.current.Credentials, true
}

// UpdateSnapshot replaces the last known configuration
func (r *Repository) UpdateSnapshot(resp *dto.PollResponse) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.current.Snapshot = resp
	r.current.UpdatedAt = time.Now()
}

// Snapshot returns the last configuration received from the controller
func (r *Repository) Snapshot() (*dto.PollResponse, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.current.Snapshot, r.current.Snapshot != nil
}
