package store

import (
	"strings"

	"github.com/voyagen/mythvault/internal/models"
)

// HostIndex resolves a hostname or IP address to a backend. Hostnames and
// addresses share one case-folded key space; the first backend to claim a
// key keeps it.
type HostIndex struct {
	byToken map[string]models.Backend
}

// NewHostIndex indexes backends by hostname and IP address.
func NewHostIndex(backends []models.Backend) *HostIndex {
	idx := &HostIndex{byToken: make(map[string]models.Backend, len(backends)*2)}
	for _, b := range backends {
		for _, token := range []string{b.Hostname, b.IPAddress} {
			key := normalizeHost(token)
			if key == "" {
				continue
			}
			if _, taken := idx.byToken[key]; !taken {
				idx.byToken[key] = b
			}
		}
	}
	return idx
}

// Lookup returns the backend known by token.
func (h *HostIndex) Lookup(token string) (models.Backend, bool) {
	key := normalizeHost(token)
	if key == "" {
		return models.Backend{}, false
	}
	b, ok := h.byToken[key]
	return b, ok
}

func normalizeHost(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// masterSelector holds the global settings that designate the master.
type masterSelector struct {
	ip   string // MasterServerIP
	name string // MasterServerName
}

// assignRoles marks exactly one backend as master: the one named by
// MasterServerName, else the first whose address is MasterServerIP.
// Every other backend is a slave.
func assignRoles(backends []models.Backend, sel masterSelector) {
	master := -1
	if sel.name != "" {
		for i, b := range backends {
			if strings.EqualFold(b.Hostname, sel.name) {
				master = i
				break
			}
		}
	}
	if master < 0 && sel.ip != "" {
		for i, b := range backends {
			if b.IPAddress == sel.ip {
				master = i
				break
			}
		}
	}
	for i := range backends {
		backends[i].Master = i == master
		backends[i].Slave = i != master
	}
}

func masterOf(backends []models.Backend) (*models.Backend, error) {
	for _, b := range backends {
		if b.Master {
			return &b, nil
		}
	}
	return nil, ErrNoMasterBackend
}

func slavesOf(backends []models.Backend) []models.Backend {
	slaves := make([]models.Backend, 0, len(backends))
	for _, b := range backends {
		if b.Slave && !b.Master {
			slaves = append(slaves, b)
		}
	}
	return slaves
}

func resolveIn(backends []models.Backend, token string) *models.Backend {
	if b, ok := NewHostIndex(backends).Lookup(token); ok {
		return &b
	}
	return nil
}
