package store

import (
	"context"

	"github.com/voyagen/mythvault/internal/models"
)

const (
	settingBackendIP   = "BackendServerIP"
	settingBackendPort = "BackendServerPort"
	settingMasterIP    = "MasterServerIP"
	settingMasterName  = "MasterServerName"
)

// Backends are every host with a BackendServerIP setting; the port comes from
// the same host's BackendServerPort.
const backendsQuery = `
SELECT ip.hostname, ip.data, port.data
FROM settings ip
LEFT JOIN settings port
  ON port.hostname = ip.hostname AND port.value = '` + settingBackendPort + `'
WHERE ip.value = '` + settingBackendIP + `'
  AND ip.hostname IS NOT NULL
  AND COALESCE(ip.data, '') <> ''
ORDER BY ip.hostname`

const masterSettingsQuery = `
SELECT value, data
FROM settings
WHERE value IN ('` + settingMasterIP + `', '` + settingMasterName + `')
  AND hostname IS NULL`

// ListBackends rebuilds the backend list from settings rows.
func (p *Postgres) ListBackends(ctx context.Context) ([]models.Backend, error) {
	rows, err := collect(ctx, p, "ListBackends", backendsQuery, rowToBackendRow)
	if err != nil {
		return nil, err
	}
	pairs, err := collect(ctx, p, "ListBackends", masterSettingsQuery, rowToSettingPair)
	if err != nil {
		return nil, err
	}

	var sel masterSelector
	for _, kv := range pairs {
		switch kv.key {
		case settingMasterIP:
			sel.ip = text(kv.value)
		case settingMasterName:
			sel.name = text(kv.value)
		}
	}

	backends := make([]models.Backend, 0, len(rows))
	for _, r := range rows {
		backends = append(backends, r.backend())
	}
	assignRoles(backends, sel)
	return backends, nil
}

// MasterBackend returns the master backend or ErrNoMasterBackend.
func (p *Postgres) MasterBackend(ctx context.Context) (*models.Backend, error) {
	backends, err := p.ListBackends(ctx)
	if err != nil {
		return nil, err
	}
	return masterOf(backends)
}

// ListSlaveBackends returns every backend that is not the master.
func (p *Postgres) ListSlaveBackends(ctx context.Context) ([]models.Backend, error) {
	backends, err := p.ListBackends(ctx)
	if err != nil {
		return nil, err
	}
	return slavesOf(backends), nil
}

// ResolveBackend returns the backend whose hostname or IP matches token, or nil.
func (p *Postgres) ResolveBackend(ctx context.Context, token string) (*models.Backend, error) {
	backends, err := p.ListBackends(ctx)
	if err != nil {
		return nil, err
	}
	return resolveIn(backends, token), nil
}
