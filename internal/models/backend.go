package models

import "fmt"

// Backend is a capture/recording host. Exactly one backend is the master;
// every other backend is a slave.
type Backend struct {
	Hostname  string `json:"hostname"`
	IPAddress string `json:"ip_address"`
	Port      int    `json:"port"`
	Master    bool   `json:"master"`
	Slave     bool   `json:"slave"`
}

func (b Backend) String() string {
	role := "slave"
	if b.Master {
		role = "master"
	}
	return fmt.Sprintf("%s (%s:%d, %s)", b.Hostname, b.IPAddress, b.Port, role)
}

// DefaultBackendPort is the control port used when a host has no BackendServerPort setting.
const DefaultBackendPort = 6543
