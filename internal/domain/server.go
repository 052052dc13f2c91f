package domain

import "fmt"

// ServerInfo identifies the backend record server and carries the shared
// secret used to sign requests for devices that have no credentials yet.
// It is supplied externally (settings endpoint) and kept in the keyed store.
type ServerInfo struct {
	Host   string `json:"host"` // includes scheme, e.g. "http://10.0.0.2"
	Port   int    `json:"port"`
	Secret string `json:"secret"`
}

// BaseURL returns "host:port", the authority every signed path is appended to.
func (s ServerInfo) BaseURL() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
