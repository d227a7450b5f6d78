package server

// JSON payloads for the service's informational endpoints

// RootResponse describes how to use the service
type RootResponse struct {
	Message    string   `json:"message"`
	Operations []string `json:"operations"`
}

// PingResponse confirms server is alive
type PingResponse struct {
	Uptime  float64 `json:"uptime_seconds"`
	Version string  `json:"version"`
}

// StatusResponse reports whether the store is readable and what it holds
type StatusResponse struct {
	Ready     bool   `json:"ready"`
	UserCount int    `json:"user_count"`
	Backend   string `json:"backend"`
	Revision  string `json:"revision,omitempty"`
	Error     string `json:"error,omitempty"`
}
