package models

// Monitor represents a single Shinobi camera as returned by GET /smonitor.
// Shinobi sends many more fields (details, mode, fps...); they are dropped.
type Monitor struct {
	ID     string `json:"mid"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}
