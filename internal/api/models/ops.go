package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SubsystemStatus represents the status of a subsystem.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// NetworkStatus describes the loaded network snapshot.
type NetworkStatus struct {
	Loaded    bool       `json:"loaded"`
	Fresh     bool       `json:"fresh"`
	Zones     int        `json:"zones"`
	Networks  []string   `json:"networks"`
	FetchedAt *Timestamp `json:"fetchedAt,omitempty"`
}

// SystemStatus is the detailed operational status of the service.
type SystemStatus struct {
	Status     HealthStatus      `json:"status"`
	Time       Timestamp         `json:"time"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	Network    NetworkStatus     `json:"network"`
}
