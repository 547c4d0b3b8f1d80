package dispatch

import "github.com/OmniCloudOrg/CPI-Detee/internal/core/domain"

// workerPayload is the canonical worker shape callers see. The CLI's uuid is
// exposed as the canonical id; everything else passes through unchanged.
// Mapping is deterministic: the same record always yields the same payload.
type workerPayload struct {
	ID         string  `json:"id"`
	Hostname   string  `json:"hostname"`
	City       string  `json:"city,omitempty"`
	Distro     string  `json:"distro,omitempty"`
	VCPUs      int64   `json:"vcpus"`
	MemoryMB   int64   `json:"memory_mb"`
	DiskGB     int64   `json:"disk_gb"`
	Hours      int64   `json:"hours,omitempty"`
	Price      string  `json:"price,omitempty"`
	TotalUnits int64   `json:"total_units,omitempty"`
	LockedLP   float64 `json:"locked_lp,omitempty"`
	LPPerHour  float64 `json:"lp_per_hour,omitempty"`
	SSHHost    string  `json:"ssh_host,omitempty"`
	SSHPort    int64   `json:"ssh_port,omitempty"`
	TimeLeft   string  `json:"time_left,omitempty"`
	Status     string  `json:"status"`
}

func mapWorker(w domain.Worker) workerPayload {
	return workerPayload{
		ID:         w.UUID,
		Hostname:   w.Hostname,
		City:       w.City,
		Distro:     w.Distro,
		VCPUs:      w.VCPUs,
		MemoryMB:   w.MemoryMB,
		DiskGB:     w.DiskGB,
		Hours:      w.Hours,
		Price:      w.Price,
		TotalUnits: w.TotalUnits,
		LockedLP:   w.LockedLP,
		LPPerHour:  w.LPPerHour,
		SSHHost:    w.SSHHost,
		SSHPort:    w.SSHPort,
		TimeLeft:   w.TimeLeft,
		Status:     w.Status,
	}
}

func mapWorkers(ws []domain.Worker) []workerPayload {
	out := make([]workerPayload, 0, len(ws))
	for _, w := range ws {
		out = append(out, mapWorker(w))
	}
	return out
}

type workersPayload struct {
	Workers []workerPayload `json:"workers"`
}

type existsPayload struct {
	Exists bool `json:"exists"`
}

type setupPayload struct {
	ContainerID string `json:"container_id"`
}

type deletedPayload struct {
	Deleted bool `json:"deleted"`
}
