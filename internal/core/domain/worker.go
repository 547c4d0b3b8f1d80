package domain

// Worker represents a DeTEE virtual machine tracked by its uuid. The uuid is
// assigned by the CLI at deploy time and never changes; it is the sole key
// used for lookups and mutations.
type Worker struct {
	UUID       string  `json:"uuid"`
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

// Account is the operator identity registered with the brain. All fields come
// straight from what the CLI reports; none are derived.
type Account struct {
	ConfigPath          string `json:"config_path"`
	BrainURL            string `json:"brain_url"`
	SSHKeyPath          string `json:"ssh_key_path"`
	WalletPublicKey     string `json:"wallet_public_key"`
	AccountBalance      string `json:"account_balance"`
	WalletSecretKeyPath string `json:"wallet_secret_key_path"`
}

// InstallInfo reports the CLI version found inside the container.
type InstallInfo struct {
	Version string `json:"version"`
}

// UpdateReceipt reports what an update command actually changed.
type UpdateReceipt struct {
	HardwareModified bool  `json:"hardware_modified"`
	HoursUpdated     int64 `json:"hours_updated,omitempty"`
}
