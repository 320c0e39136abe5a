package models

// Settings параметры биллинга и провижининга.
type Settings struct {
	RenewalEnabled      bool  `json:"renewal_enabled"`
	RenewalDays         int   `json:"renewal_days"`
	RenewalCost         int64 `json:"renewal_cost"`
	SuspendGraceDays    int   `json:"suspend_grace_days"`
	ProvisioningEnabled bool  `json:"provisioning_enabled"`
}
