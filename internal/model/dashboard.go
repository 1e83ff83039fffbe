package model

// DashboardSummary backs the staff dashboard counters.
type DashboardSummary struct {
	Clinics        int `json:"clinics"`
	Doctors        int `json:"doctors"`
	PendingDoctors int `json:"pending_doctors"`
	Staff          int `json:"staff"`
}
