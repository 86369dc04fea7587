package service

import "github.com/prometheus/client_golang/prometheus"

var (
	leadImportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "crm_lead_import_rows_total", Help: "Imported lead rows by outcome"},
		[]string{"outcome"}, // inserted | invalid | duplicate
	)
	leadStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "crm_lead_status_changes_total", Help: "Lead status assignments by target status"},
		[]string{"status"},
	)
	callsLogged = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "crm_calls_logged_total", Help: "Call logs recorded"},
	)
	candidatesProvisioned = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "crm_candidates_provisioned_total", Help: "Candidate accounts created by shortlisting"},
	)
)

func init() {
	prometheus.MustRegister(leadImportRows, leadStatusChanges, callsLogged, candidatesProvisioned)
}
