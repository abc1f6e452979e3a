package softap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	startResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "softapd_start_results_total",
		Help: "Soft AP start outcomes by result",
	}, []string{"result"})
	apEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "softapd_ap_events_total",
		Help: "AP interface up/down events",
	}, []string{"event"})
	associatedStations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "softapd_associated_stations",
		Help: "Currently associated stations",
	})
	blockedClients = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "softapd_blocked_clients_total",
		Help: "Clients rejected by the admission policy, by reason",
	}, []string{"reason"})
	bandPreferenceViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "softapd_band_preference_violations_total",
		Help: "Single-AP starts whose operating band differs from the requested one",
	})
	maxSupportedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "softapd_max_supported_clients",
		Help: "Hardware client limit from the last capability update",
	})
)
