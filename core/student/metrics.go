package student

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "unichat",
	Name:      "student_fetch_total",
	Help:      "Student detail fetches by result (primary, alternate, not_found, error).",
}, []string{"result"})
