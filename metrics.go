package vista

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolutionsTotal counts completed default dataset passes by outcome.
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vista_default_dataset_resolutions_total",
		Help: "Total number of default dataset resolution passes by outcome",
	}, []string{"outcome"})

	// resolutionErrorsTotal counts failed passes by the step that failed.
	resolutionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vista_default_dataset_resolution_errors_total",
		Help: "Total number of default dataset resolution failures by stage",
	}, []string{"stage"})
)
