// SPDX-License-Identifier: MIT

package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "puremvc_flow_events_submitted_total",
		Help: "Total number of events submitted to the flow pipeline",
	})

	eventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "puremvc_flow_events_processed_total",
		Help: "Total number of completed event pipelines by outcome",
	}, []string{"outcome"})

	stageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "puremvc_flow_stage_failures_total",
		Help: "Total number of pipeline stage failures by stage",
	}, []string{"stage"})

	eventsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "puremvc_flow_events_in_flight",
		Help: "Number of event pipelines currently between submit and unlock",
	})

	processDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "puremvc_flow_process_duration_seconds",
		Help:    "Wall time of one event pipeline from lock acquisition to lock release",
		Buckets: prometheus.DefBuckets,
	})
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)
