/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package reachout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	outreachRunsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reachout",
			Name:      "runs_total",
			Help:      "Total outreach runs by final status.",
		},
		[]string{"status"}, // completed, cancelled, failed
	)

	outreachOutcomesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reachout",
			Name:      "outcomes_total",
			Help:      "Total candidate outcomes by status.",
		},
		[]string{"status"},
	)

	outreachRunDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reachout",
			Name:      "run_duration_seconds",
			Help:      "Wall time of an outreach run, operator review included.",
			Buckets:   []float64{1, 10, 30, 60, 300, 900, 1800, 3600},
		},
	)

	approvalWaitHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reachout",
			Name:      "approval_wait_seconds",
			Help:      "Time an operator took to answer a preview.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"decision"}, // approved, rejected, expired
	)

	confirmationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reachout",
			Name:      "confirmations_total",
			Help:      "Confirmation link visits by result.",
		},
		[]string{"result"},
	)
)
