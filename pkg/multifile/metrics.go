// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	containersOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "multifile",
		Name:      "containers_open",
		Help:      "The number of open containers",
	})

	blocksAllocated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multifile",
		Name:      "blocks_allocated_total",
		Help:      "Blocks allocated, by where they came from",
	}, []string{"source"})

	blocksReleased = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multifile",
		Name:      "blocks_released_total",
		Help:      "Blocks returned to the free pool",
	})

	streamsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multifile",
		Name:      "streams_opened_total",
		Help:      "Streams opened, by mode",
	}, []string{"mode"})

	bytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multifile",
		Name:      "bytes_written_total",
		Help:      "Stream bytes written",
	})

	bytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multifile",
		Name:      "bytes_read_total",
		Help:      "Stream bytes read",
	})
)
