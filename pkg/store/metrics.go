package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreWrites tracks bytecode writes by backend and result
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytecodes_store_writes_total",
			Help: "Total number of bytecode writes by backend and result",
		},
		[]string{"backend", "result"}, // "memory"|"redis", "stored"|"deduplicated"
	)

	// StoreErrors tracks store operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytecodes_store_errors_total",
			Help: "Total number of store operation errors",
		},
		[]string{"backend", "operation"}, // "load", "get", "delete"
	)
)
