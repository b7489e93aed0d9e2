package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "archlens_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "archlens_scan_seconds",
		Help:    "Time spent scanning the project tree.",
		Buckets: prometheus.DefBuckets,
	})

	GraphModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archlens_graph_modules_total",
		Help: "Number of module nodes in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archlens_graph_edges_total",
		Help: "Number of dependency edges in the graph.",
	})

	GraphCycles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archlens_graph_cycles_total",
		Help: "Number of elementary cycles found in the last analysis.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "archlens_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	FitnessViolations = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "archlens_fitness_violations",
		Help: "Violations reported by the last fitness run, per level.",
	}, []string{"level"})

	FitnessScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archlens_fitness_compliance_score",
		Help: "Compliance score of the last fitness run (0.0-1.0).",
	})

	PatternConfidence = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "archlens_pattern_confidence",
		Help: "Confidence of the last pattern detection run, per pattern.",
	}, []string{"pattern"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archlens_watcher_events_total",
		Help: "File system events received by the watcher.",
	})

	HistoryWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archlens_history_writes_total",
		Help: "Analysis snapshots persisted to the history store.",
	})
)
