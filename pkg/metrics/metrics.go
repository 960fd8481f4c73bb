// Package metrics keeps short-lived time series for checkout outcomes and
// process gauges on top of tstorage.
package metrics

import (
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"github.com/pkg/errors"
)

const (
	MetricCheckout = "checkout"

	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultFailure  = "failure"

	GaugeSystemMem  = "system_memuse"
	GaugeProcessCPU = "ekuator_cpuuse"
	GaugeProcessMem = "ekuator_memuse"
)

var checkoutResults = []string{ResultSuccess, ResultConflict, ResultFailure}

// SystemGauges are sampled by the monitor jobs.
var SystemGauges = []string{GaugeSystemMem, GaugeProcessCPU, GaugeProcessMem}

// Store is a tstorage-backed metric store. Points are written with
// strictly increasing timestamps because tstorage does not return
// out-of-order points from its head partition.
type Store struct {
	mu     sync.Mutex
	db     tstorage.Storage
	lastTs int64
}

// NewStore opens a store under dataPath, or in memory when dataPath is empty.
func NewStore(dataPath string) (*Store, error) {
	opts := []tstorage.Option{
		tstorage.WithTimestampPrecision(tstorage.Nanoseconds),
		tstorage.WithPartitionDuration(6 * time.Hour),
		tstorage.WithRetention(7 * 24 * time.Hour),
	}
	if dataPath != "" {
		opts = append(opts, tstorage.WithDataPath(dataPath))
	}
	db, err := tstorage.NewStorage(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "open metrics storage")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) insert(metric string, labels []tstorage.Label, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := time.Now().UnixNano()
	if ts <= s.lastTs {
		ts = s.lastTs + 1
	}
	s.lastTs = ts
	return s.db.InsertRows([]tstorage.Row{{
		Metric:    metric,
		Labels:    labels,
		DataPoint: tstorage.DataPoint{Timestamp: ts, Value: value},
	}})
}

// SetGauge records the current value of a named gauge.
func (s *Store) SetGauge(name string, value int64) error {
	return s.insert(name, nil, float64(value))
}

// LastGauge returns the most recent value of a gauge within the window.
func (s *Store) LastGauge(name string, window time.Duration) (int64, bool, error) {
	end := time.Now().UnixNano() + 1
	points, err := s.db.Select(name, nil, end-int64(window), end)
	if errors.Is(err, tstorage.ErrNoDataPoints) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "select %s", name)
	}
	if len(points) == 0 {
		return 0, false, nil
	}
	return int64(points[len(points)-1].Value), true, nil
}

// Gauges returns the latest value of each system gauge seen within the
// window. Gauges with no recent sample map to nil.
func (s *Store) Gauges(window time.Duration) (map[string]*int64, error) {
	out := make(map[string]*int64, len(SystemGauges))
	for _, name := range SystemGauges {
		v, ok, err := s.LastGauge(name, window)
		if err != nil {
			return nil, err
		}
		if ok {
			out[name] = &v
		} else {
			out[name] = nil
		}
	}
	return out, nil
}

// ObserveCheckout records one purchase attempt. total is only meaningful
// for successful checkouts.
func (s *Store) ObserveCheckout(result string, total int64) {
	_ = s.insert(MetricCheckout, []tstorage.Label{{Name: "result", Value: result}}, float64(total))
}

// CheckoutSummary aggregates purchase attempts.
type CheckoutSummary struct {
	Hours     int   `json:"hours"`
	Successes int64 `json:"successes"`
	Conflicts int64 `json:"conflicts"`
	Failures  int64 `json:"failures"`
	Revenue   int64 `json:"revenue"`
}

// Summary aggregates checkouts over the last hours.
func (s *Store) Summary(hours int) (CheckoutSummary, error) {
	if hours <= 0 {
		hours = 24
	}
	sum := CheckoutSummary{Hours: hours}
	end := time.Now().UnixNano() + 1
	start := end - int64(time.Duration(hours)*time.Hour)
	for _, result := range checkoutResults {
		points, err := s.db.Select(MetricCheckout, []tstorage.Label{{Name: "result", Value: result}}, start, end)
		if errors.Is(err, tstorage.ErrNoDataPoints) {
			continue
		}
		if err != nil {
			return sum, errors.Wrapf(err, "select %s/%s", MetricCheckout, result)
		}
		switch result {
		case ResultSuccess:
			sum.Successes = int64(len(points))
			for _, p := range points {
				sum.Revenue += int64(p.Value)
			}
		case ResultConflict:
			sum.Conflicts = int64(len(points))
		case ResultFailure:
			sum.Failures = int64(len(points))
		}
	}
	return sum, nil
}

var (
	defaultMu    sync.RWMutex
	defaultStore *Store
)

// InitMetrics opens the process-wide store under workdir/data/metrics.
// An empty workdir keeps the series in memory.
func InitMetrics(dataPath string) error {
	store, err := NewStore(dataPath)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore != nil {
		_ = defaultStore.Close()
	}
	defaultStore = store
	return nil
}

// Default returns the process-wide store, nil before InitMetrics.
func Default() *Store {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultStore
}

func Close() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore == nil {
		return nil
	}
	err := defaultStore.Close()
	defaultStore = nil
	return err
}
