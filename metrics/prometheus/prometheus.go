// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package prometheus exposes the pool's internal metrics registry through the
// Prometheus gathering interface.
package prometheus

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/luxfi/geth/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registry is the subset of the metrics registry the gatherer reads.
type Registry interface {
	// Each calls the given function for each registered metric.
	Each(func(string, any))
	// Get returns the metric registered under name, or nil.
	Get(string) any
}

var _ Registry = (*metrics.StandardRegistry)(nil)

// Gatherer implements [prometheus.Gatherer] over a metrics registry, so the
// pool's gauges, meters and timers can be served from a /metrics endpoint.
type Gatherer struct {
	registry Registry
}

var _ prometheus.Gatherer = (*Gatherer)(nil)

// NewGatherer returns a Gatherer reading from the given registry.
func NewGatherer(registry Registry) *Gatherer {
	return &Gatherer{registry: registry}
}

// Gather collects all registered metrics as Prometheus metric families,
// sorted by name so scrapes are stable.
func (g *Gatherer) Gather() ([]*dto.MetricFamily, error) {
	var names []string
	g.registry.Each(func(name string, _ any) {
		names = append(names, name)
	})
	sort.Strings(names)

	mfs := make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		mf, err := metricFamily(g.registry, name)
		switch {
		case errors.Is(err, errMetricSkip):
			continue
		case err != nil:
			return nil, err
		}
		mfs = append(mfs, mf)
	}
	return mfs, nil
}

var errMetricSkip = errors.New("metric skipped")

var timerQuantiles = []float64{.5, .75, .95, .99, .999}

func ptrTo[T any](x T) *T { return &x }

func metricFamily(registry Registry, name string) (*dto.MetricFamily, error) {
	metric := registry.Get(name)
	if metric == nil {
		return nil, fmt.Errorf("%w: %q is nil", errMetricSkip, name)
	}
	flatName := strings.ReplaceAll(name, "/", "_")

	switch m := metric.(type) {
	case *metrics.Counter:
		return &dto.MetricFamily{
			Name: &flatName,
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{{
				Counter: &dto.Counter{Value: ptrTo(float64(m.Snapshot().Count()))},
			}},
		}, nil

	case *metrics.Gauge:
		return &dto.MetricFamily{
			Name: &flatName,
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: ptrTo(float64(m.Snapshot().Value()))},
			}},
		}, nil

	case *metrics.Meter:
		return &dto.MetricFamily{
			Name: &flatName,
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: ptrTo(float64(m.Snapshot().Count()))},
			}},
		}, nil

	case *metrics.Timer:
		snapshot := m.Snapshot()
		if snapshot.Count() == 0 {
			return nil, fmt.Errorf("%w: %q timer has no data", errMetricSkip, name)
		}
		thresholds := snapshot.Percentiles(timerQuantiles)
		quantiles := make([]*dto.Quantile, len(timerQuantiles))
		for i, q := range timerQuantiles {
			quantiles[i] = &dto.Quantile{
				Quantile: ptrTo(q),
				Value:    ptrTo(thresholds[i] / float64(time.Millisecond)),
			}
		}
		return &dto.MetricFamily{
			Name: &flatName,
			Type: dto.MetricType_SUMMARY.Enum(),
			Metric: []*dto.Metric{{
				Summary: &dto.Summary{
					SampleCount: ptrTo(uint64(snapshot.Count())),
					SampleSum:   ptrTo(float64(snapshot.Sum())),
					Quantile:    quantiles,
				},
			}},
		}, nil

	default:
		// Kinds the pool never registers are left out of the scrape rather
		// than failing it.
		return nil, fmt.Errorf("%w: %q has unsupported type %T", errMetricSkip, name, metric)
	}
}
