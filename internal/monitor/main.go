package monitor

import (
	"fmt"
	"strings"
)

// DefaultNamespace is the prometheus namespace shared by all services.
const DefaultNamespace = "wms"

type MetricType string

const (
	MetricTypePrometheus MetricType = "PROMETHEUS"
)

func ParseMetricType(metricTypeStr string) (MetricType, error) {
	metricTypeStrUpper := strings.ToUpper(metricTypeStr)
	mType := MetricType(metricTypeStrUpper)

	switch mType {
	case MetricTypePrometheus:
		return mType, nil
	default:
		return "", fmt.Errorf("invalid metric type %q", metricTypeStrUpper)
	}
}

type MetricSubservice string

const (
	DBSubservice MetricSubservice = "db"
)

// FuncMetricType identifies the collector kind created by RegisterFunctionMetric.
type FuncMetricType string

const (
	FuncGaugeType   FuncMetricType = "gauge"
	FuncCounterType FuncMetricType = "counter"
)

// FuncMetricOptions describes a function-backed metric, sampled by prometheus on scrape.
type FuncMetricOptions struct {
	Namespace  string
	Subservice string
	Name       string
	Help       string
	Labels     map[string]string
	Function   func() float64
}

type MetricOptions struct {
	MetricType  MetricType
	Environment string
}

func GetClient(opts MetricOptions) (MonitorClient, error) {
	switch opts.MetricType {
	case MetricTypePrometheus:
		return NewPrometheusClient()
	default:
		return nil, fmt.Errorf("unknown metric type: %q", opts.MetricType)
	}
}
