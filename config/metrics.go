package config

import "fmt"

// MetricsConfig selects the metric sinks: the Prometheus exporter and a
// sink writing records as debug log entries.
type MetricsConfig struct {
	PrometheusEnabled bool `json:"prometheus_enabled"`
	PrometheusPort    int  `json:"prometheus_port"`
	LogEnabled        bool `json:"log_enabled"`
}

func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusPort == 0 {
		c.PrometheusPort = 9108
	}
}

func (c MetricsConfig) Validate() error {
	if c.PrometheusPort < 0 || c.PrometheusPort > 65535 {
		return fmt.Errorf("invalid prometheus_port %d", c.PrometheusPort)
	}
	return nil
}
