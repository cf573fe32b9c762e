package config

// PluginConfig stores the type name of a plugin and raw configuration data
// for it. Each plugin is responsible for decoding the raw map into its own
// concrete configuration struct.
type PluginConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

const (
	// TargetProxy replays a step on the proxy action set.
	TargetProxy = "proxy"
	// TargetReal replays a step on the host action set.
	TargetReal = "real"
)

// Step is one scripted action call.
type Step struct {
	Action string `json:"action"`
	// Target is TargetProxy (default) or TargetReal.
	Target string `json:"target"`
	Args   []any  `json:"args"`
}
