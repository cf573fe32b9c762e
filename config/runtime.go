package config

import "fmt"

const (
	// ActionCheckPermissive accepts real actions of any shape.
	ActionCheckPermissive = "permissive"
	// ActionCheckStrict requires real actions to expose every proxied action.
	ActionCheckStrict = "strict"
)

// RuntimeConfig controls isolated runtime behavior.
type RuntimeConfig struct {
	// OnDuplicate is "reject" or "replace".
	OnDuplicate string `json:"on_duplicate"`
	// ActionCheck is ActionCheckPermissive or ActionCheckStrict.
	ActionCheck string `json:"action_check"`
}

func (c *RuntimeConfig) SetDefaults() {
	if c.OnDuplicate == "" {
		c.OnDuplicate = "reject"
	}
	if c.ActionCheck == "" {
		c.ActionCheck = ActionCheckPermissive
	}
}

func (c RuntimeConfig) Validate() error {
	if c.OnDuplicate != "reject" && c.OnDuplicate != "replace" {
		return fmt.Errorf("unknown on_duplicate %s", c.OnDuplicate)
	}
	if c.ActionCheck != ActionCheckPermissive && c.ActionCheck != ActionCheckStrict {
		return fmt.Errorf("unknown action_check %s", c.ActionCheck)
	}
	return nil
}
