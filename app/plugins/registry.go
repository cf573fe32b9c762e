package plugins

import (
	"github.com/kilianp07/altproxy/core/catalog"
	"github.com/kilianp07/altproxy/core/flux"
)

// Stores holds the store descriptor constructors available to scenarios.
var Stores = catalog.NewRegistry[flux.StoreDescriptor]()

// RegisterStore adds a store type. It panics on duplicates.
func RegisterStore(name string, c catalog.Constructor[flux.StoreDescriptor]) {
	Stores.MustRegister(name, c)
}

// NewStore builds the descriptor for a configured store type.
func NewStore(typ string, conf map[string]any) (flux.StoreDescriptor, error) {
	return Stores.Create(typ, conf)
}
