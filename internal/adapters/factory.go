package adapters

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/pkg/config"
)

// Factory builds one adapter from its source configuration and the installed
// upstream clients. A factory per source type is registered in this package;
// the daemon instantiates adapters for every enabled source at startup.
type Factory func(src config.SourceData, fetch config.FetchData, clients Clients, logger *zap.SugaredLogger) (Adapter, error)

var (
	factoryMu sync.RWMutex
	factories = make(map[string]Factory)
)

// RegisterFactory registers the factory for a source type. The built-in
// types register in this package's init; embedders may add their own.
func RegisterFactory(sourceType string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[sourceType] = f
}

// RegisteredTypes lists the source types with a registered factory, sorted.
func RegisteredTypes() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	out := make([]string, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Build instantiates the adapter for one source config.
func Build(src config.SourceData, fetch config.FetchData, clients Clients, logger *zap.SugaredLogger) (Adapter, error) {
	factoryMu.RLock()
	f, ok := factories[src.Type]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no adapter factory registered for source type %q", src.Type)
	}
	return f(src, fetch, clients, logger)
}
