package main

import (
	"github.com/atmowatch/atmowatch/internal/adapters"
	"github.com/atmowatch/atmowatch/internal/log"
	"github.com/atmowatch/atmowatch/pkg/config"
)

// sourceClients assembles the upstream protocol clients. The daemon ships
// with the client slots empty; deployments install their provider, granule,
// and weather-model clients here before building.
func sourceClients() adapters.Clients {
	return adapters.Clients{}
}

// buildSources instantiates one adapter per enabled source. Sources whose
// type has no factory, or whose client is not installed, are skipped with a
// warning so a partially configured build still runs.
func buildSources(cfg *config.ConfigData, clients adapters.Clients) []adapters.Adapter {
	var sources []adapters.Adapter
	for _, src := range cfg.Sources {
		if !src.Enabled {
			continue
		}
		a, err := adapters.Build(src, cfg.Fetch, clients, log.GetSugaredLogger())
		if err != nil {
			log.Warnf("skipping source %q: %v (registered types: %v)",
				src.Name, err, adapters.RegisteredTypes())
			continue
		}
		sources = append(sources, a)
	}
	if len(sources) == 0 {
		log.Warn("no source adapters built; ingest cycles will persist nothing")
	}
	return sources
}
