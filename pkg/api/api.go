// Package api exposes the messaging core over fasthttp.
package api

import (
	"parley/pkg/directory"
	"parley/pkg/presence"
	"parley/pkg/search"
	"parley/pkg/sensor"
	"parley/pkg/store"
)

// Deps are the components the handlers operate on. Snapshot, Ready and
// Sensor are optional.
type Deps struct {
	Store     *store.Store
	Directory *directory.Directory
	Presence  *presence.Tracker
	Search    *search.Engine

	// Snapshot flushes dirty conversations and reports how many were saved.
	Snapshot func() (int, error)
	// Ready reports whether the backend can serve requests.
	Ready   func() error
	Sensor  *sensor.Sensor
	Version string
}

// API holds the request handlers.
type API struct {
	store    *store.Store
	dir      *directory.Directory
	presence *presence.Tracker
	search   *search.Engine
	snapshot func() (int, error)
	ready    func() error
	sensor   *sensor.Sensor
	version  string
}

func New(d Deps) *API {
	a := &API{
		store:    d.Store,
		dir:      d.Directory,
		presence: d.Presence,
		search:   d.Search,
		snapshot: d.Snapshot,
		ready:    d.Ready,
		sensor:   d.Sensor,
		version:  d.Version,
	}
	if a.dir == nil {
		a.dir = directory.New(nil)
	}
	if a.presence == nil {
		a.presence = presence.New()
	}
	if a.search == nil {
		a.search = search.NewEngine(a.store)
	}
	if a.version == "" {
		a.version = "dev"
	}
	return a
}
