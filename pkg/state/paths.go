package state

import "path/filepath"

// Paths is the on-disk layout under a database root.
type Paths struct {
	DB    string
	Store string // pebble data
	State string
	Tel   string // telemetry traces
	Tmp   string
	Crash string // crash dumps and abort requests
	Abort string
}

func PathsFor(dbPath string) Paths {
	statePath := filepath.Join(dbPath, "state")
	return Paths{
		DB:    dbPath,
		Store: filepath.Join(dbPath, "store"),

		State: statePath,
		Tel:   filepath.Join(statePath, "telemetry"),
		Tmp:   filepath.Join(statePath, "tmp"),
		Crash: filepath.Join(statePath, "crash"),
		Abort: filepath.Join(statePath, "abort"),
	}
}

func StorePath(dbPath string) string { return PathsFor(dbPath).Store }
