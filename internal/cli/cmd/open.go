package cmd

import (
	"errors"
	"fmt"

	"parley/pkg/directory"
	"parley/pkg/search"
	"parley/pkg/state"
	"parley/pkg/store"
	"parley/pkg/store/kv"
)

var (
	errNoDB              = errors.New("database path required: pass --db or set db_path in the config file")
	errEmptyConversation = errors.New("conversation id must not be empty")
)

func (o *options) openDB() (*kv.Pebble, error) {
	if o.dbPath == "" {
		return nil, errNoDB
	}
	db, err := kv.OpenPebble(state.StorePath(o.dbPath), kv.PebbleOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", o.dbPath, err)
	}
	return db, nil
}

// view is a loaded, read-only copy of a database.
type view struct {
	db     *kv.Pebble
	store  *store.Store
	dir    *directory.Directory
	engine *search.Engine
}

func (o *options) load() (*view, error) {
	db, err := o.openDB()
	if err != nil {
		return nil, err
	}
	st := store.New(store.WithBackend(db))
	if err := st.LoadAll(); err != nil {
		_ = db.Close()
		return nil, err
	}
	dir := directory.FromBackend(db)
	if err := dir.Load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &view{db: db, store: st, dir: dir, engine: search.NewEngine(st)}, nil
}

func (v *view) Close() error { return v.db.Close() }
