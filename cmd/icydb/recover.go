package main

import (
	"flag"
	"fmt"

	"github.com/dragginzgame/icydb-sub004/internal/store"
)

func runRecover() error {
	fs := flag.NewFlagSet("recover", flag.ExitOnError)
	dbPath := fs.String("db", "", "database directory (defaults to icydb.yaml's dataDir)")
	fs.Parse(flag.Args())

	path := resolveDataDir(*dbPath)
	if path == "" {
		return fmt.Errorf("no database directory given: pass --db or set dataDir in icydb.yaml")
	}

	s, err := store.Open(store.Options{Path: path})
	if err != nil {
		return err
	}
	defer s.Close()

	_, pending, err := s.PendingMarker()
	if err != nil {
		return err
	}
	if !pending {
		fmt.Println("no pending commit marker")
		return nil
	}

	if err := s.Recover(func(store.RowOp) error { return nil }); err != nil {
		return err
	}
	fmt.Println("recovered pending commit marker")
	return nil
}
