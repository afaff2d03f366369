package main

import (
	"flag"
	"fmt"

	"github.com/dragginzgame/icydb-sub004/internal/store"
)

func runStats() error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
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

	report, err := s.Snapshot()
	if err != nil {
		return err
	}

	fmt.Printf("data entries:   %d\n", report.DataEntries)
	fmt.Printf("index entries:  %d (user %d, system %d)\n", report.IndexEntries, report.UserIndexEntries, report.SystemEntries)
	if report.CorruptedKeys > 0 || report.CorruptedEntries > 0 {
		fmt.Printf("corrupted keys: %d, corrupted entries: %d\n", report.CorruptedKeys, report.CorruptedEntries)
	}
	for _, e := range report.Entities {
		fmt.Printf("  %-24s entries=%-8d bytes=%d\n", e.Entity, e.Entries, e.MemoryBytes)
	}
	return nil
}

func resolveDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return LoadConfig().DataDir
}
