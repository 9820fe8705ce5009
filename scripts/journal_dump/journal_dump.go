package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/6529-Collections/seastark-indexer/internal/starknet"
	"github.com/dgraph-io/badger/v4"
)

func main() {
	dbPath := flag.String("db", "./db/badger", "Path to the block journal BadgerDB")
	outputMode := flag.String("o", "console", "Output mode: 'console' or 'file'")
	outputFile := flag.String("f", "journal.txt", "Output file (if mode is 'file')")
	flag.Parse()

	var out *os.File
	var err error

	if *outputMode == "file" {
		out, err = os.Create(*outputFile)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer out.Close()
		fmt.Println("Dumping block journal to file", *outputFile)
	} else {
		out = os.Stdout
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true).WithLogger(nil))
	if err != nil {
		log.Fatalf("Failed to open BadgerDB: %v", err)
	}
	defer db.Close()

	if err := dumpJournal(out, starknet.NewBlockJournal(db)); err != nil {
		log.Fatalf("Error while dumping journal: %v", err)
	}
}

func dumpJournal(w io.Writer, journal starknet.BlockJournal) error {
	blocks, err := journal.Blocks()
	if err != nil {
		return fmt.Errorf("failed to read journaled blocks: %w", err)
	}
	invalidations, err := journal.Invalidations()
	if err != nil {
		return fmt.Errorf("failed to read invalidations: %w", err)
	}

	fmt.Fprintf(w, "Blocks (%d)\n", len(blocks))
	for _, b := range blocks {
		fmt.Fprintf(w, "  %d %s\n", b.Height, b.Hash.Hex())
	}
	fmt.Fprintf(w, "Invalidations (%d)\n", len(invalidations))
	for _, inv := range invalidations {
		fmt.Fprintf(w, "  %d received %s\n", inv.Sequence, inv.ReceivedAt.UTC().Format(time.RFC3339))
	}
	return nil
}
