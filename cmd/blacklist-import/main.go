package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"speedguard/internal/dto"
		"speedguard/internal/repository/sqlite"
)

const importReason = "Imported from CSV"

func main() {
	csvPath := flag.String("csv", "blacklist.csv", "CSV file with numberplate[,reason] rows")
	dbPath := flag.String("db", "data/speedguard.db", "Database path")
	flag.Parse()

	fmt.Printf("Importing blacklist from %s to database %s\n", *csvPath, *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV: %v", err)
	}
	defer f.Close()

	entries, skipped, err := readEntries(f)
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No plates found to import")
		return
	}

	blacklist := sqlite.NewBlacklistRepository(db)
	ctx := context.Background()
	imported := 0
	for _, e := range entries {
		if err := blacklist.Add(ctx, e.Plate(), e.ReasonOrDefault()); err != nil {
			log.Printf("⚠️  Skipping %s: %v", e.Plate(), err)
			skipped++
			continue
		}
		imported++
	}

	fmt.Printf("✅ Successfully imported %d plates\n", imported)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d rows (empty plate or errors)\n", skipped)
	}

	all, err := blacklist.GetAll(ctx)
	if err == nil {
		fmt.Printf("\n📊 Blacklist now holds %d plates\n", len(all))
	}
}

// readEntries parses numberplate[,reason] rows. A first row starting with
// "numberplate" is treated as a header.
func readEntries(r io.Reader) ([]dto.BlacklistRequest, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var entries []dto.BlacklistRequest
	skipped := 0
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "numberplate") {
			continue
		}

		entry := dto.BlacklistRequest{Action: "add", Numberplate: row[0], Reason: importReason}
		if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
			entry.Reason = row[1]
		}
		if entry.Plate() == "" {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped, nil
}
