//go:build ignore

package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// main creates sample coupon definition files for the start-up import.
// seasonal.csv.gz: NATAL25, WELCOME10, BLACKFRIDAY, ADMIN (reserved) and one malformed row
// partners.csv.gz: WELCOME10 (duplicate), PARTNER15, SPRINGSALE
func main() {
	dataDir := "data/coupons"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Hour)
	from := now.Add(-24 * time.Hour).Format(time.RFC3339)
	month := now.Add(30 * 24 * time.Hour).Format(time.RFC3339)
	year := now.Add(365 * 24 * time.Hour).Format(time.RFC3339)

	files := map[string][]string{
		"seasonal.csv.gz": {
			"# CODE,TYPE,VALUE,ONE_SHOT,VALID_FROM,VALID_UNTIL",
			row("NATAL25", "PERCENT", "25", "false", from, month),
			row("WELCOME10", "PERCENT", "10", "true", from, year),
			row("BLACKFRIDAY", "FIXED", "20.00", "false", from, month),
			row("ADMIN", "PERCENT", "5", "false", from, month),
			row("BROKEN", "PERCENT", "abc", "false", from, month),
		},
		"partners.csv.gz": {
			"# CODE,TYPE,VALUE,ONE_SHOT,VALID_FROM,VALID_UNTIL",
			row("WELCOME10", "PERCENT", "10", "true", from, year),
			row("PARTNER15", "FIXED", "15.00", "false", from, year),
			row("SPRINGSALE", "PERCENT", "15", "false", from, month),
		},
	}

	for filename, lines := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := createCouponFile(filePath, lines); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d rows\n", filePath, len(lines)-1)
	}

	fmt.Println("\nSample coupon files created successfully!")
	fmt.Println("Import them with:")
	fmt.Println("  COUPON_IMPORT_FILES=data/coupons/seasonal.csv.gz,data/coupons/partners.csv.gz go run ./cmd/api")
}

func row(fields ...string) string {
	return strings.Join(fields, ",")
}

func createCouponFile(filePath string, lines []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, line := range lines {
		if _, err := gzipWriter.Write([]byte(line + "\n")); err != nil {
			return fmt.Errorf("failed to write line: %w", err)
		}
	}

	return nil
}
