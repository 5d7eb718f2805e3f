package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/SeakMengs/CertEditor/internal/util"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
)

func main() {
	fontDir := flag.String("dir", "fonts", "directory to scan for .ttf and .otf files")
	outputFile := flag.String("out", "font_metadata.json", "file the metadata is written to")
	flag.Parse()

	logger := util.NewLogger("development")
	defer logger.Sync()

	fonts, err := certedit.ScanFontDir(*fontDir, logger)
	if err != nil {
		log.Fatalf("Failed to scan font directory: %v", err)
	}

	data, err := json.MarshalIndent(fonts, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal JSON: %v", err)
	}

	// The file can be read by the owner (you), read by users in the file's group, and read by anyone else on the system
	if err := os.WriteFile(*outputFile, data, 0644); err != nil {
		log.Fatalf("Failed to write JSON file: %v", err)
	}

	fmt.Printf("Saved metadata for %d fonts to %q\n", len(fonts), *outputFile)
}
