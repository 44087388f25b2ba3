package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"powder-inventory/internal/auth"
	"powder-inventory/internal/config"
	"powder-inventory/internal/registry"
	"powder-inventory/internal/store"
	"powder-inventory/pkg/importer"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		filePath    = flag.String("file", "", "Workbook to import (.xlsx)")
		mappingPath = flag.String("mapping", "", "Mapping file (default IMPORT_MAPPING_PATH)")
		as          = flag.String("as", "", "Email the import runs as; must be in ALLOWED_DOMAIN")
		updatedBy   = flag.String("updated-by", "", "UpdatedBy value for imported rows")
		dryRun      = flag.Bool("dry-run", false, "Report what would be imported without writing")
		maxErrors   = flag.Int("max-errors", 50, "Stop after this many row errors")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *filePath == "" || *as == "" {
		fmt.Println("Usage: import_excel -file=path.xlsx -as=user@domain [-mapping=configs/mapping/assets.yaml] [-dry-run]")
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if *mappingPath == "" {
		*mappingPath = cfg.ImportMappingPath
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		logger.Error("open asset store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	if c, ok := st.(interface{ Close() error }); ok {
		defer c.Close()
	}

	reg := registry.New(st, auth.NewGate(cfg.AllowedDomain), registry.WithLogger(logger))

	file, err := os.Open(*filePath)
	if err != nil {
		logger.Error("open workbook", "error", err)
		os.Exit(1)
	}
	defer file.Close()

	fmt.Printf("Importing from %s into %s store (dry_run=%v)\n", *filePath, cfg.StoreBackend, *dryRun)
	fmt.Println(strings.Repeat("=", 60))

	summary, err := importer.ImportExcel(ctx, reg, file, importer.ImportOptions{
		Actor:       &auth.Identity{Email: *as},
		UpdatedBy:   *updatedBy,
		MappingPath: *mappingPath,
		DryRun:      *dryRun,
		MaxErrors:   *maxErrors,
	})
	printSummary(summary)
	if err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func printSummary(summary importer.ImportSummary) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Total inserted: %d\n", summary.Inserted)
	fmt.Printf("Total skipped: %d\n", summary.Skipped)
	fmt.Printf("Total errors: %d\n", summary.Errors)
	fmt.Printf("Dry run: %v\n", summary.DryRun)

	if len(summary.Sheets) > 0 {
		fmt.Println("\nSheet Details:")
		for _, sheet := range summary.Sheets {
			fmt.Printf("  %s: inserted=%d, skipped=%d, errors=%d\n",
				sheet.Name, sheet.Inserted, sheet.Skipped, sheet.Errors)

			if len(sheet.Conflicts) > 0 {
				fmt.Printf("    Already present:\n")
				for _, id := range sheet.Conflicts {
					fmt.Printf("      %s\n", id)
				}
			}
			if len(sheet.Samples) > 0 {
				fmt.Printf("    Error samples:\n")
				for _, sample := range sheet.Samples {
					fmt.Printf("      Row %d: %s\n", sample.Row, sample.Message)
				}
			}
		}
	}
}
