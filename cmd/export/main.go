// Command export renders an already-completed optimization request's
// result as an xlsx route sheet and/or a PDF driver manifest, per the
// export.xlsx_enabled / export.pdf_enabled config flags (§4.5 supplemental
// exports).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fleetops/optimizer/internal/formatter/exportpdf"
	"github.com/fleetops/optimizer/internal/formatter/exportxlsx"
	"github.com/fleetops/optimizer/internal/store"
	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/config"
	"github.com/fleetops/optimizer/pkg/database"
)

func main() {
	tenantID := flag.Int64("tenant", 0, "tenant ID")
	requestID := flag.Int64("request", 0, "optimization request ID")
	outDir := flag.String("out", ".", "directory to write export files into")
	flag.Parse()

	if *tenantID == 0 || *requestID == 0 {
		log.Fatal("both -tenant and -request are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Export.XLSXEnabled && !cfg.Export.PDFEnabled {
		log.Fatal("neither export.xlsx_enabled nor export.pdf_enabled is set, nothing to do")
	}

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	requestStore := store.New(db)
	req, err := requestStore.GetByID(ctx, *tenantID, *requestID)
	if err != nil {
		log.Fatalf("failed to load request: %v", err)
	}
	if req.Result == nil {
		log.Fatalf("request %d has no result (status %s)", req.ID, req.Status)
	}

	if cfg.Export.XLSXEnabled {
		data, err := exportxlsx.Write(req.Result)
		if err != nil {
			log.Fatalf("xlsx export failed: %v", apperror.Wrap(err, apperror.CodeInternal, "xlsx export failed"))
		}
		path := fmt.Sprintf("%s/route-%d.xlsx", *outDir, req.ID)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Fatalf("failed to write %s: %v", path, err)
		}
		fmt.Println(path)
	}

	if cfg.Export.PDFEnabled {
		data, err := exportpdf.Write(req.Result, req.RouteName, req.ScheduledDate)
		if err != nil {
			log.Fatalf("pdf export failed: %v", apperror.Wrap(err, apperror.CodeInternal, "pdf export failed"))
		}
		path := fmt.Sprintf("%s/route-%d.pdf", *outDir, req.ID)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Fatalf("failed to write %s: %v", path, err)
		}
		fmt.Println(path)
	}
}
