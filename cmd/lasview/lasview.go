package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/lasview/internal/api"
	"github.com/banshee-data/lasview/internal/catalog"
	"github.com/banshee-data/lasview/internal/config"
	"github.com/banshee-data/lasview/internal/fsutil"
	"github.com/banshee-data/lasview/internal/version"
	"github.com/banshee-data/lasview/internal/viewer"
)

var (
	listen       = flag.String("listen", ":8083", "HTTP listen address")
	dbFile       = flag.String("db", "lasview.db", "Path to the catalog SQLite database file (empty disables the file cache and measurement log)")
	roots        = flag.String("roots", "", "Comma-separated list of folder roots sessions may open (required)")
	folder       = flag.String("folder", "", "Folder of .las files to open in a session at startup")
	tuningPath   = flag.String("tuning", "", "Path to a JSON tuning file (defaults built in)")
	disableCache = flag.Bool("disable-viewer-cache", false, "Disable the parsed point-cloud cache")
	showVersion  = flag.Bool("version", false, "Print version information and exit")
)

func splitRoots(raw string) []string {
	var out []string
	for _, r := range strings.Split(raw, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			log.Fatalf("Invalid root %q: %v", r, err)
		}
		out = append(out, abs)
	}
	return out
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("lasview " + version.String())
		os.Exit(0)
	}

	if *listen == "" {
		log.Fatal("HTTP listen address is required")
	}

	allowedRoots := splitRoots(*roots)
	if len(allowedRoots) == 0 {
		log.Fatal("At least one folder root is required (use -roots)")
	}

	tuning := config.DefaultTuningConfig()
	if *tuningPath != "" {
		loaded, err := config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		tuning = loaded
	}

	var store *catalog.Store
	if *dbFile != "" {
		var err error
		store, err = catalog.OpenStore(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open catalog database: %v", err)
		}
		defer store.Close()
		log.Printf("Catalog database at %s", *dbFile)
	} else {
		log.Print("Catalog database disabled; measurements will not be logged")
	}

	manager := viewer.NewManager(fsutil.OSFileSystem{}, store, nil, viewer.ManagerOptions{
		Roots: allowedRoots,
		Scan: catalog.ScanOptions{
			MaxFiles:  tuning.GetMaxFiles(),
			Recursive: tuning.GetRecursiveScan(),
		},
		Session: viewer.Options{
			WrapNavigation:  tuning.GetWrapNavigation(),
			ZDisplayDivisor: tuning.GetZDisplayDivisor(),
			EyeDomeLighting: tuning.GetEyeDomeLighting(),
			Background:      tuning.GetBackground(),
		},
		SessionTTL:   tuning.GetSessionTTL(),
		CacheTTL:     tuning.GetCacheTTL(),
		DisableCache: *disableCache,
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session TTL cleanup
	wg.Add(1)
	go func() {
		defer wg.Done()
		manager.CleanupLoop(ctx, viewer.DefaultCleanupInterval)
		log.Print("Session cleanup routine terminated")
	}()

	if *folder != "" {
		sess := manager.Create()
		if _, err := manager.OpenFolder(sess, *folder); err != nil {
			log.Fatalf("Failed to open startup folder %s: %v", *folder, err)
		}
		log.Printf("Opened %s in session %s", *folder, sess.ID)
		log.Printf("View it at http://localhost%s/view/%s", *listen, sess.ID)
	}

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(api.NewServer(manager, tuning, fsutil.OSFileSystem{}).ServeMux()),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		go func() {
			log.Printf("Starting lasview %s on %s (roots: %s)", version.Version, *listen, strings.Join(allowedRoots, ", "))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("HTTP server error: %v", err)
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Print("HTTP server terminated")
	}()

	wg.Wait()
	log.Print("lasview shut down")
}
