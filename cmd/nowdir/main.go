package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nowdirectories/nowdir"
	"github.com/nowdirectories/nowdir/directory"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "directories":
		if err := runDirectories(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("nowdir %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := nowdir.LoadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := nowdir.New(cfg)
	app.Echo.Logger.Infof("listening on %s", cfg.Addr)
	return app.Start(ctx)
}

// runDirectories prints the directories the server would load.
func runDirectories() error {
	cfg, err := nowdir.LoadConfig()
	if err != nil {
		return err
	}
	var defs directory.Definitions
	if cfg.DirectoriesFile != "" {
		defs, err = directory.LoadFile(cfg.DirectoriesFile)
	} else {
		defs, err = directory.Embedded()
	}
	if err != nil {
		return err
	}
	reg, err := directory.NewRegistry(defs.Directories, cfg.DefaultDirectorySlug)
	if err != nil {
		return err
	}
	for _, d := range reg.All() {
		marker := " "
		if d.Slug == reg.DefaultSlug() {
			marker = "*"
		}
		fmt.Printf("%s %-20s %-28s %s\n", marker, d.Slug, d.Title, strings.Join(d.Hosts, ", "))
	}
	for _, m := range defs.DevPaths {
		fmt.Printf("  dev %-16s -> %s\n", m.Prefix, m.Slug)
	}
	return nil
}

func printUsage() {
	fmt.Println(`nowdir - Multi-tenant local service directories built with Go, Echo, and templ

Usage:
  nowdir [command]

Commands:
  serve         Start the HTTP server (default)
  directories   List configured directories, hosts and dev paths
  version       Print the nowdir version
  help          Show this help message

Environment:
  ADDR, APP_ENV, DEFAULT_DIRECTORY_SLUG, DIRECTORIES_FILE, BASE_DOMAIN,
  PUBLIC_SUPABASE_URL, PUBLIC_SUPABASE_ANON_KEY, SUPABASE_URL,
  SUPABASE_SERVICE_ROLE_KEY, ENABLE_ANALYTICS, DEBUG_MODE`)
}
