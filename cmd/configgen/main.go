package main

import (
	"flag"
	"log"

	"github.com/danmuck/edgewire/internal/config"
	"github.com/danmuck/edgewire/internal/server"
)

func main() {
	kind := flag.String("kind", "server", "config kind: server|catalog")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}
		if err := validateFile(*kind, path); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "server":
		return "cmd/wirectl/config.toml"
	case "catalog":
		return "cmd/wirectl/catalog.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}

func validateFile(kind, path string) error {
	switch kind {
	case "server":
		cfg, err := server.LoadServiceConfig(path)
		if err != nil {
			return err
		}
		if cfg.CatalogPath != "" {
			_, err = config.LoadCatalog(cfg.CatalogPath)
		}
		return err
	case "catalog":
		_, err := config.LoadCatalog(path)
		return err
	default:
		log.Fatalf("unknown kind: %s", kind)
		return nil
	}
}
