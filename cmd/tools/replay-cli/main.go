package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/annel0/brawl-replay/internal/config"
	"github.com/annel0/brawl-replay/internal/logging"
	"github.com/annel0/brawl-replay/internal/session"
	"github.com/annel0/brawl-replay/internal/storage"
)

const timeFormat = "2006-01-02 15:04:05"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: replay-cli [flags] <command> [args]

Commands:
  list                 list stored archives, newest first
  show <id>            print archive header and command log
  verify <id>          replay archive twice and check determinism
  export <id> <file>   write archive in binary format
  import <file>        read binary archive and store it
  delete <id>          remove archive

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML config (storage section)")
		backend    = flag.String("backend", "", "Storage backend override: memory, badger, redis, maria")
		dir        = flag.String("dir", "", "Badger directory override")
		asJSON     = flag.Bool("json", false, "Print JSON instead of text")
		timeout    = flag.Duration("timeout", 30*time.Second, "Operation timeout")
	)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	logging.SetDefaultLevel(logging.WARN)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *dir != "" {
		cfg.Storage.BadgerDir = *dir
		if *backend == "" {
			cfg.Storage.Backend = "badger"
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := storage.Open(ctx, &cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Storage: %v", err)
	}
	defer store.Close()

	cli := &cli{store: store, cfg: cfg, json: *asJSON}
	if err := cli.run(ctx, args[0], args[1:]); err != nil {
		log.Fatalf("❌ %s: %v", args[0], err)
	}
}

type cli struct {
	store storage.Store
	cfg   *config.Config
	json  bool
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("expected %d argument(s), got %d", n, len(args))
		}
		return nil
	}

	switch cmd {
	case "list":
		return c.list(ctx)
	case "show":
		if err := need(1); err != nil {
			return err
		}
		return c.show(ctx, args[0])
	case "verify":
		if err := need(1); err != nil {
			return err
		}
		return c.verify(ctx, args[0])
	case "export":
		if err := need(2); err != nil {
			return err
		}
		return c.export(ctx, args[0], args[1])
	case "import":
		if err := need(1); err != nil {
			return err
		}
		return c.importFile(ctx, args[0])
	case "delete":
		if err := need(1); err != nil {
			return err
		}
		if err := c.store.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted %s\n", args[0])
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command")
	}
}

func (c *cli) list(ctx context.Context) error {
	list, err := c.store.List(ctx)
	if err != nil {
		return err
	}
	if c.json {
		return printJSON(list)
	}
	fmt.Printf("📼 %d archive(s)\n", len(list))
	for _, s := range list {
		fmt.Printf("%s  %s  seed=%-20d %7.1fs %5d cmds  session=%s\n",
			s.ID, s.CreatedAt.Local().Format(timeFormat), s.Seed, s.Duration, s.Commands, s.SessionID)
	}
	return nil
}

func (c *cli) show(ctx context.Context, id string) error {
	a, err := c.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if c.json {
		return printJSON(a)
	}
	fmt.Printf("Archive:  %s\n", a.ID)
	fmt.Printf("Session:  %s\n", a.SessionID)
	fmt.Printf("Seed:     %d\n", a.Seed)
	fmt.Printf("Created:  %s\n", a.CreatedAt.Local().Format(timeFormat))
	fmt.Printf("Duration: %.2fs\n", a.Duration)
	fmt.Printf("Commands: %d\n\n", len(a.Records))
	for i, r := range a.Records {
		fmt.Printf("%6d  %9.3fs  %-10s %s\n", i, r.Time, r.Kind, r.Payload)
	}
	return nil
}

func (c *cli) verify(ctx context.Context, id string) error {
	a, err := c.store.Load(ctx, id)
	if err != nil {
		return err
	}
	report, err := session.Verify(a, session.OptionsFromConfig(&c.cfg.Session))
	if err != nil {
		return err
	}
	if c.json {
		return printJSON(report)
	}
	fmt.Printf("Archive:   %s\n", report.ArchiveID)
	fmt.Printf("Commands:  %d\n", report.Commands)
	fmt.Printf("Spawns:    %d %v\n", report.Spawns, report.SpawnedIDs)
	fmt.Printf("Failures:  %d\n", report.Failures)
	if !report.Deterministic {
		fmt.Printf("❌ Not deterministic: %s\n", report.Mismatch)
		os.Exit(1)
	}
	fmt.Println("✅ Deterministic")
	return nil
}

func (c *cli) export(ctx context.Context, id, path string) error {
	a, err := c.store.Load(ctx, id)
	if err != nil {
		return err
	}
	codec, err := storage.NewCodec()
	if err != nil {
		return err
	}
	data, err := codec.Encode(a)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("💾 %s → %s (%d bytes)\n", id, path, len(data))
	return nil
}

func (c *cli) importFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	codec, err := storage.NewCodec()
	if err != nil {
		return err
	}
	a, err := codec.Decode(data)
	if err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if err := c.store.Save(ctx, a); err != nil {
		return err
	}
	fmt.Printf("📥 Imported %s (%d commands)\n", a.ID, len(a.Records))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
