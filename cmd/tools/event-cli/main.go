package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/brawl-replay/internal/eventbus"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "15:04:05.000"
)

func main() {
	var (
		natsURL    = flag.String("url", defaultNatsURL, "NATS server URL")
		stream     = flag.String("stream", "BRAWL_EVENTS", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats, types")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		sessionID  = flag.String("session", "", "Session ID filter")
		limit      = flag.Int("limit", 100, "Maximum number of events")
		follow     = flag.Bool("follow", false, "Follow new events (like tail -f)")
		wait       = flag.Duration("wait", 2*time.Second, "Idle time before exit without -follow")
	)
	flag.Parse()

	if *command == "types" {
		showTypes()
		return
	}

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 0)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &TailOptions{
		Filter:    eventbus.Filter{Types: parseStringList(*eventTypes)},
		SessionID: *sessionID,
		Limit:     *limit,
		Follow:    *follow,
		Wait:      *wait,
	}

	switch *command {
	case "tail":
		if err := tailEvents(ctx, bus, opts, printEvent); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "stats":
		counts := make(map[string]int)
		var mu sync.Mutex
		err := tailEvents(ctx, bus, opts, func(ev *eventbus.Envelope) {
			mu.Lock()
			counts[ev.EventType]++
			mu.Unlock()
		})
		if err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}
		fmt.Println("\nBy event type:")
		for _, t := range knownTypes {
			if n := counts[t]; n > 0 {
				fmt.Printf("  %s: %d events\n", t, n)
			}
		}

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, types")
		os.Exit(1)
	}
}

type TailOptions struct {
	Filter    eventbus.Filter
	SessionID string
	Limit     int
	Follow    bool
	Wait      time.Duration
}

var knownTypes = []string{
	eventbus.TypeBrawlerAdded,
	eventbus.TypeBrawlerRemoved,
	eventbus.TypeBrawlerDied,
	eventbus.TypeReplayStarted,
	eventbus.TypeReplayCompleted,
	eventbus.TypeReplayStopped,
	eventbus.TypeArchiveSaved,
}

// tailEvents читает стрим с начала до лимита или паузы; с Follow ждёт сигнала
func tailEvents(ctx context.Context, bus eventbus.EventBus, opts *TailOptions, handle func(*eventbus.Envelope)) error {
	fmt.Printf("🎬 Tailing events (limit: %d, follow: %v)\n", opts.Limit, opts.Follow)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu    sync.Mutex
		count int
	)
	activity := make(chan struct{}, 1)

	sub, err := bus.Subscribe(ctx, opts.Filter, func(_ context.Context, ev *eventbus.Envelope) {
		if opts.SessionID != "" && ev.CorrelationID != opts.SessionID {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if !opts.Follow && count >= opts.Limit {
			return
		}
		handle(ev)
		count++
		if !opts.Follow && count >= opts.Limit {
			cancel()
		}
		select {
		case activity <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	if opts.Follow {
		<-ctx.Done()
	} else {
		idle := time.NewTimer(opts.Wait)
		defer idle.Stop()
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-activity:
				if !idle.Stop() {
					<-idle.C
				}
				idle.Reset(opts.Wait)
			case <-idle.C:
				break loop
			}
		}
	}

	mu.Lock()
	defer mu.Unlock()
	fmt.Printf("\n📊 Total events: %d\n", count)
	return nil
}

// showTypes выводит типы событий сессии
func showTypes() {
	fmt.Println("📋 Available event types")
	for _, t := range knownTypes {
		fmt.Printf("  %s (subject %s)\n", t, eventbus.Subject(t))
	}
}

// printEvent выводит событие в читаемом формате
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s [%s] %s\n",
		ev.Timestamp.Local().Format(timeFormat),
		ev.Source,
		ev.EventType,
		ev.CorrelationID)
	if len(ev.Payload) > 0 {
		fmt.Printf("  %s\n", ev.Payload)
	}
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
