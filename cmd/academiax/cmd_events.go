package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/academiax/internal/config"
	"github.com/felixgeelhaar/academiax/internal/events"
)

// cmdEvents prints events matching a routing pattern until interrupted
func cmdEvents(args []string) error {
	pattern := "#"
	if len(args) > 0 {
		pattern = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is not set")
	}

	conn, err := events.NewConnection(cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	consumer := events.NewConsumer(conn, pattern, func(ctx context.Context, evt events.Event) error {
		return enc.Encode(evt)
	})
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	defer consumer.Stop()

	fmt.Fprintf(os.Stderr, "Following %s with pattern %q (Ctrl+C to stop)\n", events.ExchangeName, pattern)
	<-ctx.Done()
	return nil
}
