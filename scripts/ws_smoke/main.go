package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vovakirdan/minechat/internal/proto"
	"github.com/vovakirdan/minechat/internal/transport/ws"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to announce with")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, err := ws.Dialer{}.Dial(ctx, *addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	send := func(body string) error {
		data, err := proto.Encode(proto.Envelope{
			Kind:      proto.KindChat,
			Sender:    *user,
			Body:      body,
			Timestamp: time.Now().Format("15:04:05"),
		})
		if err != nil {
			return err
		}
		if err := conn.Write(ctx, data); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		return nil
	}

	// The empty body announces presence.
	if err := send(""); err != nil {
		return err
	}
	if err := send(*text); err != nil {
		return err
	}

	for {
		data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		env, err := proto.Decode(data)
		if err != nil {
			fmt.Printf("Raw data: %s\n", data)
			continue
		}

		switch env.Kind {
		case proto.KindRoster:
			fmt.Printf("Roster: %d online\n", len(env.Roster))
			for _, p := range env.Roster {
				fmt.Printf("  %s (%s)\n", p.Sender, p.Address)
			}
			return nil
		case proto.KindSystem:
			fmt.Printf("System: %s\n", env.Body)
		default:
			fmt.Printf("Received %s: sender=%s body=%q ts=%s\n", env.Kind, env.Sender, env.Body, env.Timestamp)
		}
	}
}
