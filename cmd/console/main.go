// Command console drives the interpreter from stdin against the real
// session store and storage provider. Useful for trying out navigation
// without an SMS gateway in the loop.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"textdrive/internal/conf"
	"textdrive/internal/interp"
	"textdrive/internal/provider"
	"textdrive/internal/session"
)

// printMessenger writes outbound messages to stdout instead of an SMS
// gateway, so 'send' can be exercised locally.
type printMessenger struct{}

func (printMessenger) Send(_ context.Context, to, from, body string) error {
	fmt.Printf("[message to %s from %s]\n%s\n", to, from, body)
	return nil
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file (default: search usual locations)")
	identity := flag.String("identity", "+15550000000", "Identity to run the session as")
	flag.Parse()

	var cfg *conf.Config
	var err error
	if *configPath != "" {
		cfg, err = conf.LoadConfigFile(*configPath)
	} else {
		cfg, err = conf.LoadConfig()
	}
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	store, err := session.Open(cfg.Session.DBPath)
	if err != nil {
		log.Fatal("Failed to open session store:", err)
	}
	defer store.Close()

	ctx := context.Background()
	storageProvider, err := provider.NewS3Provider(ctx, cfg.Storage, store)
	if err != nil {
		log.Fatal("Failed to initialize storage provider:", err)
	}

	handler := interp.NewHandler(storageProvider, printMessenger{}, cfg.Gateway.Number)

	fmt.Printf("textdrive console, session for %s. Commands: ls, cd, get, send, reset. Ctrl-D exits.\n", *identity)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Printf("Read error: %v", err)
			}
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		state, err := store.NavState(*identity)
		if err != nil {
			log.Printf("Failed to load session: %v", err)
			continue
		}

		fmt.Println(handler.Handle(ctx, *identity, state, line))

		if err := store.SaveNavState(*identity, state); err != nil {
			log.Printf("Failed to save session: %v", err)
		}
	}
}
