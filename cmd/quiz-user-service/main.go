package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"blockchain-quiz/internal/userclient"
)

func main() {
	name := flag.String("name", "", "student full name (required)")
	roll := flag.String("roll", "", "student roll number (required)")
	server := flag.String("server", "http://127.0.0.1:8080", "quiz service base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP timeout")
	flag.Parse()

	if *name == "" || *roll == "" {
		fmt.Fprintln(os.Stderr, "error: --name and --roll are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := userclient.Run(ctx, os.Stdin, os.Stdout, userclient.Config{
		Name:        *name,
		RollNumber:  *roll,
		ServerURL:   *server,
		HTTPTimeout: *timeout,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
