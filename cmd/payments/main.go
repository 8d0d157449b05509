package main

import (
	"context"
	"os"

	"github.com/grachmannico95/payments-engine/internal/config"
)

func main() {
	cfg := config.Load()

	os.Exit(run(context.Background(), cfg, os.Args[1:], os.Stdout, os.Stderr))
}
