package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/iudanet/gophbudget/internal/client/cli"
	"github.com/iudanet/gophbudget/internal/client/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// .env необязателен
	_ = godotenv.Load()

	c := cli.New(iocli.NewStdio(), fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit))
	err := c.Command().ExecuteContext(context.Background())

	if closeErr := c.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v\n", closeErr)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
