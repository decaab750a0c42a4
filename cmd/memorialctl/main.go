package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/memorial/internal/cli"
)

func main() {
	if err := cli.NewApp(os.Stdout).Run(context.Background(), os.Args[1:]); err != nil {
		if !errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, "memorialctl:", err)
		}
		os.Exit(1)
	}
}
