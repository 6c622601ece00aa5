package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/avatargate/internal/server"
	"github.com/dmitrijs2005/avatargate/internal/server/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		return 1
	}
	return 0
}
