package main

import (
	"context"
	"log"
	"os"

	"github.com/planhub/planhub/internal/client/cli"
	"github.com/planhub/planhub/internal/client/config"
	"github.com/planhub/planhub/internal/flagx"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	args := flagx.ExcludeArgs(os.Args[1:], []string{"-a", "-n", "-c", "-config"})
	if err := app.Run(ctx, args); err != nil {
		log.Fatalf("%v", err)
	}
}
