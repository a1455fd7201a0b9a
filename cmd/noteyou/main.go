package main

import (
	"context"
	"log"

	"github.com/noteyou/noteyou/internal/cli"
	"github.com/noteyou/noteyou/internal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
