package main

import (
	"log"
	"os"

	"github.com/lithos-os/lithos/internal/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:  "lithos",
		Usage: "Run the Lithos kernel core on a host and manage its disk images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "kernel log level (DEBUG, INFO, WARN, ERROR)",
				Value: "INFO",
			},
		},
		Before: func(c *cli.Context) error {
			logger.Default().SetLevel(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			mkfsCommand,
			lsCommand,
			catCommand,
			mountCommand,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}
