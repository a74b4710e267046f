// Copyright (c) 2025 GovExec Organization
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/govexecio/govexec/cmd/server/bootstrap"

	_ "github.com/govexecio/govexec/extensions/postgres" // import postgres extension
)

func main() {
	app := &cli.App{
		Name:  "govexec server",
		Usage: "start the govexec server",
		Action: func(c *cli.Context) error {
			bootstrap.StartGovexecServerCli(c)
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  bootstrap.FlagConfig,
				Value: "./config/development-postgres.yaml",
				Usage: "the config to start govexec server",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
