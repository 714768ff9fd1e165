package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"

	cmddaemon "github.com/lumenlabs-io/stake-withdrawer/cmd/withdrawercli/daemon"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[stake-withdrawer] %v\n", err)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Name = "withdrawercli"
	app.Usage = "Staking withdrawal controller"

	app.Commands = append(app.Commands, cmddaemon.DaemonCommands...)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
