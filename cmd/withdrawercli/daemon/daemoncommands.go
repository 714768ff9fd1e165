package daemon

import (
	"context"

	"github.com/urfave/cli"

	"github.com/lumenlabs-io/stake-withdrawer/cmd/withdrawercli/helpers"
	dc "github.com/lumenlabs-io/stake-withdrawer/withdrawerservice/client"
)

var DaemonCommands = []cli.Command{
	{
		Name:      "daemon",
		ShortName: "dn",
		Usage:     "Commands which require the withdrawer daemon to be running.",
		Category:  "Daemon commands",
		Subcommands: []cli.Command{
			checkDaemonHealthCmd,
			withdrawCmd,
			withdrawalStatusCmd,
			feeEstimateCmd,
			gasBalanceCmd,
			assetInfoCmd,
		},
	},
}

var daemonAddressFlag = cli.StringFlag{
	Name:  helpers.DaemonAddressFlag,
	Usage: "Full address of the withdrawer daemon in format tcp://<host>:<port>",
	Value: helpers.DefaultDaemonAddress,
}

var checkDaemonHealthCmd = cli.Command{
	Name:      "check-health",
	ShortName: "ch",
	Usage:     "Check if the withdrawer daemon is running.",
	Flags: []cli.Flag{
		daemonAddressFlag,
	},
	Action: checkHealth,
}

var withdrawCmd = cli.Command{
	Name:      "withdraw",
	ShortName: "wd",
	Usage:     "Confirm and broadcast a withdrawal of staked funds.",
	Flags: []cli.Flag{
		daemonAddressFlag,
		cli.StringFlag{
			Name:     helpers.AccountIDFlag,
			Usage:    "Identifier of the withdrawing account",
			Required: true,
		},
		cli.StringFlag{
			Name:  helpers.ValidatorFlag,
			Usage: "Validator operator address to withdraw from. Defaults to the daemon's configured validator",
		},
		cli.StringFlag{
			Name:     helpers.WithdrawalAmountFlag,
			Usage:    "Amount of the withdrawn asset, in human readable denomination",
			Required: true,
		},
		cli.StringFlag{
			Name:  helpers.MemoFlag,
			Usage: "Optional transaction memo",
		},
	},
	Action: withdraw,
}

var withdrawalStatusCmd = cli.Command{
	Name:      "withdrawal-status",
	ShortName: "ws",
	Usage:     "Show the state of the withdrawal workflow.",
	Flags: []cli.Flag{
		daemonAddressFlag,
	},
	Action: withdrawalStatus,
}

var feeEstimateCmd = cli.Command{
	Name:      "fee-estimate",
	ShortName: "fe",
	Usage:     "Show the daemon's current gas estimate.",
	Flags: []cli.Flag{
		daemonAddressFlag,
	},
	Action: feeEstimate,
}

var gasBalanceCmd = cli.Command{
	Name:      "gas-balance",
	ShortName: "gb",
	Usage:     "Check whether an account can pay for the estimated gas.",
	Flags: []cli.Flag{
		daemonAddressFlag,
		cli.StringFlag{
			Name:     helpers.AccountIDFlag,
			Usage:    "Identifier of the account to check",
			Required: true,
		},
	},
	Action: gasBalance,
}

var assetInfoCmd = cli.Command{
	Name:      "asset-info",
	ShortName: "ai",
	Usage:     "Show the withdrawn asset configured on the daemon.",
	Flags: []cli.Flag{
		daemonAddressFlag,
	},
	Action: assetInfo,
}

func checkHealth(ctx *cli.Context) error {
	daemonAddress := ctx.String(helpers.DaemonAddressFlag)
	client, err := dc.NewWithdrawerServiceJSONRPCClient(daemonAddress)
	if err != nil {
		return err
	}

	sctx := context.Background()

	health, err := client.Health(sctx)

	if err != nil {
		return err
	}

	helpers.PrintRespJSON(health)

	return nil
}

func withdraw(ctx *cli.Context) error {
	daemonAddress := ctx.String(helpers.DaemonAddressFlag)
	client, err := dc.NewWithdrawerServiceJSONRPCClient(daemonAddress)
	if err != nil {
		return err
	}

	sctx := context.Background()

	result, err := client.Withdraw(
		sctx,
		ctx.String(helpers.AccountIDFlag),
		ctx.String(helpers.ValidatorFlag),
		ctx.String(helpers.WithdrawalAmountFlag),
		ctx.String(helpers.MemoFlag),
	)

	if err != nil {
		return err
	}

	helpers.PrintRespJSON(result)

	return nil
}

func withdrawalStatus(ctx *cli.Context) error {
	daemonAddress := ctx.String(helpers.DaemonAddressFlag)
	client, err := dc.NewWithdrawerServiceJSONRPCClient(daemonAddress)
	if err != nil {
		return err
	}

	sctx := context.Background()

	status, err := client.WithdrawalStatus(sctx)

	if err != nil {
		return err
	}

	helpers.PrintRespJSON(status)

	return nil
}

func feeEstimate(ctx *cli.Context) error {
	daemonAddress := ctx.String(helpers.DaemonAddressFlag)
	client, err := dc.NewWithdrawerServiceJSONRPCClient(daemonAddress)
	if err != nil {
		return err
	}

	sctx := context.Background()

	estimate, err := client.FeeEstimate(sctx)

	if err != nil {
		return err
	}

	helpers.PrintRespJSON(estimate)

	return nil
}

func gasBalance(ctx *cli.Context) error {
	daemonAddress := ctx.String(helpers.DaemonAddressFlag)
	client, err := dc.NewWithdrawerServiceJSONRPCClient(daemonAddress)
	if err != nil {
		return err
	}

	sctx := context.Background()

	balance, err := client.GasBalance(sctx, ctx.String(helpers.AccountIDFlag))

	if err != nil {
		return err
	}

	helpers.PrintRespJSON(balance)

	return nil
}

func assetInfo(ctx *cli.Context) error {
	daemonAddress := ctx.String(helpers.DaemonAddressFlag)
	client, err := dc.NewWithdrawerServiceJSONRPCClient(daemonAddress)
	if err != nil {
		return err
	}

	sctx := context.Background()

	info, err := client.AssetInfo(sctx)

	if err != nil {
		return err
	}

	helpers.PrintRespJSON(info)

	return nil
}
