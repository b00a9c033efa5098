package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"tripfare/pkg/client"
	"tripfare/pkg/logger"
	"tripfare/pkg/model"
)

const defaultBaseURL = "http://localhost:8080"

func main() {
	log := logger.New(logger.Config{
		Level:   logger.INFO,
		Format:  logger.JSON,
		Service: "pricectl",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pricectl",
		Usage: "query quotes, manage price freezes and read analytics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "pricing API base URL",
				Value:   defaultBaseURL,
				EnvVars: []string{"API_BASE_URL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "quote",
				Usage:     "show the current price of an item for a date key",
				ArgsUsage: "<kind> <item-id> <date-key>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 3 {
						return cli.Exit("quote needs <kind> <item-id> <date-key>", 2)
					}
					q, err := pricingClient(c).GetQuote(c.Context, model.ItemKind(c.Args().Get(0)), c.Args().Get(1), c.Args().Get(2))
					return printResult(q, err)
				},
			},
			{
				Name:      "history",
				Usage:     "show recorded price snapshots",
				ArgsUsage: "<kind> <item-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Value: 30},
					&cli.StringFlag{Name: "date-key"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return cli.Exit("history needs <kind> <item-id>", 2)
					}
					h, err := pricingClient(c).History(c.Context, model.ItemKind(c.Args().Get(0)), c.Args().Get(1), c.Int("days"), c.String("date-key"))
					return printResult(h, err)
				},
			},
			{
				Name:  "freeze",
				Usage: "create, inspect and redeem price freezes",
				Subcommands: []*cli.Command{
					{
						Name:      "create",
						ArgsUsage: "<user-id> <kind> <item-id> <current-price>",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "idempotency-key", Usage: "replay the first result when the command is repeated"},
						},
						Action: func(c *cli.Context) error {
							if c.NArg() != 4 {
								return cli.Exit("freeze create needs <user-id> <kind> <item-id> <current-price>", 2)
							}
							var price int64
							if _, err := fmt.Sscan(c.Args().Get(3), &price); err != nil {
								return cli.Exit("current-price must be an integer amount in minor units", 2)
							}
							f, err := pricingClient(c).CreateFreezeWithKey(c.Context, &model.FreezeRequest{
								UserID:       c.Args().Get(0),
								ItemKind:     model.ItemKind(c.Args().Get(1)),
								ItemID:       c.Args().Get(2),
								CurrentPrice: price,
							}, c.String("idempotency-key"))
							return printResult(f, err)
						},
					},
					{
						Name:      "list",
						ArgsUsage: "<user-id>",
						Action: func(c *cli.Context) error {
							l, err := pricingClient(c).ListFreezes(c.Context, c.Args().First())
							return printResult(l, err)
						},
					},
					{
						Name:      "redeem",
						ArgsUsage: "<freeze-id> <user-id> | --token <token>",
						Flags:     []cli.Flag{&cli.StringFlag{Name: "token"}},
						Action: func(c *cli.Context) error {
							if token := c.String("token"); token != "" {
								f, err := pricingClient(c).RedeemByToken(c.Context, token)
								return printResult(f, err)
							}
							if c.NArg() != 2 {
								return cli.Exit("freeze redeem needs <freeze-id> <user-id> or --token", 2)
							}
							f, err := pricingClient(c).Redeem(c.Context, c.Args().Get(0), c.Args().Get(1))
							return printResult(f, err)
						},
					},
				},
			},
			{
				Name:  "analytics",
				Usage: "show the aggregate pricing report",
				Flags: []cli.Flag{&cli.IntFlag{Name: "top", Usage: "number of most expensive items"}},
				Action: func(c *cli.Context) error {
					r, err := pricingClient(c).Analytics(c.Context, c.Int("top"))
					return printResult(r, err)
				},
			},
		},
	}
}

func pricingClient(c *cli.Context) *client.PricingClient {
	return client.NewPricingClient(c.String("base-url"))
}

func printResult(v any, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
