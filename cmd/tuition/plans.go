package main

import (
	"context"
	"fmt"

	"github.com/mmynk/tuitionbook/internal/screens"
)

func (cli *commandLine) plans(ctx context.Context, args []string) error {
	sub, args := subcommand(args, "list")
	p := screens.NewPlans(cli.api, cli.checkout, cli.session, cli.keyID, cli.notify)

	switch sub {
	case "list":
		if err := parse(cli.flags("plans list"), args); err != nil {
			return err
		}
		if err := p.Load(ctx); err != nil {
			return err
		}
		tw := cli.table()
		fmt.Fprintln(tw, "UUID\tPLAN\tPRICE\tDAYS\tDESCRIPTION")
		for _, plan := range p.List() {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%s\n",
				plan.UUID, plan.Name, plan.Price.Float(), plan.DurationDays, plan.Description)
		}
		return tw.Flush()

	case "subscribe":
		fs := cli.flags("plans subscribe")
		planUUID := fs.String("plan", "", "The plan uuid")
		if err := parse(fs, args); err != nil {
			return err
		}
		if *planUUID == "" {
			fs.Usage()
			return errHelp
		}
		// The plan list supplies the checkout description.
		if err := p.Load(ctx); err != nil {
			return err
		}
		txID, err := p.Subscribe(ctx, *planUUID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Transaction id: %s\n", txID)
		return nil

	default:
		fmt.Fprintln(cli.out, "Usage: tuition plans [list|subscribe]")
		return errHelp
	}
}
