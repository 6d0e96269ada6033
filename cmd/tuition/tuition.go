package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/screens"
)

func (cli *commandLine) dashboard(ctx context.Context, args []string) error {
	if err := parse(cli.flags("dashboard"), args); err != nil {
		return err
	}
	d := screens.NewDashboard(cli.api, cli.notify)
	if err := d.Load(ctx); err != nil {
		return err
	}
	cli.printDashboard(d)
	return nil
}

func (cli *commandLine) printDashboard(d *screens.Dashboard) {
	stats := d.Stats()
	tw := cli.table()
	fmt.Fprintf(tw, "Active students\t%d\n", stats.TotalActiveStudents)
	fmt.Fprintf(tw, "Inactive students\t%d\n", stats.TotalInactiveStudents)
	fmt.Fprintf(tw, "Classes\t%d\n", stats.TotalClasses)
	fmt.Fprintf(tw, "Fees due\t%.2f\n", stats.TotalFeesDue.Float())
	fmt.Fprintf(tw, "Due this month\t%.2f\n", stats.FeesDueThisMonth.Float())
	fmt.Fprintf(tw, "Paid this month\t%.2f\n", stats.FeesPaidThisMonth.Float())
	tw.Flush()

	collection := d.Collection()
	if len(collection) == 0 {
		return
	}
	fmt.Fprintln(cli.out)
	tw = cli.table()
	fmt.Fprintln(tw, "MONTH\tCOLLECTED\tPENDING")
	for _, m := range collection {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n", m.YearMonth, m.Collected.Float(), m.Pending.Float())
	}
	tw.Flush()
}

func (cli *commandLine) generateFees(ctx context.Context, args []string) error {
	fs := cli.flags("generate-fees")
	except := fs.Bool("except-this-month", false, "Only fill months before the current one")
	if err := parse(fs, args); err != nil {
		return err
	}
	return screens.NewDashboard(cli.api, cli.notify).GenerateFees(ctx, *except)
}

func (cli *commandLine) classes(ctx context.Context, args []string) error {
	sub, args := subcommand(args, "list")
	c := screens.NewClasses(cli.api, cli.notify)

	switch sub {
	case "list":
		if err := parse(cli.flags("classes list"), args); err != nil {
			return err
		}
		if err := c.Load(ctx); err != nil {
			return err
		}
		tw := cli.table()
		fmt.Fprintln(tw, "UUID\tCLASS\tSECTION\tMONTHLY FEES\tSTUDENTS")
		for _, class := range c.List() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\n",
				class.UUID, class.ClassName, class.Section, class.MonthlyFees.Float(), class.StudentsCount)
		}
		return tw.Flush()

	case "add":
		fs := cli.flags("classes add")
		var f forms.Class
		classFlags(fs, &f)
		if err := parse(fs, args); err != nil {
			return err
		}
		return c.Add(ctx, f)

	case "edit":
		fs := cli.flags("classes edit")
		id := fs.String("uuid", "", "The class to edit, by uuid or name")
		var f forms.Class
		classFlags(fs, &f)
		if err := parse(fs, args); err != nil {
			return err
		}
		if err := c.Load(ctx); err != nil {
			return err
		}
		class, ok := findClass(c.List(), *id)
		if !ok {
			return fmt.Errorf("class %q not found", *id)
		}
		set := passed(fs)
		if !set["name"] {
			f.ClassName = class.ClassName
		}
		if !set["section"] {
			f.Section = class.Section
		}
		if !set["fees"] {
			f.MonthlyFees = class.MonthlyFees.Float()
		}
		return c.Edit(ctx, class.UUID, f)

	default:
		fmt.Fprintln(cli.out, "Usage: tuition classes [list|add|edit]")
		return errHelp
	}
}

func classFlags(fs *flag.FlagSet, f *forms.Class) {
	fs.StringVar(&f.ClassName, "name", "", "Class name")
	fs.StringVar(&f.Section, "section", "", "Section")
	fs.Float64Var(&f.MonthlyFees, "fees", 0, "Monthly fees")
}

// findClass matches a class by uuid, then by name case-insensitively.
func findClass(classes []models.Class, ref string) (models.Class, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Class{}, false
	}
	for _, c := range classes {
		if c.UUID == ref {
			return c, true
		}
	}
	for _, c := range classes {
		if strings.EqualFold(c.ClassName, ref) {
			return c, true
		}
	}
	return models.Class{}, false
}
