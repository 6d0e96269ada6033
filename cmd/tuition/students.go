package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmynk/tuitionbook/internal/export"
	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/roster"
	"github.com/mmynk/tuitionbook/internal/screens"
)

func (cli *commandLine) students(ctx context.Context, args []string) error {
	sub, args := subcommand(args, "list")
	switch sub {
	case "list":
		return cli.studentsList(ctx, args)
	case "show":
		return cli.studentsShow(ctx, args)
	case "add":
		return cli.studentsAdd(ctx, args)
	case "edit":
		return cli.studentsEdit(ctx, args)
	case "bulk-class":
		return cli.studentsBulk(ctx, "bulk-class", args)
	case "bulk-status":
		return cli.studentsBulk(ctx, "bulk-status", args)
	case "export":
		return cli.studentsExport(ctx, args)
	default:
		fmt.Fprintln(cli.out, "Usage: tuition students [list|show|add|edit|bulk-class|bulk-status|export]")
		return errHelp
	}
}

// filterFlags binds the list filters. The status flag takes "all" for both.
func filterFlags(fs *flag.FlagSet) func() roster.Filters {
	name := fs.String("name", "", "Filter by name")
	mobile := fs.String("mobile", "", "Filter by mobile")
	class := fs.String("class", "", "Filter by class name")
	fee := fs.String("fee", "", "Filter by fee status: due or paid")
	status := fs.String("status", models.StatusActive, "Filter by status: active, inactive or all")
	return func() roster.Filters {
		f := roster.Filters{
			Name:      *name,
			Mobile:    *mobile,
			Class:     *class,
			FeeStatus: *fee,
			Status:    *status,
		}
		if f.Status == roster.StatusAll {
			f.Status = ""
		}
		return f
	}
}

// loadStudents refreshes the list screen with the given filters applied.
func (cli *commandLine) loadStudents(ctx context.Context, filters roster.Filters) (*screens.Students, error) {
	s := screens.NewStudents(cli.api, cli.notify)
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.SetFilters(filters)
	return s, nil
}

func (cli *commandLine) printStudents(list []models.Student) error {
	tw := cli.table()
	fmt.Fprintln(tw, "ID\tNAME\tMOBILE\tCLASS\tSTATUS\tMONTHLY FEES\tUNPAID")
	for _, st := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%d\n",
			st.Key(), st.Name, st.Mobile, st.ClassName(), models.StatusString(st.IsActive()),
			st.MonthlyFees(), st.UnpaidFeesCount)
	}
	return tw.Flush()
}

func (cli *commandLine) studentsList(ctx context.Context, args []string) error {
	fs := cli.flags("students list")
	filters := filterFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	s, err := cli.loadStudents(ctx, filters())
	if err != nil {
		return err
	}
	visible := s.Visible()
	if err := cli.printStudents(visible); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "\n%d of %d students\n", len(visible), len(s.All()))
	return nil
}

// profileScreen loads the student profile screen for id.
func (cli *commandLine) profileScreen(ctx context.Context, id string) (*screens.StudentProfile, error) {
	p := screens.NewStudentProfile(cli.api, cli.notify, id)
	if err := p.Load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (cli *commandLine) studentsShow(ctx context.Context, args []string) error {
	fs := cli.flags("students show")
	id := fs.String("id", "", "The student id")
	if err := parse(fs, args); err != nil {
		return err
	}
	p, err := cli.profileScreen(ctx, *id)
	if err != nil {
		return err
	}
	cli.printProfile(p)
	return nil
}

func (cli *commandLine) printProfile(p *screens.StudentProfile) {
	st := p.Student()
	tw := cli.table()
	fmt.Fprintf(tw, "Name\t%s\n", st.Name)
	fmt.Fprintf(tw, "Mobile\t%s\n", st.Mobile)
	if st.Email != "" {
		fmt.Fprintf(tw, "Email\t%s\n", st.Email)
	}
	fmt.Fprintf(tw, "Class\t%s\n", st.ClassName())
	fmt.Fprintf(tw, "Status\t%s\n", models.StatusString(st.IsActive()))
	fmt.Fprintf(tw, "Monthly fees\t%.2f\n", st.MonthlyFees())
	if st.Info != nil && st.Info.GuardianName != "" {
		fmt.Fprintf(tw, "Guardian\t%s %s\n", st.Info.GuardianName, st.Info.GuardianContact)
	}
	tw.Flush()

	l := p.Ledger()
	if l.Len() == 0 {
		fmt.Fprintln(cli.out, "\nNo fee records")
		return
	}
	fmt.Fprintln(cli.out)
	tw = cli.table()
	fmt.Fprintln(tw, "MONTH\tAMOUNT\tPAID")
	for _, month := range l.Months() {
		e, _ := l.Get(month)
		paid := "no"
		if e.Paid {
			paid = "yes"
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\n", month, e.Amount, paid)
	}
	tw.Flush()
	fmt.Fprintf(cli.out, "\nUnpaid months: %d  Paid: %.2f  Pending: %.2f\n", l.UnpaidCount(), l.TotalPaid(), l.TotalPending())
}

func studentFlags(fs *flag.FlagSet, f *forms.Student) *string {
	fs.StringVar(&f.Name, "name", "", "Student name")
	fs.StringVar(&f.Mobile, "mobile", "", "10 digit mobile number")
	fs.StringVar(&f.Email, "email", "", "Email address")
	fs.StringVar(&f.Address, "address", "", "Address")
	fs.StringVar(&f.Gender, "gender", "", "male, female or other")
	fs.StringVar(&f.AdmissionYear, "admission-year", "", "Year of admission, 4 digits")
	fs.Float64Var(&f.MonthlyFees, "fees", 0, "Monthly fees")
	fs.StringVar(&f.GuardianName, "guardian", "", "Guardian name")
	fs.StringVar(&f.GuardianContact, "guardian-contact", "", "Guardian mobile number")
	fs.StringVar(&f.Status, "status", "", "active or inactive")
	return fs.String("class", "", "Class, by uuid or name")
}

// resolveClass turns a class reference into a uuid.
func resolveClass(classes []models.Class, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	c, ok := findClass(classes, ref)
	if !ok {
		return "", fmt.Errorf("class %q not found", ref)
	}
	return c.UUID, nil
}

func (cli *commandLine) studentsAdd(ctx context.Context, args []string) error {
	fs := cli.flags("students add")
	var f forms.Student
	class := studentFlags(fs, &f)
	if err := parse(fs, args); err != nil {
		return err
	}
	s, err := cli.loadStudents(ctx, roster.DefaultFilters())
	if err != nil {
		return err
	}
	if f.Class, err = resolveClass(s.Classes(), *class); err != nil {
		return err
	}
	return s.Add(ctx, f)
}

// studentForm fills the edit form from a loaded student.
func studentForm(st *models.Student) forms.Student {
	f := forms.Student{
		Name:        st.Name,
		Mobile:      st.Mobile,
		Email:       st.Email,
		Address:     st.Address,
		Status:      models.StatusString(st.IsActive()),
		MonthlyFees: st.MonthlyFees(),
	}
	if info := st.Info; info != nil {
		f.Gender = info.Gender
		f.AdmissionYear = info.AdmissionYear
		f.GuardianName = info.GuardianName
		f.GuardianContact = info.GuardianContact
		if info.Class != nil {
			f.Class = info.Class.UUID
		}
	}
	return f
}

func (cli *commandLine) studentsEdit(ctx context.Context, args []string) error {
	fs := cli.flags("students edit")
	id := fs.String("id", "", "The student id")
	var edits forms.Student
	class := studentFlags(fs, &edits)
	if err := parse(fs, args); err != nil {
		return err
	}

	p, err := cli.profileScreen(ctx, *id)
	if err != nil {
		return err
	}
	f := studentForm(p.Student())
	for name := range passed(fs) {
		switch name {
		case "name":
			f.Name = edits.Name
		case "mobile":
			f.Mobile = edits.Mobile
		case "email":
			f.Email = edits.Email
		case "address":
			f.Address = edits.Address
		case "gender":
			f.Gender = edits.Gender
		case "admission-year":
			f.AdmissionYear = edits.AdmissionYear
		case "fees":
			f.MonthlyFees = edits.MonthlyFees
		case "guardian":
			f.GuardianName = edits.GuardianName
		case "guardian-contact":
			f.GuardianContact = edits.GuardianContact
		case "status":
			f.Status = edits.Status
		case "class":
			classes, err := cli.api.Classes(ctx)
			if err != nil {
				return err
			}
			if f.Class, err = resolveClass(classes, *class); err != nil {
				return err
			}
		}
	}
	if err := p.Update(ctx, f); err != nil {
		return err
	}
	cli.printProfile(p)
	return nil
}

// studentsBulk selects students, stages a class or status change, shows it
// and submits it once confirmed.
func (cli *commandLine) studentsBulk(ctx context.Context, name string, args []string) error {
	fs := cli.flags("students " + name)
	filters := filterFlags(fs)
	ids := fs.String("ids", "", "Comma separated student ids. Without it every listed student is selected.")
	var class, to string
	var updateFees bool
	if name == "bulk-class" {
		fs.StringVar(&class, "to", "", "Target class, by uuid or name")
		fs.BoolVar(&updateFees, "update-fees", false, "Also set each student's monthly fees to the class fees")
	} else {
		fs.StringVar(&to, "to", "", "Target status: active or inactive")
	}
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := cli.loadStudents(ctx, filters())
	if err != nil {
		return err
	}
	s.StartSelection()
	if *ids == "" {
		err = s.SelectAll()
	} else {
		for _, key := range strings.Split(*ids, ",") {
			if key = strings.TrimSpace(key); key != "" {
				if err = s.Toggle(key); err != nil {
					break
				}
			}
		}
	}
	if err != nil {
		s.Cancel()
		return err
	}

	if name == "bulk-class" {
		var classUUID string
		if classUUID, err = resolveClass(s.Classes(), class); err == nil && classUUID == "" {
			err = errors.New("-to is required")
		}
		if err == nil {
			err = s.StageClass(classUUID, updateFees)
		}
	} else {
		switch to {
		case models.StatusActive, models.StatusInactive:
			err = s.StageStatus(to == models.StatusActive)
		default:
			err = errors.New("-to must be active or inactive")
		}
	}
	if err != nil {
		s.Cancel()
		return err
	}

	selected := s.Selected()
	fmt.Fprintf(cli.out, "%s for %d students\n", describeChange(s.Pending()), len(selected))
	if !*yes {
		ok, err := cli.confirm("Apply?")
		if err != nil || !ok {
			s.Cancel()
			if err != nil {
				return err
			}
			return errAborted
		}
	}
	return s.Confirm(ctx)
}

func describeChange(c *roster.Change) string {
	if c == nil {
		return "No change"
	}
	if c.Kind == roster.ChangeClass {
		if c.UpdateFees {
			return fmt.Sprintf("Move to %s and set monthly fees to %.2f", c.Class.ClassName, c.Class.MonthlyFees.Float())
		}
		return "Move to " + c.Class.ClassName
	}
	return "Mark " + models.StatusString(c.Active)
}

func (cli *commandLine) studentsExport(ctx context.Context, args []string) error {
	fs := cli.flags("students export")
	filters := filterFlags(fs)
	id := fs.String("id", "", "Export this student's fee ledger instead of the list")
	out := fs.String("o", "students.xlsx", "Output file")
	if err := parse(fs, args); err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	defer f.Close()

	if *id != "" {
		p, err := cli.profileScreen(ctx, *id)
		if err != nil {
			return err
		}
		if err := export.Ledger(f, *p.Student(), p.Ledger()); err != nil {
			return err
		}
	} else {
		s, err := cli.loadStudents(ctx, filters())
		if err != nil {
			return err
		}
		if err := export.Students(f, s.Visible()); err != nil {
			return err
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	fmt.Fprintf(cli.out, "Wrote %s\n", *out)
	return nil
}

func (cli *commandLine) fees(ctx context.Context, args []string) error {
	sub, args := subcommand(args, "")
	switch sub {
	case "add":
		fs := cli.flags("fees add")
		id := fs.String("id", "", "The student id")
		var month forms.FeeMonth
		fs.StringVar(&month.Month, "month", "", "Month name, such as March")
		fs.StringVar(&month.Year, "year", "", "Year, 4 digits")
		paid := fs.Bool("paid", false, "Record the fee as already paid")
		if err := parse(fs, args); err != nil {
			return err
		}
		p, err := cli.profileScreen(ctx, *id)
		if err != nil {
			return err
		}
		return p.AddFee(ctx, month, *paid)

	case "pay":
		fs := cli.flags("fees pay")
		id := fs.String("id", "", "The student id")
		month := fs.String("month", "", "Ledger month, such as \"March 2025\"")
		yes := fs.Bool("yes", false, "Do not ask for confirmation")
		receipt := fs.Bool("receipt", true, "Print a receipt")
		if err := parse(fs, args); err != nil {
			return err
		}
		p, err := cli.profileScreen(ctx, *id)
		if err != nil {
			return err
		}
		if err := p.BeginMarkPaid(*month); err != nil {
			return err
		}
		if !*yes {
			e, _ := p.Ledger().Get(*month)
			ok, err := cli.confirm(fmt.Sprintf("Mark %s (%.2f) as paid?", *month, e.Amount))
			if err != nil || !ok {
				p.CancelMarkPaid()
				if err != nil {
					return err
				}
				return errAborted
			}
		}
		if err := p.ConfirmMarkPaid(ctx); err != nil {
			return err
		}
		if *receipt {
			e, _ := p.Ledger().Get(*month)
			fmt.Fprintln(cli.out)
			fmt.Fprintln(cli.out, export.Receipt(cli.session.State().TuitionInfo, *p.Student(), *month, e, time.Now()))
		}
		return nil

	default:
		fmt.Fprintln(cli.out, "Usage: tuition fees [add|pay] -id STUDENT")
		return errHelp
	}
}
