package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/screens"
	"github.com/mmynk/tuitionbook/internal/session"
)

func (cli *commandLine) account() *screens.Account {
	return screens.NewAccount(cli.api, cli.session, cli.notify)
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flags("login")
	username := fs.String("username", "", "The username. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *username == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	if err := cli.account().Login(ctx, forms.Login{Username: *username, Password: pwd}); err != nil {
		return err
	}
	if cli.session.InitialRoute() == session.RoutePlans {
		fmt.Fprintln(cli.out, "Your subscription has expired. Run: tuition plans list")
	}
	return nil
}

func (cli *commandLine) logout(ctx context.Context, args []string) error {
	if err := parse(cli.flags("logout"), args); err != nil {
		return err
	}
	return cli.account().Logout(ctx)
}

func (cli *commandLine) whoami(_ context.Context, args []string) error {
	if err := parse(cli.flags("whoami"), args); err != nil {
		return err
	}
	st := cli.session.State()
	if !st.IsAuthenticated || st.User == nil {
		fmt.Fprintln(cli.out, "Not signed in")
		return nil
	}

	tw := cli.table()
	fmt.Fprintf(tw, "Name\t%s\n", st.User.Name)
	fmt.Fprintf(tw, "Username\t%s\n", st.User.Username)
	fmt.Fprintf(tw, "Role\t%s\n", st.User.Role)
	if st.User.Email != "" {
		fmt.Fprintf(tw, "Email\t%s\n", st.User.Email)
	}
	if st.User.UpiID != "" {
		fmt.Fprintf(tw, "UPI\t%s\n", st.User.UpiID)
	}
	if st.TuitionInfo != nil {
		fmt.Fprintf(tw, "Tuition\t%s\n", st.TuitionInfo.Name)
	}
	switch {
	case st.User.IsExpired:
		fmt.Fprintf(tw, "Subscription\texpired\n")
	case st.User.ExpiresAt > 0:
		fmt.Fprintf(tw, "Subscription\tuntil %s\n", time.Unix(st.User.ExpiresAt, 0).Format(time.DateOnly))
	}
	return tw.Flush()
}

func (cli *commandLine) signup(ctx context.Context, args []string) error {
	fs := cli.flags("signup")
	var f forms.Signup
	fs.StringVar(&f.TuitionName, "tuition", "", "Name of the tuition")
	fs.StringVar(&f.Name, "name", "", "Your name")
	fs.StringVar(&f.Username, "username", "", "Username, letters and digits")
	fs.StringVar(&f.Email, "email", "", "Email address")
	fs.StringVar(&f.Mobile, "mobile", "", "10 digit mobile number")
	fs.StringVar(&f.Address, "address", "", "Address")
	if err := parse(fs, args); err != nil {
		return err
	}

	var err error
	if f.Password, err = cli.readPassword("Enter password:"); err != nil {
		return err
	}
	if f.ConfirmPassword, err = cli.readPassword("Confirm password:"); err != nil {
		return err
	}
	if err := cli.account().Signup(ctx, f); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Sign in with: tuition login -username %s\n", f.Username)
	return nil
}

func (cli *commandLine) forgotPassword(ctx context.Context, args []string) error {
	fs := cli.flags("forgot-password")
	email := fs.String("email", "", "The account's email address")
	if err := parse(fs, args); err != nil {
		return err
	}
	return cli.account().ForgotPassword(ctx, forms.ForgotPassword{Email: *email})
}

func (cli *commandLine) password(ctx context.Context, args []string) error {
	if err := parse(cli.flags("password"), args); err != nil {
		return err
	}
	var f forms.UpdatePassword
	var err error
	if f.Password, err = cli.readPassword("Current password:"); err != nil {
		return err
	}
	if f.NewPassword, err = cli.readPassword("New password:"); err != nil {
		return err
	}
	if f.ConfirmPassword, err = cli.readPassword("Confirm new password:"); err != nil {
		return err
	}
	return cli.account().UpdatePassword(ctx, f)
}

func (cli *commandLine) profile(ctx context.Context, args []string) error {
	fs := cli.flags("profile")
	var f forms.Profile
	fs.StringVar(&f.Name, "name", "", "Your name")
	fs.StringVar(&f.Mobile, "mobile", "", "10 digit mobile number")
	fs.StringVar(&f.Email, "email", "", "Email address")
	fs.StringVar(&f.Address, "address", "", "Address")
	fs.StringVar(&f.UpiID, "upi", "", "UPI id shown to students paying fees")
	fs.StringVar(&f.TuitionName, "tuition", "", "Name of the tuition (admins only)")
	deleteAccount := fs.Bool("delete", false, "Delete the account. The password will be prompted.")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *deleteAccount {
		ok, err := cli.confirm("Delete your account and all its data?")
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		return cli.account().DeleteAccount(ctx, forms.DeleteAccount{Password: pwd})
	}

	if len(passed(fs)) == 0 {
		fs.Usage()
		return errHelp
	}
	return cli.account().UpdateProfile(ctx, f)
}
