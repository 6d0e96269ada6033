package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/mmynk/tuitionbook/internal/api"
	"github.com/mmynk/tuitionbook/internal/checkout"
	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/screens"
	"github.com/mmynk/tuitionbook/internal/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotSignedIn = errors.New("not signed in, run: tuition login -username USERNAME")
	errAborted     = errors.New("aborted")
)

type commandLine struct {
	api      *api.Client
	session  *session.Store
	notify   *notifier
	checkout checkout.Checkout
	keyID    string

	in  *bufio.Reader
	out io.Writer
}

type command struct {
	name  string
	usage string
	run   func(cli *commandLine, ctx context.Context, args []string) error

	// public commands work signed out.
	public bool
}

func allCommands() []command {
	return []command{
		{name: "login", usage: "login -username USERNAME - sign in, the password is prompted", run: (*commandLine).login, public: true},
		{name: "logout", usage: "logout - sign out and forget the session", run: (*commandLine).logout, public: true},
		{name: "whoami", usage: "whoami - show the signed in user", run: (*commandLine).whoami, public: true},
		{name: "signup", usage: "signup -tuition NAME -name NAME -username USERNAME -email EMAIL -mobile MOBILE - register a tuition", run: (*commandLine).signup, public: true},
		{name: "forgot-password", usage: "forgot-password -email EMAIL - request a password reset mail", run: (*commandLine).forgotPassword, public: true},
		{name: "password", usage: "password - change the password", run: (*commandLine).password},
		{name: "profile", usage: "profile [-name NAME] [-mobile MOBILE] [-email EMAIL] [-address ADDRESS] [-upi UPI] [-tuition NAME] - update the profile", run: (*commandLine).profile},
		{name: "dashboard", usage: "dashboard - show the headline numbers and monthly collection", run: (*commandLine).dashboard},
		{name: "generate-fees", usage: "generate-fees [-except-this-month] - create missing fee records", run: (*commandLine).generateFees},
		{name: "classes", usage: "classes [list|add|edit] - manage classes", run: (*commandLine).classes},
		{name: "students", usage: "students [list|show|add|edit|bulk-class|bulk-status|export] - manage students", run: (*commandLine).students},
		{name: "fees", usage: "fees [add|pay] -id STUDENT - record fees", run: (*commandLine).fees},
		{name: "plans", usage: "plans [list|subscribe] - subscription plans", run: (*commandLine).plans},
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	for _, c := range allCommands() {
		fmt.Fprintln(cli.out, "  "+c.usage)
	}
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	for _, c := range allCommands() {
		if c.name != args[1] {
			continue
		}
		if !c.public && !cli.session.State().IsAuthenticated {
			return errNotSignedIn
		}
		return c.run(cli, ctx, args[2:])
	}
	cli.printUsage()
	return errHelp
}

// flags returns a flag set that reports errors instead of exiting.
func (cli *commandLine) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse parses args into fs, mapping -h to errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

// subcommand splits "list -x" into "list" and its flags, defaulting to def.
func subcommand(args []string, def string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return def, args
	}
	return args[0], args[1:]
}

// passed reports the flags that were set on the command line.
func passed(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (cli *commandLine) confirm(question string) (bool, error) {
	fmt.Fprintf(cli.out, "%s [y/N]: ", question)
	line, err := cli.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (cli *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
}

// notifier prints screen notices. Errors go to errOut and are remembered so
// the same failure is not printed twice on exit.
type notifier struct {
	out    io.Writer
	errOut io.Writer

	mu    sync.Mutex
	shown bool
}

func (n *notifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, msg)
}

func (n *notifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = true
	fmt.Fprintln(n.errOut, "error:", msg)
}

func (n *notifier) shownError() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.shown
}

// cliMessage is the text printed for an error no screen reported.
func cliMessage(err error) string {
	var apiErr *api.Error
	var fe forms.FieldErrors
	if errors.As(err, &apiErr) || errors.As(err, &fe) {
		return screens.Message(err)
	}
	return err.Error()
}
