package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"financeai/internal/apiclient"
	"financeai/internal/config"
	"financeai/internal/core"
	"financeai/internal/log"
	"financeai/internal/session"
	"financeai/internal/ui"

	"github.com/shopspring/decimal"
)

// ErrUsage marks a command line that could not be parsed.
var ErrUsage = errors.New("usage error")

// App runs one terminal command against the API.
type App struct {
	out        io.Writer
	in         *bufio.Reader
	api        *apiclient.Client
	session    *session.Store
	nav        *ui.Navigator
	logger     *log.Logger
	alertDelay time.Duration
	now        func() time.Time
}

type command struct {
	name, args, help string
	run              func(ctx context.Context, args []string) error
}

// NewApp loads the persisted session and binds the API client.
func NewApp(cfg *config.ClientConfig, out io.Writer, in io.Reader, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	store, err := session.NewStore(session.NewFileStorage(cfg.SessionFile),
		session.WithLogger(logger.WithComponent(log.ComponentSession)))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &App{
		out:        out,
		in:         bufio.NewReader(in),
		api:        apiclient.New(cfg.APIBaseURL),
		session:    store,
		nav:        ui.NewNavigator(store),
		logger:     logger,
		alertDelay: cfg.AlertDelay,
		now:        time.Now,
	}, nil
}

func (a *App) commands() []command {
	return []command{
		{"signup", "--name N --email E [--password P]", "create an account and log in", a.signup},
		{"login", "--email E [--password P]", "log in", a.login},
		{"logout", "", "forget the stored session", a.logout},
		{"whoami", "", "show the logged-in user", a.whoami},
		{"list", "[--type T] [--category C] [--q TEXT]", "list transactions with totals", a.list},
		{"add", "--type T --amount A --category C [--description D] [--date YYYY-MM-DD]", "record a transaction", a.add},
		{"edit", "ID [--type T] [--amount A] [--category C] [--description D] [--date YYYY-MM-DD]", "change a transaction", a.edit},
		{"delete", "ID [--yes]", "delete a transaction", a.remove},
		{"summary", "", "totals, spending chart and alerts", a.summary},
		{"afford", "PRODUCT [--price P] [--income I] [--expenses E]", "ask whether you can afford something", a.afford},
	}
}

// Run dispatches args[0] to its command. Commands find the session through
// the context.
func (a *App) Run(ctx context.Context, args []string) error {
	ctx = session.WithStore(ctx, a.session)
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		return nil
	}
	for _, c := range a.commands() {
		if c.name == args[0] {
			return c.run(ctx, args[1:])
		}
	}
	a.usage()
	return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
}

func (a *App) usage() {
	fmt.Fprintln(a.out, titleStyle.Render("financeai")+" - personal finance tracker")
	fmt.Fprintln(a.out)
	for _, c := range a.commands() {
		fmt.Fprintf(a.out, "  %-8s %s\n           %s\n", c.name, c.args, mutedStyle.Render(c.help))
	}
}

// guard resolves route and reports whether the session may use it. When it
// may not, the redirect is printed and ErrNotAuthenticated returned.
func (a *App) guard(route ui.Route) error {
	if got := a.nav.Navigate(string(route)); got != route {
		fmt.Fprintf(a.out, "%s redirecting to %s\n", mutedStyle.Render("Not logged in:"), got)
		return ui.ErrNotAuthenticated
	}
	return nil
}

func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) parse(name string, fs *flag.FlagSet, args []string) error {
	fs.SetOutput(a.out)
	if err := fs.Parse(reorder(args)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, name, err)
	}
	return nil
}

// reorder moves positional arguments after the flags so "edit ID --amount 5"
// parses like "edit --amount 5 ID". Every flag here takes a value except --yes.
func reorder(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			positional = append(positional, args[i+1:]...)
			i = len(args)
		case strings.HasPrefix(arg, "-"):
			flags = append(flags, arg)
			name := strings.TrimLeft(arg, "-")
			if !strings.Contains(name, "=") && name != "yes" && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
		default:
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}

func (a *App) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := a.parse("signup", fs, args); err != nil {
		return err
	}
	if *password == "" {
		p, err := a.prompt("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	store, err := session.FromContext(ctx)
	if err != nil {
		return err
	}
	form := ui.NewSignupForm(a.api, store, a.nav)
	if err := form.Submit(ctx, *name, *email, *password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, successStyle.Render("Welcome, "+store.User().Name+"!"))
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := a.parse("login", fs, args); err != nil {
		return err
	}
	if *password == "" {
		p, err := a.prompt("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	store, err := session.FromContext(ctx)
	if err != nil {
		return err
	}
	form := ui.NewLoginForm(a.api, store, a.nav)
	if err := form.Submit(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, successStyle.Render("Logged in as "+store.User().Email))
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	store, err := session.FromContext(ctx)
	if err != nil {
		return err
	}
	if err := store.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) whoami(ctx context.Context, _ []string) error {
	store, err := session.FromContext(ctx)
	if err != nil {
		return err
	}
	u := store.User()
	if !store.Authenticated() || u == nil {
		fmt.Fprintln(a.out, mutedStyle.Render("Not logged in."))
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s>\n", u.Name, u.Email)
	return nil
}

// dashboard builds a dashboard for this process. Declining the delete prompt
// comes back as false from Confirm.
func (a *App) dashboard(ctx context.Context, yes bool) (*ui.Dashboard, error) {
	store, err := session.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	confirm := ui.ConfirmFunc(func(prompt string) bool {
		if yes {
			return true
		}
		answer, err := a.prompt(prompt + " [y/N] ")
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	})
	board := ui.NewAlertBoard(ui.WithAlertDelay(a.alertDelay))
	return ui.NewDashboard(a.api, store, confirm,
		ui.WithAlertBoard(board),
		ui.WithDashboardLogger(a.logger)), nil
}

func (a *App) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	kind := fs.String("type", "", "income or expense")
	category := fs.String("category", "", "exact category, any case")
	query := fs.String("q", "", "search description and category")
	if err := a.parse("list", fs, args); err != nil {
		return err
	}
	if err := a.guard(ui.RouteDashboard); err != nil {
		return err
	}

	var k core.Kind
	if *kind != "" {
		var err error
		if k, err = core.ParseKind(*kind); err != nil {
			return err
		}
	}

	dash, err := a.dashboard(ctx, false)
	if err != nil {
		return err
	}
	defer dash.Alerts().Close()
	dash.SetFilter(k, *category, *query)
	if err := dash.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, renderTransactions(dash.Items(), dash.Total()))
	fmt.Fprintln(a.out, renderTotals(dash.Totals()))
	a.printAlerts(dash)
	return nil
}

func (a *App) summary(ctx context.Context, args []string) error {
	if err := a.guard(ui.RouteDashboard); err != nil {
		return err
	}
	dash, err := a.dashboard(ctx, false)
	if err != nil {
		return err
	}
	defer dash.Alerts().Close()
	if err := dash.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, renderTotals(dash.Totals()))
	fmt.Fprintln(a.out, renderBreakdown(dash.Breakdown()))
	a.printAlerts(dash)
	return nil
}

func (a *App) printAlerts(dash *ui.Dashboard) {
	if notices := dash.Alerts().Active(); len(notices) > 0 {
		fmt.Fprintln(a.out, renderAlerts(notices))
	}
}

// transactionFlags binds the create/edit flags. Unset flags are left empty.
type transactionFlags struct {
	kind, amount, category, description, date *string
}

func bindTransactionFlags(fs *flag.FlagSet) transactionFlags {
	return transactionFlags{
		kind:        fs.String("type", "", "income or expense"),
		amount:      fs.String("amount", "", "positive amount, e.g. 12.34"),
		category:    fs.String("category", "", "category"),
		description: fs.String("description", "", "optional description"),
		date:        fs.String("date", "", "YYYY-MM-DD, default today"),
	}
}

// apply overwrites in with every flag that was set on the command line.
func (f transactionFlags) apply(fs *flag.FlagSet, in core.TransactionInput) (core.TransactionInput, error) {
	var err error
	fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "type":
			in.Kind, err = core.ParseKind(*f.kind)
		case "amount":
			in.Amount, err = core.ParseAmount(*f.amount)
		case "category":
			in.Category = *f.category
		case "description":
			in.Description = *f.description
		case "date":
			var d time.Time
			if d, err = time.ParseInLocation(time.DateOnly, *f.date, time.Local); err != nil {
				err = fmt.Errorf("%w: %q", core.ErrInvalidDate, *f.date)
			}
			in.Date = d
		}
	})
	return in, err
}

func (a *App) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	flags := bindTransactionFlags(fs)
	if err := a.parse("add", fs, args); err != nil {
		return err
	}
	if err := a.guard(ui.RouteDashboard); err != nil {
		return err
	}

	in, err := flags.apply(fs, core.TransactionInput{Date: a.today()})
	if err != nil {
		return err
	}
	dash, err := a.dashboard(ctx, false)
	if err != nil {
		return err
	}
	defer dash.Alerts().Close()
	if err := dash.Submit(ctx, in); err != nil {
		return err
	}
	fmt.Fprintln(a.out, successStyle.Render("Saved."))
	fmt.Fprintln(a.out, renderTotals(dash.Totals()))
	a.printAlerts(dash)
	return nil
}

func (a *App) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	flags := bindTransactionFlags(fs)
	if err := a.parse("edit", fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: edit needs exactly one transaction ID", ErrUsage)
	}
	if err := a.guard(ui.RouteDashboard); err != nil {
		return err
	}

	dash, err := a.dashboard(ctx, false)
	if err != nil {
		return err
	}
	defer dash.Alerts().Close()
	tx, err := a.find(ctx, dash, fs.Arg(0))
	if err != nil {
		return err
	}
	in, err := flags.apply(fs, tx.Input())
	if err != nil {
		return err
	}
	dash.Edit(tx)
	if err := dash.Submit(ctx, in); err != nil {
		return err
	}
	fmt.Fprintln(a.out, successStyle.Render("Updated."))
	return nil
}

func (a *App) remove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := a.parse("delete", fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: delete needs exactly one transaction ID", ErrUsage)
	}
	if err := a.guard(ui.RouteDashboard); err != nil {
		return err
	}

	dash, err := a.dashboard(ctx, *yes)
	if err != nil {
		return err
	}
	defer dash.Alerts().Close()
	tx, err := a.find(ctx, dash, fs.Arg(0))
	if err != nil {
		return err
	}
	deleted, err := dash.Delete(ctx, tx.ID)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(a.out, mutedStyle.Render("Cancelled."))
		return nil
	}
	fmt.Fprintln(a.out, successStyle.Render("Deleted."))
	return nil
}

// find loads the dashboard and returns the transaction whose ID is id or
// starts with it. Prefixes must be unambiguous.
func (a *App) find(ctx context.Context, dash *ui.Dashboard, id string) (core.Transaction, error) {
	if err := dash.Refresh(ctx); err != nil {
		return core.Transaction{}, err
	}
	var matches []core.Transaction
	for _, t := range dash.Items() {
		if t.ID == id {
			return t, nil
		}
		if strings.HasPrefix(t.ID, id) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return core.Transaction{}, fmt.Errorf("transaction %q not found among the latest %d", id, ui.ListPageSize)
	case 1:
		return matches[0], nil
	default:
		return core.Transaction{}, fmt.Errorf("transaction ID prefix %q is ambiguous", id)
	}
}

func (a *App) afford(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("afford", flag.ContinueOnError)
	price := fs.String("price", "", "product price, estimated when empty")
	income := fs.String("income", "", "monthly income override")
	expenses := fs.String("expenses", "", "monthly expenses override")
	if err := a.parse("afford", fs, args); err != nil {
		return err
	}
	if err := a.guard(ui.RoutePlayground); err != nil {
		return err
	}

	req := apiclient.AffordabilityRequest{ProductName: strings.Join(fs.Args(), " ")}
	var err error
	if req.ProductPrice, err = optionalAmount(*price); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	if req.UserIncome, err = optionalAmount(*income); err != nil {
		return fmt.Errorf("income: %w", err)
	}
	if req.UserExpenses, err = optionalAmount(*expenses); err != nil {
		return fmt.Errorf("expenses: %w", err)
	}

	fmt.Fprintln(a.out, mutedStyle.Render("Thinking..."))
	store, err := session.FromContext(ctx)
	if err != nil {
		return err
	}
	advice, err := ui.NewPlayground(a.api, store).Check(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, renderAdvice(advice))
	return nil
}

// optionalAmount parses a non-negative amount; empty means not given.
func optionalAmount(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if s == "0" {
		d := decimal.Zero
		return &d, nil
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (a *App) today() time.Time {
	y, m, d := a.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// ReportError prints err for the user, unless it is the login redirect
// which the command already printed.
func ReportError(w io.Writer, err error) {
	if errors.Is(err, ui.ErrNotAuthenticated) {
		return
	}
	var re *apiclient.RequestError
	if errors.As(err, &re) && re.Status == 0 {
		fmt.Fprintln(w, errorStyle.Render("Cannot reach the FinanceAI API: "+re.Error()))
		return
	}
	fmt.Fprintln(w, errorStyle.Render("Error: "+err.Error()))
}
