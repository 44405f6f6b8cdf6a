package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charlesng35/fenceadmin/internal/app"
	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/services"
	"github.com/charlesng35/fenceadmin/internal/upstream"
	apperrors "github.com/charlesng35/fenceadmin/pkg/errors"
)

type command struct {
	summary  string
	signedIn bool
	run      func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"login":           {summary: "Sign in as an administrator", run: runLogin},
	"logout":          {summary: "Sign out and forget the stored session", run: runLogout},
	"whoami":          {summary: "Show the signed in administrator", run: runWhoami},
	"company":         {summary: "Show or switch the working company", signedIn: true, run: runCompany},
	"sessions":        {summary: "List attendance sessions", signedIn: true, run: runSessions},
	"resolve":         {summary: "Mark a suspect session as resolved", signedIn: true, run: runResolve},
	"kick":            {summary: "Force logout an active session", signedIn: true, run: runKick},
	"delete-session":  {summary: "Delete a session record", signedIn: true, run: runDeleteSession},
	"export":          {summary: "Export sessions of a company as CSV", signedIn: true, run: runExport},
	"users":           {summary: "List users of the working company", signedIn: true, run: runUsers},
	"user-create":     {summary: "Create an employee or administrator", signedIn: true, run: runUserCreate},
	"user-update":     {summary: "Update a user", signedIn: true, run: runUserUpdate},
	"user-delete":     {summary: "Delete a user", signedIn: true, run: runUserDelete},
	"assign-device":   {summary: "Assign a device to a user", signedIn: true, run: runAssignDevice},
	"report":          {summary: "Show or export a user's work report", signedIn: true, run: runReport},
	"devices":         {summary: "List devices of the working company", signedIn: true, run: runDevices},
	"device-register": {summary: "Register a device", signedIn: true, run: runDeviceRegister},
	"device-delete":   {summary: "Delete a device", signedIn: true, run: runDeviceDelete},
	"locations":       {summary: "List geofenced locations", signedIn: true, run: runLocations},
	"location-create": {summary: "Create a geofenced location", signedIn: true, run: runLocationCreate},
	"location-delete": {summary: "Delete a location", signedIn: true, run: runLocationDelete},
	"companies":       {summary: "List companies", signedIn: true, run: runCompanies},
	"company-create":  {summary: "Create a company", signedIn: true, run: runCompanyCreate},
}

// cli is the state shared by every subcommand of one invocation.
type cli struct {
	stack *app.Stack
	io    streams
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.io.out, format, args...)
}

// done prints the success banner left by an action.
func (c *cli) done(banner, fallback string) {
	if strings.TrimSpace(banner) == "" {
		banner = fallback
	}
	c.printf("%s\n", banner)
}

// companies loads the company list used to label rows. Failures only cost the labels.
func (c *cli) companies(ctx context.Context) []models.Company {
	companies := c.stack.Console.Companies
	if err := companies.Load(ctx); err != nil {
		return nil
	}
	return companies.Companies()
}

func newFlagSet(c *cli, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.io.err)
	return fs
}

// oneArg parses fs and returns its single positional argument.
func oneArg(fs *flag.FlagSet, args []string, what string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return "", fmt.Errorf("usage: fencectl %s [flags] <%s>", fs.Name(), what)
	}
	return strings.TrimSpace(fs.Arg(0)), nil
}

// openOutput returns stdout for "" or "-", and a created file otherwise.
func (c *cli) openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return c.io.out, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func runLogin(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "login")
	username := fs.String("username", "", "Administrator username")
	password := fs.String("password", "", "Password, read from FENCEADMIN_PASSWORD or prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" && fs.NArg() > 0 {
		*username = fs.Arg(0)
	}
	if strings.TrimSpace(*username) == "" {
		return fmt.Errorf("usage: fencectl login [-password p] <username>")
	}

	if *password == "" {
		*password = os.Getenv("FENCEADMIN_PASSWORD")
	}
	if *password == "" {
		fmt.Fprint(c.io.err, "Password: ")
		line, err := c.io.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	state, err := c.stack.Sessions.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	c.printf("Signed in as %s (%s)\n", state.User.Username, state.User.Role)
	if state.CompanyID != "" {
		c.printf("Working company: %s\n", state.CompanyID)
	}
	return nil
}

func runLogout(ctx context.Context, c *cli, _ []string) error {
	if err := c.stack.Sessions.Logout(ctx); err != nil {
		return err
	}
	c.printf("Signed out\n")
	return nil
}

func runWhoami(_ context.Context, c *cli, _ []string) error {
	if !c.stack.Sessions.Authenticated() {
		c.printf("Not signed in\n")
		return nil
	}
	state := c.stack.Sessions.Current()
	company := state.CompanyID
	if company == "" {
		company = "(all companies)"
	}
	c.printf("User:    %s\nName:    %s\nRole:    %s\nCompany: %s\n",
		state.User.Username, state.User.DisplayName, state.User.Role, company)
	return nil
}

func runCompany(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "company")
	all := fs.Bool("clear", false, "Work across all companies")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 && !*all {
		current := c.stack.Sessions.Current().CompanyID
		return writeCompanies(c.io.out, c.companies(ctx), current)
	}

	target := strings.TrimSpace(fs.Arg(0))
	if *all {
		target = ""
	}
	state, err := c.stack.Sessions.SelectCompany(ctx, target)
	if err != nil {
		return err
	}
	if state.CompanyID == "" {
		c.printf("Working across all companies\n")
		return nil
	}
	c.printf("Working company: %s\n", state.CompanyID)
	return nil
}

// sessionFlags registers the session list filters on fs.
func sessionFlags(fs *flag.FlagSet) (*listview.Filter, *int) {
	f := &listview.Filter{}
	fs.StringVar(&f.CompanyID, "company", "", "Company id")
	fs.StringVar(&f.UserID, "user", "", "User id")
	fs.StringVar(&f.Status, "status", "", "Session status such as active, logged_out or expired")
	fs.StringVar(&f.From, "from", "", "First day, YYYY-MM-DD")
	fs.StringVar(&f.To, "to", "", "Last day, YYYY-MM-DD")
	fs.BoolVar(&f.Suspect, "suspect", false, "Only suspect sessions")
	page := fs.Int("page", 1, "Page number")
	return f, page
}

// loadSessions applies filter and page to the sessions view and fetches it.
func (c *cli) loadSessions(ctx context.Context, f listview.Filter, page int) error {
	svc := c.stack.Console.Sessions
	if err := svc.LoadMetadata(ctx); err != nil {
		fmt.Fprintf(c.io.err, "warning: %s\n", apperrors.Message(err, "user names unavailable"))
	}
	return svc.Navigate(ctx, f, max(page, 1))
}

func runSessions(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "sessions")
	filter, page := sessionFlags(fs)
	watch := fs.Bool("watch", false, "Keep reloading until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := c.loadSessions(ctx, *filter, *page); err != nil {
		return err
	}
	svc := c.stack.Console.Sessions
	if err := writeSessions(c.io.out, svc.Rows(), svc.View().Snapshot()); err != nil {
		return err
	}
	if !*watch {
		return nil
	}
	return c.watchSessions(ctx)
}

// watchSessions re-renders the sessions table after every settled auto refresh until
// ctx ends.
func (c *cli) watchSessions(ctx context.Context) error {
	svc := c.stack.Console.Sessions
	settled := make(chan struct{}, 1)
	unsubscribe := svc.View().Subscribe(func(s listview.Snapshot[models.Session]) {
		if s.Loading {
			return
		}
		select {
		case settled <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	if err := svc.SetAutoRefresh(ctx, true); err != nil {
		return err
	}
	defer svc.SetAutoRefresh(context.Background(), false)

	last := svc.View().Snapshot().UpdatedAt
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-settled:
		}
		snap := svc.View().Snapshot()
		if snap.Error != "" {
			fmt.Fprintf(c.io.err, "error: %s\n", snap.Error)
			continue
		}
		if !snap.UpdatedAt.After(last) {
			continue
		}
		last = snap.UpdatedAt
		c.printf("\n")
		if err := writeSessions(c.io.out, svc.Rows(), snap); err != nil {
			return err
		}
	}
}

// sessionAction loads the page holding the target session, then runs act on it.
func sessionAction(name string, act func(ctx context.Context, id string) error, fallback string) func(context.Context, *cli, []string) error {
	return func(ctx context.Context, c *cli, args []string) error {
		fs := newFlagSet(c, name)
		filter, page := sessionFlags(fs)
		id, err := oneArg(fs, args, "session-id")
		if err != nil {
			return err
		}
		if err := c.loadSessions(ctx, *filter, *page); err != nil {
			return err
		}
		if err := act(ctx, id); err != nil {
			return err
		}
		c.done(c.stack.Console.Sessions.View().Snapshot().Success, fallback)
		return nil
	}
}

func runResolve(ctx context.Context, c *cli, args []string) error {
	return sessionAction("resolve", c.stack.Console.Sessions.Resolve, "Session resolved")(ctx, c, args)
}

func runKick(ctx context.Context, c *cli, args []string) error {
	return sessionAction("kick", c.stack.Console.Sessions.ForceLogout, "Session logged out")(ctx, c, args)
}

func runDeleteSession(ctx context.Context, c *cli, args []string) error {
	svc := c.stack.Console.Sessions
	id, err := oneArg(newFlagSet(c, "delete-session"), args, "session-id")
	if err != nil {
		return err
	}
	if err := svc.Delete(ctx, id); err != nil {
		return err
	}
	c.done(svc.View().Snapshot().Success, "Session deleted")
	return nil
}

func runExport(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "export")
	var f listview.Filter
	fs.StringVar(&f.CompanyID, "company", "", "Company id, defaults to the working company")
	fs.StringVar(&f.From, "from", "", "First day, YYYY-MM-DD")
	fs.StringVar(&f.To, "to", "", "Last day, YYYY-MM-DD")
	output := fs.String("o", "-", "Output file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(f.CompanyID) == "" {
		f.CompanyID = c.stack.Sessions.Current().CompanyID
	}
	if strings.TrimSpace(f.CompanyID) == "" {
		return apperrors.ErrCompanyRequired.WithMessage(services.ExportCompanyRequired)
	}

	w, closeOutput, err := c.openOutput(*output)
	if err != nil {
		return err
	}
	n, err := c.stack.Console.Sessions.ExportFiltered(ctx, f, w)
	if cerr := closeOutput(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if *output != "-" && *output != "" {
		fmt.Fprintf(c.io.err, "Wrote %d bytes to %s\n", n, *output)
	}
	return nil
}

func runUsers(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "users")
	role := fs.String("role", "", "Only admin or employee")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := c.stack.Console.Users
	var err error
	if *role != "" {
		err = svc.FilterRole(ctx, *role)
	} else {
		err = svc.Load(ctx)
	}
	if err != nil {
		return err
	}
	return writeUsers(c.io.out, svc.Rows(c.companies(ctx)))
}

func runUserCreate(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "user-create")
	var req upstream.CreateUserRequest
	role := fs.String("role", string(models.RoleEmployee), "admin or employee")
	fs.StringVar(&req.Username, "username", "", "Login name")
	fs.StringVar(&req.Password, "password", "", "Initial password")
	fs.StringVar(&req.DisplayName, "name", "", "Display name")
	fs.StringVar(&req.CompanyID, "company", "", "Company id, defaults to the working company for employees")
	fs.StringVar(&req.AssignedDeviceID, "device", "", "Device to assign")
	fs.StringVar(&req.AllocatedLocationID, "location", "", "Location to allocate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req.Role = models.Role(*role)

	svc := c.stack.Console.Users
	if err := svc.Create(ctx, req); err != nil {
		return err
	}
	c.done(svc.View().Snapshot().Success, "User created")
	return nil
}

func runUserUpdate(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "user-update")
	var req upstream.UpdateUserRequest
	fs.StringVar(&req.DisplayName, "name", "", "Display name")
	fs.StringVar(&req.Password, "password", "", "New password")
	fs.StringVar(&req.CompanyID, "company", "", "Company id")
	fs.StringVar(&req.AssignedDeviceID, "device", "", "Device to assign")
	fs.StringVar(&req.AllocatedLocationID, "location", "", "Location to allocate")
	id, err := oneArg(fs, args, "user-id")
	if err != nil {
		return err
	}

	svc := c.stack.Console.Users
	if err := svc.Update(ctx, id, req); err != nil {
		return err
	}
	c.done(svc.View().Snapshot().Success, "User updated")
	return nil
}

func runUserDelete(ctx context.Context, c *cli, args []string) error {
	id, err := oneArg(newFlagSet(c, "user-delete"), args, "user-id")
	if err != nil {
		return err
	}
	svc := c.stack.Console.Users
	if err := svc.Delete(ctx, id); err != nil {
		return err
	}
	c.done(svc.View().Snapshot().Success, "User deleted")
	return nil
}

func runAssignDevice(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "assign-device")
	available := fs.Bool("available", false, "List unassigned devices of the working company instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := c.stack.Console.Users
	if *available {
		devices, err := svc.AvailableDevices(ctx, "")
		if err != nil {
			return err
		}
		return writeAvailableDevices(c.io.out, devices)
	}

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: fencectl assign-device <user-id> <device-id>")
	}
	req := upstream.AssignDeviceRequest{UserID: fs.Arg(0), DeviceID: fs.Arg(1)}
	if err := svc.AssignDevice(ctx, req); err != nil {
		return err
	}
	c.done(svc.View().Snapshot().Success, "Device assigned")
	return nil
}

func runReport(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "report")
	var req upstream.ReportRequest
	kind := fs.String("type", string(models.ReportDaily), "daily, weekly, monthly or yearly")
	fs.StringVar(&req.UserID, "user", "", "User id")
	fs.StringVar(&req.Date, "date", "", "Any day inside the period, YYYY-MM-DD")
	csvPath := fs.String("csv", "", "Export the report as CSV to this file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req.Type = models.ReportType(*kind)

	svc := c.stack.Console.Users
	if *csvPath != "" {
		w, closeOutput, err := c.openOutput(*csvPath)
		if err != nil {
			return err
		}
		_, err = svc.ExportReport(ctx, req, w)
		if cerr := closeOutput(); err == nil {
			err = cerr
		}
		return err
	}

	report, err := svc.Report(ctx, req)
	if err != nil {
		return err
	}
	return writeReport(c.io.out, report)
}

func runDevices(ctx context.Context, c *cli, _ []string) error {
	svc := c.stack.Console.Devices
	if err := svc.Load(ctx); err != nil {
		return err
	}
	return writeDevices(c.io.out, svc.Rows(c.companies(ctx)))
}

func runDeviceRegister(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "device-register")
	var req upstream.RegisterDeviceRequest
	fs.StringVar(&req.DeviceID, "id", "", "Hardware device id")
	fs.StringVar(&req.Name, "name", "", "Display name")
	fs.StringVar(&req.Serial, "serial", "", "Serial number")
	fs.StringVar(&req.CompanyID, "company", "", "Company id, defaults to the working company")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := c.stack.Console.Devices
	if err := svc.Register(ctx, req); err != nil {
		return err
	}
	c.done(svc.View().Snapshot().Success, "Device registered")
	return nil
}

func runDeviceDelete(ctx context.Context, c *cli, args []string) error {
	id, err := oneArg(newFlagSet(c, "device-delete"), args, "device-id")
	if err != nil {
		return err
	}
	svc := c.stack.Console.Devices
	if err := svc.Delete(ctx, id); err != nil {
		return err
	}
	c.done(svc.View().Snapshot().Success, "Device deleted")
	return nil
}

func runLocations(ctx context.Context, c *cli, _ []string) error {
	svc := c.stack.Console.Locations
	if err := svc.Load(ctx); err != nil {
		return err
	}
	return writeLocations(c.io.out, svc.Rows(c.companies(ctx)))
}

func runLocationCreate(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "location-create")
	var req upstream.CreateLocationRequest
	fs.StringVar(&req.Name, "name", "", "Location name")
	fs.Float64Var(&req.Lat, "lat", 0, "Latitude")
	fs.Float64Var(&req.Lon, "lon", 0, "Longitude")
	fs.Float64Var(&req.RadiusMeters, "radius", 100, "Geofence radius in meters")
	fs.StringVar(&req.CompanyID, "company", "", "Company id, defaults to the working company")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := c.stack.Console.Locations
	if err := svc.Create(ctx, req); err != nil {
		return err
	}
	c.done(svc.View().Snapshot().Success, "Location created")
	return nil
}

func runLocationDelete(ctx context.Context, c *cli, args []string) error {
	id, err := oneArg(newFlagSet(c, "location-delete"), args, "location-id")
	if err != nil {
		return err
	}
	svc := c.stack.Console.Locations
	if err := svc.Delete(ctx, id); err != nil {
		return err
	}
	c.done(svc.View().Snapshot().Success, "Location deleted")
	return nil
}

func runCompanies(ctx context.Context, c *cli, _ []string) error {
	svc := c.stack.Console.Companies
	if err := svc.Load(ctx); err != nil {
		return err
	}
	return writeCompanies(c.io.out, svc.Companies(), c.stack.Sessions.Current().CompanyID)
}

func runCompanyCreate(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "company-create")
	var req upstream.CreateCompanyRequest
	fs.StringVar(&req.Name, "name", "", "Company name")
	fs.StringVar(&req.Timezone, "timezone", "UTC", "IANA timezone")
	fs.IntVar(&req.Settings.SessionTimeoutHours, "session-timeout", 12, "Hours before an open session is flagged")
	fs.IntVar(&req.Settings.HeartbeatMinutes, "heartbeat", 5, "Expected heartbeat interval in minutes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := c.stack.Console.Companies
	if err := svc.Create(ctx, req); err != nil {
		return err
	}
	c.done(svc.View().Snapshot().Success, "Company created")
	return nil
}
