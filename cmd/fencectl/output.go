package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charlesng35/fenceadmin/internal/listview"
	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/present"
)

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cells ...string) {
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
}

func mark(on bool, label string) string {
	if on {
		return label
	}
	return ""
}

func writeSessions(w io.Writer, rows []present.SessionRow, snap listview.Snapshot[models.Session]) error {
	tw := newTable(w, "ID", "USER", "DEVICE", "LOGIN", "LOGOUT", "DURATION", "STATUS", "HEARTBEAT", "")
	for _, r := range rows {
		row(tw, r.ID, r.User, r.DeviceID, r.LoginAt, r.LogoutAt, r.Duration, r.Status, r.LastHeartbeat, mark(r.Suspect, "suspect"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Page %d of %d, %d sessions\n", snap.Page, snap.Pages(), snap.Total)
	return err
}

func writeUsers(w io.Writer, rows []present.UserRow) error {
	tw := newTable(w, "ID", "USERNAME", "NAME", "ROLE", "COMPANY", "DEVICE")
	for _, r := range rows {
		row(tw, r.ID, r.Username, r.DisplayName, r.Role, r.Company, r.Device)
	}
	return tw.Flush()
}

func writeDevices(w io.Writer, rows []present.DeviceRow) error {
	tw := newTable(w, "ID", "DEVICE", "NAME", "SERIAL", "COMPANY", "LAST SEEN")
	for _, r := range rows {
		row(tw, r.ID, r.DeviceID, r.Name, r.Serial, r.Company, r.LastSeen)
	}
	return tw.Flush()
}

func writeAvailableDevices(w io.Writer, devices []models.Device) error {
	tw := newTable(w, "ID", "DEVICE", "NAME")
	for _, d := range devices {
		row(tw, d.ID, d.DeviceID, d.Name)
	}
	return tw.Flush()
}

func writeLocations(w io.Writer, rows []present.LocationRow) error {
	tw := newTable(w, "ID", "NAME", "LAT", "LON", "RADIUS", "COMPANY")
	for _, r := range rows {
		row(tw, r.ID, r.Name, r.Lat, r.Lon, r.Radius, r.Company)
	}
	return tw.Flush()
}

// writeCompanies lists companies, marking current with an asterisk.
func writeCompanies(w io.Writer, companies []models.Company, current string) error {
	tw := newTable(w, "", "ID", "NAME", "TIMEZONE", "TIMEOUT", "HEARTBEAT")
	for _, c := range companies {
		row(tw, mark(c.ID == current, "*"), c.ID, c.Name, c.Timezone,
			fmt.Sprintf("%dh", c.Settings.SessionTimeoutHours),
			fmt.Sprintf("%dm", c.Settings.HeartbeatMinutes))
	}
	return tw.Flush()
}

func writeReport(w io.Writer, report models.WorkReport) error {
	name := report.User.DisplayName
	if name == "" {
		name = report.User.Username
	}
	fmt.Fprintf(w, "%s for %s\n", present.ReportTitle(report.Type), name)
	fmt.Fprintf(w, "Sessions: %d  Worked: %s  Per session: %s\n\n",
		report.TotalSessions,
		present.WorkDuration(report.TotalWorkingMinutes),
		present.AveragePerSession(report))

	tw := newTable(w, "SESSION", "LOGIN", "LOGOUT", "WORKED", "STATUS")
	for _, s := range report.Sessions {
		row(tw, s.SessionID,
			present.FormatTimestamp(s.LoginAt, nil),
			present.FormatTimestamp(s.LogoutAt, nil),
			present.WorkDuration(s.WorkingMinutes),
			s.Status)
	}
	return tw.Flush()
}
