package banner

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"elapor/pkg/version"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	titleColor   = color.New(color.FgHiCyan, color.Bold)
	versionColor = color.New(color.FgHiGreen)
	warningColor = color.New(color.FgYellow)
	alertColor   = color.New(color.FgHiRed, color.Bold)
)

// SystemStatus startup summary
type SystemStatus struct {
	Addr           string
	RedisStatus    bool
	MongoDBStatus  bool
	PostgresStatus bool
	MailProvider   string
	AdminCount     int64
	SuperAdmins    int64
	MaxSuperAdmins int
	CooldownWindow string
	// BootstrapEmail set when a first super admin was created on this start
	BootstrapEmail string
}

// Print writes the logo, version line and status table to w
func Print(w io.Writer, status SystemStatus) {
	printLogo(w)

	info := version.GetVersionInfo()
	fmt.Fprint(w, "Version ")
	versionColor.Fprint(w, info["version"])
	if commit, ok := info["git_commit"]; ok && len(commit) >= 8 {
		fmt.Fprintf(w, " (%s)", commit[:8])
	}
	fmt.Fprintf(w, " built at %s, %s\n\n", info["build_time"], info["go_version"])

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Component", "Status"})
	table.SetBorder(false)
	table.SetColumnSeparator("|")
	table.Append([]string{"HTTP", status.Addr})
	table.Append([]string{"Postgres", connected(status.PostgresStatus)})
	table.Append([]string{"MongoDB", connected(status.MongoDBStatus)})
	table.Append([]string{"Redis", connected(status.RedisStatus)})
	table.Append([]string{"Mail", status.MailProvider})
	table.Append([]string{"Admins", strconv.FormatInt(status.AdminCount, 10)})
	table.Append([]string{"Super admins", fmt.Sprintf("%d / %d", status.SuperAdmins, status.MaxSuperAdmins)})
	table.Append([]string{"Resend cooldown", status.CooldownWindow})
	table.Render()

	if status.MailProvider == "log" {
		warningColor.Fprintln(w, "Mail provider is \"log\": invitation mails are only written to the log")
	}
	if status.BootstrapEmail != "" {
		fmt.Fprintln(w)
		alertColor.Fprintf(w, "First super admin created for %s\n", status.BootstrapEmail)
		alertColor.Fprintln(w, "A password recovery mail has been sent to that address")
	}
	fmt.Fprintln(w)
}

func connected(ok bool) string {
	if ok {
		return "connected"
	}
	return "disconnected"
}

func printLogo(w io.Writer) {
	logo := `
       __
  ___ / /__ ____  ___  ____
 / -_) / _ '/ _ \/ _ \/ __/
 \__/_/\_,_/ .__/\___/_/
          /_/
`
	for _, line := range strings.Split(logo, "\n") {
		titleColor.Fprintln(w, line)
	}
}
