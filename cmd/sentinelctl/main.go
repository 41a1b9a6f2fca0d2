// Command sentinelctl is a terminal client for the Sentinel API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"sentinel/internal/client"
	"sentinel/internal/session"
	"sentinel/internal/status"
	"sentinel/internal/utils"
)

const usage = `usage: sentinelctl [-server URL] [-token TOKEN] <command> [args]

commands:
  status             API status
  metrics            host metrics
  login [username]   sign in and store the token
  logout             sign out and forget the token
  whoami             show the signed-in user
  services           list services
  add NAME IP PORT [DESCRIPTION]
                     add a service
  view ID            show the dashboard view for a service
  overview           service counts per status
  events [N]         recent directory events
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sentinelctl", flag.ContinueOnError)
	server := fs.String("server", envOr("SENTINEL_URL", client.DefaultBaseURL), "API base URL")
	token := fs.String("token", os.Getenv("SENTINEL_TOKEN"), "access token (default: stored by login)")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	api := client.New(*server, nil)
	if *token == "" {
		*token = loadToken()
	}
	api.SetToken(*token)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "status":
		st, err := api.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (version %s) at %s\n", st.Status, st.Version, st.Timestamp.Format(time.RFC3339))
	case "metrics":
		m, err := api.SystemMetrics(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "cpu %.1f%%  memory %.1f%%  disk %.1f%%  net in %d B  out %d B\n",
			m.CPUUsage, m.MemoryUsage, m.DiskUsage, m.NetworkTraffic.In, m.NetworkTraffic.Out)
	case "login":
		return login(ctx, api, rest, out)
	case "logout":
		err := api.Logout(ctx, api.Token())
		removeToken()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out.")
	case "whoami":
		u, err := api.CurrentUser(ctx, api.Token())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s <%s> superuser=%t\n", u.DisplayName(), u.Email, u.IsSuperuser)
	case "services":
		services, err := api.Services(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tSTATUS\tUPTIME")
		for _, s := range services {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f%%\n", s.ID, s.Name, s.Address(), status.ServiceStatusDisplay(s.Status).Label, s.Metrics.Uptime)
		}
		return tw.Flush()
	case "add":
		if len(rest) < 3 {
			return errors.New("add needs NAME IP PORT")
		}
		desc := strings.Join(rest[3:], " ")
		svc, err := api.AddService(ctx, rest[0], rest[1], rest[2], desc)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(out, "Added %s (%s) at %s\n", svc.Name, svc.ID, svc.Address())
	case "view":
		if len(rest) != 1 {
			return errors.New("view needs an ID")
		}
		v, err := api.View(ctx, rest[0])
		if err != nil {
			return err
		}
		printView(out, v)
	case "overview":
		c, err := api.Overview(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "total %d  online %d  warning %d  offline %d\n", c.Total, c.Online, c.Warning, c.Offline)
	case "events":
		limit := 10
		if len(rest) > 0 {
			if _, err := fmt.Sscanf(rest[0], "%d", &limit); err != nil {
				return fmt.Errorf("invalid event count %q", rest[0])
			}
		}
		events, err := api.Events(ctx, limit)
		if err != nil {
			return err
		}
		for _, ev := range events {
			fmt.Fprintf(out, "%s  %s  %s (%s)\n", ev.At.Format(time.RFC3339), ev.Type, ev.Service.Name, ev.Service.ID)
		}
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func login(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	var username string
	var err error
	if len(args) > 0 {
		username = args[0]
	} else if username, err = utils.PromptLine("Username or email: "); err != nil {
		return err
	}
	password, err := utils.PromptPassword("Password: ")
	if err != nil {
		return err
	}

	holder := session.NewHolder(api)
	if err := holder.Login(ctx, username, password); err != nil {
		return err
	}
	if err := saveToken(holder.Token()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: token not stored: %v\n", err)
	}
	user, _ := holder.CurrentUser()
	fmt.Fprintf(out, "Signed in as %s.\n", user.DisplayName())
	return nil
}

func printView(out io.Writer, v status.ServiceView) {
	origin := "telemetry"
	if v.Synthetic {
		origin = "synthetic"
	}
	fmt.Fprintf(out, "%s  %s  [%s]\n", v.Service.Name, v.Service.Address(), v.Status.Label)
	fmt.Fprintf(out, "  data:          %s, %s (%.0fs old)\n", origin, v.Freshness, v.Signals.DataFreshnessS)
	fmt.Fprintf(out, "  latency p95:   %.1f ms\n", v.Signals.LatencyP95Ms)
	fmt.Fprintf(out, "  traffic:       %.1f rps\n", v.Signals.RPS)
	fmt.Fprintf(out, "  error rate:    %.2f%%\n", v.Signals.ErrorRatePercent)
	fmt.Fprintf(out, "  saturation:    cpu %.1f%%  mem %.1f%%\n", v.Signals.CPUPercent, v.Signals.MemoryPercent)
	fmt.Fprintf(out, "  availability:  %.2f%% (%s)\n", v.Signals.AvailabilityPct, v.Availability.Label)
	fmt.Fprintf(out, "  last anomaly:  %s\n", v.Anomaly.Label)
}

// describe expands validation details from the server.
func describe(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Details) == 0 {
		return err
	}
	detail, _ := json.Marshal(apiErr.Details)
	return fmt.Errorf("%s: %s", apiErr.Message, detail)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func tokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sentinel", "token")
}

func loadToken() string {
	path := tokenFile()
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(token string) error {
	path := tokenFile()
	if path == "" {
		return errors.New("no user config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

func removeToken() {
	if path := tokenFile(); path != "" {
		_ = os.Remove(path)
	}
}
