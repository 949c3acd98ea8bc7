package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"github.com/spf13/pflag"

	"github.com/xraph/poke"
	"github.com/xraph/poke/debug"
	"github.com/xraph/poke/internal/cli"
)

const requestTimeout = 10 * time.Second

func newApp(out, errOut io.Writer) *cli.App {
	app := cli.New(cli.Config{
		Name:        "poke",
		Version:     version,
		Description: "poke - dependency graph configuration and inspection",
		Output:      out,
		ErrOutput:   errOut,
	})

	for _, cmd := range []*cli.Command{
		configCommand(),
		providersCommand(),
		watchCommand(),
		{
			Name:        "version",
			Description: "Show version information",
			Run: func(ctx *cli.Context) error {
				ctx.Println("poke " + version)
				ctx.Println("Commit: " + commit)

				return nil
			},
		},
	} {
		// Names are fixed above.
		_ = app.AddCommand(cmd)
	}

	return app
}

func configCommand() *cli.Command {
	var files []string

	return &cli.Command{
		Name:        "config",
		Description: "Work with poke.yaml files",
		Usage:       "config check [dir] [--file path]...",
		Subcommands: []*cli.Command{{
			Name:        "check",
			Aliases:     []string{"validate"},
			Description: "Validate configuration and print the effective settings",
			Usage:       "config check [dir] [--file path]...",
			Flags: func(fs *pflag.FlagSet) {
				fs.StringSliceVarP(&files, "file", "f", nil, "configuration files, later files override earlier ones")
			},
			Run: func(ctx *cli.Context) error {
				var (
					cfg poke.Config
					err error
				)
				if len(files) > 0 {
					cfg, err = poke.LoadConfig(files...)
				} else {
					cfg, err = poke.DiscoverConfig(ctx.Arg(0, "."))
				}
				if err != nil {
					return err
				}

				tbl := cli.NewTable(ctx.Out)
				tbl.SetHeader("SETTING", "VALUE")
				tbl.AppendRow("marker", cfg.Marker)
				tbl.AppendRow("search_policy", cfg.SearchPolicy)
				tbl.AppendRow("logging", cfg.Logging.Level+"/"+cfg.Logging.Format+"/"+cfg.Logging.Environment)
				tbl.AppendRow("metrics", enabled(cfg.Metrics.Enabled, cfg.Metrics.Namespace))
				tbl.AppendRow("tracing", enabled(cfg.Tracing.Enabled, cfg.Tracing.Exporter))
				tbl.Render()

				ctx.Success("configuration valid")

				return nil
			},
		}},
	}
}

func enabled(on bool, detail string) string {
	if !on {
		return cli.Colorize(cli.Gray, "disabled")
	}

	return "enabled (" + detail + ")"
}

func providersCommand() *cli.Command {
	var (
		base      string
		component string
	)

	return &cli.Command{
		Name:        "providers",
		Description: "List providers of a running graph",
		Usage:       "providers --url http://host/debug [--component name] [key]",
		Flags: func(fs *pflag.FlagSet) {
			fs.StringVarP(&base, "url", "u", "", "base URL of the debug handler")
			fs.StringVarP(&component, "component", "c", "", "only list providers of this component")
		},
		Run: func(ctx *cli.Context) error {
			if base == "" {
				return cli.NewError("--url is required", cli.ExitUsageError)
			}

			path := "/providers"
			if key := ctx.Arg(0, ""); key != "" {
				path += "/" + url.PathEscape(key)
			}

			endpoint := strings.TrimRight(base, "/") + path
			if component != "" {
				endpoint += "?component=" + url.QueryEscape(component)
			}

			var list debug.ProviderList
			if err := getJSON(ctx, endpoint, &list); err != nil {
				return err
			}

			tbl := cli.NewTable(ctx.Out)
			tbl.SetHeader("KEY", "COMPONENT", "SCOPED", "STATE", "REFS", "OWNERS", "CACHED")
			tbl.SetColumnAlignment(4, cli.AlignRight)
			tbl.SetColumnAlignment(5, cli.AlignRight)
			for _, p := range list.Providers {
				tbl.AppendRow(
					p.Key,
					p.Component,
					strconv.FormatBool(p.Scoped),
					colorState(p.State),
					strconv.Itoa(p.RefCount),
					strconv.Itoa(p.Owners),
					strconv.FormatBool(p.Cached),
				)
			}
			tbl.Render()
			ctx.Printf("%d providers\n", list.Count)

			return nil
		},
	}
}

func colorState(state string) string {
	switch state {
	case poke.StateReady.String():
		return cli.Colorize(cli.Green, state)
	case poke.StateInProgress.String():
		return cli.Colorize(cli.Yellow, state)
	default:
		return state
	}
}

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func getJSON(ctx *cli.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return cli.WrapError(err, "invalid url", cli.ExitUsageError)
	}

	client := &http.Client{Timeout: requestTimeout}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body errorBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
			return errors.New(body.Error)
		}

		return fmt.Errorf("request %s: %s", endpoint, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

func watchCommand() *cli.Command {
	var (
		target string
		count  int
	)

	return &cli.Command{
		Name:        "watch",
		Description: "Stream inject and release events of a running graph",
		Usage:       "watch --url ws://host/debug/events [--count n]",
		Flags: func(fs *pflag.FlagSet) {
			fs.StringVarP(&target, "url", "u", "", "websocket URL of the events endpoint")
			fs.IntVarP(&count, "count", "n", 0, "exit after n events, 0 streams until interrupted")
		},
		Run: func(ctx *cli.Context) error {
			if target == "" {
				return cli.NewError("--url is required", cli.ExitUsageError)
			}

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
			if err != nil {
				return fmt.Errorf("connect %s: %w", target, err)
			}
			defer conn.Close()

			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer stop()

			for seen := 0; count == 0 || seen < count; seen++ {
				_, data, err := conn.ReadMessage()
				if err != nil {
					if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						return nil
					}

					return fmt.Errorf("read event: %w", err)
				}

				var ev debug.Event
				if err := json.Unmarshal(data, &ev); err != nil {
					return fmt.Errorf("decode event: %w", err)
				}

				typ := cli.Colorize(cli.Green, ev.Type)
				if ev.Type == debug.EventRelease {
					typ = cli.Colorize(cli.Cyan, ev.Type)
				}
				ctx.Printf("%s %-8s %s\n", ev.Time.Format(time.RFC3339), typ, ev.Target)
			}

			return nil
		},
	}
}
