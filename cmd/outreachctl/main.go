// Command outreachctl drives the outreach API from a terminal: list and
// export leads, start calls, run follow-ups and watch live calls.
//
// Usage:
//
//	outreachctl [-api URL] [-key KEY] [-token JWT] <command> [flags]
//
// Commands: leads, export, stats, call, autodial, followups, watch, token.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/outreach-ai-platform/internal/client"
	"github.com/wolfman30/outreach-ai-platform/internal/notice"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type cli struct {
	api    *client.Client
	board  *notice.Board
	calls  *client.InFlight
	logger *logging.Logger
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
	secret string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("outreachctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	apiURL := global.String("api", envOr("OUTREACH_API_URL", "http://localhost:5001/api"), "API base URL")
	apiKey := global.String("key", os.Getenv("API_KEY"), "API key sent as X-API-Key")
	token := global.String("token", os.Getenv("OUTREACH_TOKEN"), "bearer token")
	logLevel := global.String("log-level", envOr("LOG_LEVEL", "warn"), "log level")
	global.Usage = func() {
		fmt.Fprintln(stderr, "usage: outreachctl [flags] <leads|export|stats|call|autodial|followups|watch|token> [flags]")
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		return 2
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return 2
	}

	logger := logging.New(*logLevel)
	c := &cli{
		api:    client.New(*apiURL, client.WithAPIKey(*apiKey), client.WithToken(*token), client.WithLogger(logger)),
		board:  notice.NewBoard(nil),
		calls:  &client.InFlight{},
		logger: logger,
		out:    stdout,
		errOut: stderr,
		now:    time.Now,
		secret: os.Getenv("API_JWT_SECRET"),
	}

	var err error
	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "leads":
		err = c.leads(ctx, cmdArgs)
	case "export":
		err = c.export(ctx, cmdArgs)
	case "stats":
		err = c.stats(ctx, cmdArgs)
	case "call":
		err = c.call(ctx, cmdArgs)
	case "autodial":
		err = c.autodial(ctx, cmdArgs)
	case "followups":
		err = c.followUps(ctx, cmdArgs)
	case "watch":
		err = c.watch(ctx, cmdArgs)
	case "token":
		err = c.token(cmdArgs)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		global.Usage()
		return 2
	}
	c.flush()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if errors.Is(err, errNotified) {
			return 1
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// flush prints the notices that are still visible.
func (c *cli) flush() {
	for _, n := range c.board.Active() {
		w := c.out
		if n.Kind == notice.KindError {
			w = c.errOut
		}
		fmt.Fprintf(w, "[%s] %s\n", n.Kind, n.Message)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
