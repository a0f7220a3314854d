package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/client"
	"github.com/wolfman30/outreach-ai-platform/internal/dialer"
	"github.com/wolfman30/outreach-ai-platform/internal/http/middleware"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/notice"
)

// errNotified marks a failure already reported through a notice.
var errNotified = errors.New("outreachctl: failed")

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func leadFilterFlags(fs *flag.FlagSet) *client.LeadQuery {
	q := &client.LeadQuery{}
	fs.StringVar(&q.Status, "status", "", "lead status")
	fs.StringVar(&q.Qualification, "qualification", "", "qualification status")
	fs.StringVar(&q.Industry, "industry", "", "industry")
	fs.StringVar(&q.Search, "q", "", "search name, phone, city or industry")
	fs.StringVar(&q.Sort, "sort", "", "sort field: id, name, phone, industry, city, status, qualification_status, employee_count, created_at")
	fs.BoolVar(&q.Desc, "desc", false, "sort descending")
	return q
}

func (c *cli) leads(ctx context.Context, args []string) error {
	fs := c.flagSet("leads")
	q := leadFilterFlags(fs)
	fs.IntVar(&q.Page, "page", 1, "page number")
	fs.IntVar(&q.PageSize, "page-size", leads.DefaultPageSize, "rows per page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := c.api.LeadPage(ctx, *q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tINDUSTRY\tCITY\tSTATUS\tQUALIFICATION")
	for _, l := range page.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Name, l.Phone, l.Industry, l.City, l.Status, l.QualificationStatus)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "page %d/%d, %d leads\n", page.Page, max(page.Pages, 1), page.Total)
	return nil
}

func (c *cli) export(ctx context.Context, args []string) error {
	fs := c.flagSet("export")
	q := leadFilterFlags(fs)
	format := fs.String("format", "csv", "csv or xlsx")
	output := fs.String("o", "", "output file; - for stdout, empty for the server's filename")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var buf bytes.Buffer
	filename, err := c.api.ExportLeads(ctx, *format, *q, &buf)
	if err != nil {
		return err
	}
	if *output == "-" {
		_, err := c.out.Write(buf.Bytes())
		return err
	}
	path := *output
	if path == "" {
		path = filename
	}
	if path == "" {
		path = "leads." + *format
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	c.board.Success(fmt.Sprintf("Exported leads to %s", path))
	return nil
}

func (c *cli) stats(ctx context.Context, args []string) error {
	fs := c.flagSet("stats")
	days := fs.Int("days", 0, "window in days; 0 uses the server default")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dash, err := c.api.Dashboard(ctx, *days)
	if err != nil {
		return err
	}
	summary, err := c.api.CallSummary(ctx, *days)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total leads\t%d\n", dash.TotalLeads)
	fmt.Fprintf(tw, "Total calls\t%d\n", dash.TotalCalls)
	fmt.Fprintf(tw, "Successful calls\t%d\n", dash.SuccessfulCalls)
	fmt.Fprintf(tw, "Qualified leads\t%d\n", dash.QualifiedLeads)
	fmt.Fprintf(tw, "Appointments set\t%d\n", dash.AppointmentsSet)
	fmt.Fprintf(tw, "Call completion\t%.1f%%\n", dash.CallCompletionRate)
	fmt.Fprintf(tw, "Qualification\t%.1f%%\n", dash.QualificationRate)
	fmt.Fprintf(tw, "Conversion\t%.1f%%\n", dash.ConversionRate)
	fmt.Fprintf(tw, "Average call\t%.0fs\n", summary.AverageDuration)
	if err := tw.Flush(); err != nil {
		return err
	}
	printCounts(c, "Leads by status", dash.LeadsByStatus)
	printCounts(c, "Calls by status", summary.CallsByStatus)
	printCounts(c, "Calls by day", summary.CallsByDay)
	return nil
}

func printCounts(c *cli, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(c.out, "\n%s\n", title)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s\t%d\n", k, counts[k])
	}
	_ = tw.Flush()
}

// call starts one call per lead id, concurrently. Repeated ids share the
// InFlight guard, so a lead never has two calls outstanding.
func (c *cli) call(ctx context.Context, args []string) error {
	fs := c.flagSet("call")
	script := fs.String("script", "", "opening script override")
	manual := fs.Bool("manual", true, "mark as a manual call")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(fs.Args())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.New("call: at least one lead id is required")
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	fail := func() {
		mu.Lock()
		failed++
		mu.Unlock()
	}
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			err := c.calls.Do(id, func() error {
				res, err := c.api.Call(ctx, dialer.CallRequest{LeadID: id, Script: *script, IsManual: *manual})
				if err != nil {
					return err
				}
				c.board.Success(fmt.Sprintf("Call started for lead %d (%s)", id, res.CallSID))
				return nil
			})
			switch {
			case err == nil:
			case errors.Is(err, client.ErrInFlight):
				c.board.Error(fmt.Sprintf("Lead %d: a call is already in progress", id))
				fail()
			case client.IsOutsideCallingHours(err):
				c.board.Error(fmt.Sprintf("Lead %d: Outside of calling hours", id))
				fail()
			default:
				c.logger.Debug("call failed", "lead_id", id, "error", err)
				c.board.Error(fmt.Sprintf("Lead %d: %s", id, message(err)))
				fail()
			}
		}(id)
	}
	wg.Wait()
	if failed > 0 {
		return errNotified
	}
	return nil
}

// autodial queues the given leads, or every Not Called lead when none are given.
func (c *cli) autodial(ctx context.Context, args []string) error {
	fs := c.flagSet("autodial")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(fs.Args())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		list, err := c.api.ListLeads(ctx, client.LeadQuery{Status: leads.StatusNotCalled})
		if err != nil {
			return err
		}
		for _, l := range list {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		c.board.Post(notice.KindInfo, "No leads to dial")
		return nil
	}

	res, err := c.api.AutoDial(ctx, ids)
	if client.IsOutsideCallingHours(err) {
		c.board.Error("Outside of calling hours")
		return errNotified
	}
	if err != nil {
		return err
	}
	c.board.Success(fmt.Sprintf("Queued %d leads for dialing", len(res.Queued)))
	if len(res.Skipped) > 0 {
		c.board.Post(notice.KindInfo, fmt.Sprintf("Skipped %d leads: %s", len(res.Skipped), joinIDs(res.Skipped)))
	}
	return nil
}

func (c *cli) followUps(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("followups: expected run or list")
	}
	switch args[0] {
	case "run":
		fs := c.flagSet("followups run")
		maxCalls := fs.Int("max", 0, "maximum calls to place; 0 uses the server default")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		res, err := c.api.AutoFollowUp(ctx, *maxCalls)
		if client.IsOutsideCallingHours(err) {
			c.board.PostFor(notice.KindError, "Outside of calling hours", notice.FollowUpTTL)
			return errNotified
		}
		if err != nil {
			return err
		}
		c.board.PostFor(notice.KindSuccess, fmt.Sprintf("Dispatched %d follow-ups", res.Count), notice.FollowUpTTL)
		return nil
	case "list":
		fs := c.flagSet("followups list")
		status := fs.String("status", "", "pending, completed or cancelled")
		leadID := fs.Int64("lead", 0, "only this lead")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		list, err := c.api.FollowUps(ctx, *status, *leadID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLEAD\tSCHEDULED\tPRIORITY\tSTATUS\tREASON")
		for _, f := range list {
			lead := strconv.FormatInt(f.LeadID, 10)
			if f.LeadName != "" {
				lead += " " + f.LeadName
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
				f.ID, lead, f.ScheduledTime.Local().Format("2006-01-02 15:04"), f.Priority, f.Status, f.Reason)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("followups: unknown subcommand %q", args[0])
	}
}

// watch prints the set of leads in Calling each time it changes.
func (c *cli) watch(ctx context.Context, args []string) error {
	fs := c.flagSet("watch")
	interval := fs.Duration("interval", 5*time.Second, "poll interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	last := "-"
	err := c.api.WatchCalling(ctx, *interval, func(ids []int64) error {
		current := joinIDs(ids)
		if current == last {
			return nil
		}
		last = current
		if current == "" {
			current = "none"
		}
		fmt.Fprintf(c.out, "%s calling: %s\n", c.now().Format("15:04:05"), current)
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *cli) token(args []string) error {
	fs := c.flagSet("token")
	secret := fs.String("secret", c.secret, "signing secret (API_JWT_SECRET)")
	subject := fs.String("subject", "outreachctl", "token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return errors.New("token: a secret is required")
	}
	signed, err := middleware.IssueToken(*secret, *subject, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, signed)
	return nil
}

func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid lead id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

// message prefers the server's error text over the wrapped client error.
func message(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
