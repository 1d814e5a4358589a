package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/okian/zerodeadline/internal/adapters/llm"
	"github.com/okian/zerodeadline/internal/client"
	"github.com/okian/zerodeadline/internal/domain/model"
	"github.com/spf13/cobra"
)

// Defaults for the global flags.
const (
	envURL         = "ZD_URL"
	defaultURL     = "http://localhost:9080"
	dateTimeFmt    = "2006-01-02 15:04"
	transcriptPerm = 0o600
)

// cliOptions are the persistent flags shared by every command.
type cliOptions struct {
	url     string
	timeout time.Duration
	json    bool
}

func (o *cliOptions) client() *client.Client {
	return client.New(o.url, client.WithTimeout(o.timeout))
}

// render prints v as JSON when --json is set, otherwise calls human.
func (o *cliOptions) render(w io.Writer, v any, human func()) error {
	if !o.json {
		human()
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	url := os.Getenv(envURL)
	if url == "" {
		url = defaultURL
	}

	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Command-line client for the ZeroDeadline risk dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.url, "url", url, "server base URL (env "+envURL+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "per-request timeout")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print raw JSON")

	root.AddCommand(
		newDashboardCmd(opts),
		newHistoryCmd(opts),
		newScheduleCmd(opts),
		newStressCmd(opts),
		newAdviseCmd(opts),
		newChatCmd(opts),
		newCalendarCmd(opts),
	)
	return root
}

func newDashboardCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Evaluate the current risk and record it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := opts.client().Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return opts.render(out, d, func() {
				fmt.Fprintf(out, "Combined risk: %d/100 (%s)\n", d.Combined, d.Severity.Name)
				if d.HasPrevious {
					fmt.Fprintf(out, "Change:        %+d\n", d.Delta)
				}
				fmt.Fprintf(out, "Basic:         %d (%s)\n", d.Basic.Score, d.Basic.Tier)
				fmt.Fprintf(out, "Schedule:      %d\n", d.Schedule)
				if d.HasStress {
					fmt.Fprintf(out, "Stress:        %.2f\n", d.AvgStress)
				} else {
					fmt.Fprintln(out, "Stress:        no records")
				}
				fmt.Fprintln(out, d.Severity.Briefing)
				for _, part := range d.Degraded {
					fmt.Fprintln(out, "degraded:", part)
				}
			})
		},
	}
}

func newHistoryCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the recorded risk history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := opts.client().History(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return opts.render(out, entries, func() {
				for _, e := range entries {
					when := e.Timestamp
					if t, ok := e.Time(); ok {
						when = t.Local().Format(dateTimeFmt)
					}
					fmt.Fprintf(out, "%s  %3d\n", when, e.Risk)
				}
			})
		},
	}
}

func newScheduleCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage schedule items",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List schedule items by deadline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			views, err := opts.client().Schedules(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return opts.render(out, views, func() {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "INDEX\tTITLE\tDEADLINE\tIMPORTANCE\tDAYS")
				for _, v := range views {
					imp := "-"
					if n, ok := v.Item.Importance.Value(); ok {
						imp = strconv.Itoa(n)
					}
					days := strconv.Itoa(v.DaysLeft)
					if v.Overdue {
						days = "overdue"
					}
					deadline := v.Item.Deadline
					if deadline == "" {
						deadline = "-"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.Index, v.Item.Title, deadline, imp, days)
				}
				_ = tw.Flush()
			})
		},
	}

	var deadline string
	var importance int
	add := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a schedule item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item := model.ScheduleItem{Title: args[0], Deadline: deadline}
			if cmd.Flags().Changed("importance") {
				item.Importance = model.NewImportance(importance)
			}
			stored, err := opts.client().AddSchedule(cmd.Context(), item)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return opts.render(out, stored, func() {
				fmt.Fprintf(out, "added %q\n", stored.Title)
			})
		},
	}
	add.Flags().StringVar(&deadline, "deadline", "", "deadline as YYYY-MM-DD")
	add.Flags().IntVar(&importance, "importance", 0, "importance (1-10)")

	del := &cobra.Command{
		Use:   "delete INDEX",
		Short: "Delete the item at INDEX (see list)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			removed, err := opts.client().DeleteSchedule(cmd.Context(), index)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return opts.render(out, removed, func() {
				fmt.Fprintf(out, "deleted %q\n", removed.Title)
			})
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

func newStressCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Record and review stress",
	}

	var id string
	add := &cobra.Command{
		Use:   "add VALUE",
		Short: "Record a stress value between 1 and 10",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid stress value %q", args[0])
			}
			ack, err := opts.client().RecordStress(cmd.Context(), id, v)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return opts.render(out, ack, func() {
				fmt.Fprintf(out, "%s %s\n", ack.Status, ack.Sample.ID)
			})
		},
	}
	add.Flags().StringVar(&id, "id", "", "sample id; resubmitting the same id is ignored")

	var period string
	trend := &cobra.Command{
		Use:   "trend",
		Short: "Show the stress trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := opts.client().StressTrend(cmd.Context(), period)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return opts.render(out, report, func() {
				for _, p := range report.Points {
					fmt.Fprintf(out, "%-10s %5.2f  %s\n", p.Label, p.Mean, strings.Repeat("#", int(p.Mean)))
				}
				m := report.MonthOverMonth
				fmt.Fprintf(out, "%s: %.2f, %s: %.2f (%+.2f)\n", m.PreviousMonth, m.Previous, m.CurrentMonth, m.Current, m.Delta)
			})
		},
	}
	trend.Flags().StringVar(&period, "period", "day", "day, week or month")

	cmd.AddCommand(add, trend)
	return cmd
}

func newAdviseCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advise [CONTEXT]",
		Short: "Ask for an improvement plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var userContext string
			if len(args) == 1 {
				userContext = args[0]
			}
			advice, err := opts.client().Advise(cmd.Context(), userContext)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return opts.render(out, advice, func() {
				fmt.Fprintln(out, advice.Plan)
			})
		},
	}
}

func newChatCmd(opts *cliOptions) *cobra.Command {
	var transcript string
	cmd := &cobra.Command{
		Use:   "chat QUESTION",
		Short: "Ask the assistant a question",
		Long: "Ask the assistant a question. With --transcript the conversation is\n" +
			"read from and written back to a JSON file so it can be continued.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := readTranscript(transcript)
			if err != nil {
				return err
			}
			reply, err := opts.client().Chat(cmd.Context(), history, args[0])
			if err != nil {
				return err
			}
			if err := writeTranscript(transcript, reply.History); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := opts.render(out, reply, func() {
				if n := len(reply.History); n > 0 {
					fmt.Fprintln(out, reply.History[n-1].Text)
				}
			}); err != nil {
				return err
			}
			if reply.Error != "" {
				return errors.New(reply.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&transcript, "transcript", "", "JSON file holding the conversation")
	return cmd
}

func readTranscript(path string) (llm.Conversation, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var conv llm.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return conv, nil
}

func writeTranscript(path string, conv llm.Conversation) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, transcriptPerm); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

func newCalendarCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "List upcoming calendar events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			events, err := opts.client().CalendarEvents(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return opts.render(out, events, func() {
				if len(events) == 0 {
					fmt.Fprintln(out, "no upcoming events")
				}
				for _, e := range events {
					fmt.Fprintf(out, "%-25s %s\n", e.Start, e.Summary)
				}
			})
		},
	}
}
