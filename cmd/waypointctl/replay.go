package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matthewbaird/waypoint/internal/conditions"
	"github.com/matthewbaird/waypoint/internal/places"
	"github.com/matthewbaird/waypoint/internal/policy"
	"github.com/matthewbaird/waypoint/internal/service"
	"github.com/matthewbaird/waypoint/internal/store"
	"github.com/matthewbaird/waypoint/internal/types"
)

// scenario is a scripted sequence of reports and answers for one actor.
type scenario struct {
	Actor string `yaml:"actor"`
	// Place labels every report, as if a facility were registered there.
	Place string `yaml:"place"`
	// Alert, when set, is reported active at every location.
	Alert *struct {
		Event    string `yaml:"event"`
		Severity string `yaml:"severity"`
		Headline string `yaml:"headline"`
	} `yaml:"alert"`
	Steps []step `yaml:"steps"`
}

type step struct {
	Report *struct {
		Status    string  `yaml:"status"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
		At        string  `yaml:"at"`
	} `yaml:"report"`
	Answer *struct {
		Value    string `yaml:"value"`
		Category string `yaml:"category"`
		// At defaults to one minute after the last step.
		At string `yaml:"at"`
	} `yaml:"answer"`
}

func newReplayCmd() *cobra.Command {
	var policyFile string
	cmd := &cobra.Command{
		Use:   "replay [scenario.yaml]",
		Short: "Run a scripted scenario through the classifier and print each prompt",
		Long: `Replays a scenario against an in-memory store, without touching the
database or any upstream feed. Answers apply to the most recent record.

Example scenario:

  actor: driver-1
  place: Sysco Fresno
  steps:
    - report: {status: waiting, latitude: 36.996, longitude: -120.0968, at: "2026-03-14T08:00:00Z"}
    - report: {status: resting, latitude: 36.9974, longitude: -120.0968, at: "2026-03-14T10:10:00Z"}
    - answer: {value: still_waiting}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			thresholds := policy.Default()
			if policyFile != "" {
				if thresholds, err = policy.LoadFile(policyFile); err != nil {
					return err
				}
			}
			return replay(cmd.Context(), cmd.OutOrStdout(), data, thresholds)
		},
	}
	cmd.Flags().StringVar(&policyFile, "policy", "", "CUE file overriding the classification thresholds")
	return cmd
}

func replay(ctx context.Context, w io.Writer, data []byte, thresholds policy.Thresholds) error {
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Actor == "" {
		sc.Actor = "replay"
	}
	if len(sc.Steps) == 0 {
		return errors.New("scenario has no steps")
	}

	now := time.Time{}
	opts := []service.Option{
		service.WithThresholds(thresholds),
		service.WithClock(func() time.Time { return now }),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithPlaces(places.Static{Name: sc.Place}),
	}
	if sc.Alert != nil {
		opts = append(opts, service.WithFeed(conditions.StaticFeed{Snapshot: &conditions.Snapshot{
			Alerts: []conditions.Alert{{
				Event:    sc.Alert.Event,
				Severity: conditions.Severity(sc.Alert.Severity),
				Headline: sc.Alert.Headline,
			}},
		}}))
	} else {
		opts = append(opts, service.WithFeed(conditions.StaticFeed{Snapshot: &conditions.Snapshot{}}))
	}
	svc := service.New(store.NewMemoryStore(), opts...)

	var lastID string
	for i, s := range sc.Steps {
		switch {
		case s.Report != nil:
			at, err := time.Parse(time.RFC3339, s.Report.At)
			if err != nil {
				return fmt.Errorf("step %d: at: %w", i+1, err)
			}
			state, err := types.ParseState(s.Report.Status)
			if err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			now = at
			res, err := svc.SubmitReport(ctx, sc.Actor, types.Report{
				State:       state,
				Coordinates: types.Coordinates{Latitude: s.Report.Latitude, Longitude: s.Report.Longitude},
				ReportedAt:  at,
			})
			if err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			lastID = res.Record.ID
			fmt.Fprintf(w, "%d. %s -> %s  rule=%s\n", i+1, orDash(string(res.Record.PrevState())), res.Record.State, res.RuleID)
			printPrompt(w, "prompt", res.Record.Prompt)
			printPrompt(w, "conditions", res.Record.Overlay)
			fmt.Fprintf(w, "   %s\n", res.Message)

		case s.Answer != nil:
			if lastID == "" {
				return fmt.Errorf("step %d: answer before any report", i+1)
			}
			now = now.Add(time.Minute)
			if s.Answer.At != "" {
				at, err := time.Parse(time.RFC3339, s.Answer.At)
				if err != nil {
					return fmt.Errorf("step %d: at: %w", i+1, err)
				}
				now = at
			}
			res, err := svc.SubmitAnswer(ctx, sc.Actor, service.AnswerRequest{
				RecordID: lastID,
				Category: types.Category(s.Answer.Category),
				Value:    s.Answer.Value,
			})
			if err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			fmt.Fprintf(w, "%d. answer %s (%s)\n", i+1, s.Answer.Value, res.Slot)
			if res.Corrected {
				fmt.Fprintf(w, "   corrected to %s\n", res.NewState)
			}
			fmt.Fprintf(w, "   %s\n", res.Message)

		default:
			return fmt.Errorf("step %d: needs a report or an answer", i+1)
		}
	}
	return nil
}

func printPrompt(w io.Writer, label string, p *types.Prompt) {
	if p == nil {
		return
	}
	fmt.Fprintf(w, "   %s: [%s] %s\n", label, p.Category, p.Text)
	for _, o := range p.Options {
		fmt.Fprintf(w, "     - %s (%s)\n", o.Label, o.Value)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
