package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/freeeve/rampart/internal/match"
	"github.com/freeeve/rampart/internal/model"
	"github.com/freeeve/rampart/internal/strategy"
	"github.com/freeeve/rampart/internal/transport"
	"github.com/freeeve/rampart/pkg/terminal"
)

// source is one recorded match to replay.
type source struct {
	name string
	open func(ctx context.Context) (match.Conn, func(), error)
}

// fileSource replays a JSONL recording: the config line, then one frame per line.
func fileSource(path string) source {
	return source{
		name: path,
		open: func(context.Context) (match.Conn, func(), error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, nil, err
			}
			return transport.NewConn(f, io.Discard), func() { f.Close() }, nil
		},
	}
}

type turnLister interface {
	ListTurns(ctx context.Context, matchID string) ([]model.Turn, error)
}

// dbSource replays the frames persisted for matchID behind configLine.
func dbSource(repo turnLister, configLine []byte, matchID string) source {
	return source{
		name: matchID,
		open: func(ctx context.Context) (match.Conn, func(), error) {
			turns, err := repo.ListTurns(ctx, matchID)
			if err != nil {
				return nil, nil, fmt.Errorf("list turns of %s: %w", matchID, err)
			}
			if len(turns) == 0 {
				return nil, nil, fmt.Errorf("match %s has no recorded turns", matchID)
			}
			lines := [][]byte{configLine}
			for _, t := range turns {
				lines = append(lines, t.Frame)
			}
			return &sliceConn{lines: lines}, func() {}, nil
		},
	}
}

// sliceConn serves fixed lines and discards submitted actions.
type sliceConn struct {
	lines [][]byte
	pos   int
}

func (c *sliceConn) ReadLine(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.pos >= len(c.lines) {
		return nil, io.EOF
	}
	line := c.lines[c.pos]
	c.pos++
	return line, nil
}

func (c *sliceConn) SendActions(_, _ []terminal.Action) error { return nil }

// replay plans every recorded deploy frame of src with profile.
func replay(ctx context.Context, src source, profile *strategy.Profile) (*match.Result, error) {
	conn, closeFn, err := src.open(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	r := match.NewRunner(conn, "replay:"+src.name, profile, match.WithTurnReports())
	return r.Run(ctx)
}

// countActions renders an action list as "FF x9  DF x1" in first-seen order.
func countActions(actions []terminal.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	counts := make(map[terminal.UnitType]int)
	var order []terminal.UnitType
	for _, a := range actions {
		if counts[a.Type] == 0 {
			order = append(order, a.Type)
		}
		counts[a.Type]++
	}
	parts := make([]string, 0, len(order))
	for _, t := range order {
		parts = append(parts, fmt.Sprintf("%s x%d", t, counts[t]))
	}
	return strings.Join(parts, "  ")
}

func printSummary(w io.Writer, names []string, results []*match.Result, errCount int) {
	fmt.Fprintf(w, "\nReplayed %d matches", len(results)-errCount)
	if errCount > 0 {
		fmt.Fprintf(w, " (%d failed)", errCount)
	}
	fmt.Fprintln(w, ":")

	for i, res := range results {
		if res == nil {
			continue
		}
		fmt.Fprintf(w, "\n%s  profile=%s  turns=%d  health=%.0f/%.0f\n",
			names[i], res.Profile, len(res.Turns), res.Health, res.EnemyHealth)
		for _, t := range res.Turns {
			flag := ""
			if t.Emergency {
				flag = "  EMERGENCY"
			}
			fmt.Fprintf(w, "  turn %3d%s\n", t.Turn, flag)
			fmt.Fprintf(w, "    build:  %s\n", countActions(t.Build))
			fmt.Fprintf(w, "    deploy: %s\n", countActions(t.Deploy))
			fired := append([]string(nil), t.RulesFired...)
			sort.Strings(fired)
			fmt.Fprintf(w, "    rules:  %s\n", strings.Join(fired, ", "))
		}
	}
}

func printJSON(w io.Writer, results []*match.Result, errCount int) error {
	out := struct {
		Total   int             `json:"total"`
		Errors  int             `json:"errors"`
		Results []*match.Result `json:"results"`
	}{
		Total:   len(results),
		Errors:  errCount,
		Results: results,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
