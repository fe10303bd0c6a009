package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/freeeve/rampart/internal/match"
	"github.com/freeeve/rampart/internal/model"
	"github.com/freeeve/rampart/internal/strategy"
	"github.com/freeeve/rampart/pkg/terminal"
)

const endFrame = `{"turnInfo":[2,1,-1],"p1Stats":[30,0,0,0],"p2Stats":[0,0,0,0],"p1Units":[[],[],[],[],[],[],[]],"p2Units":[[],[],[],[],[],[],[]]}`

func testdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "pkg", "terminal", "testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return bytes.TrimSpace(data)
}

func fortress(t *testing.T) *strategy.Profile {
	t.Helper()
	p, err := strategy.LoadProfile("fortress")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	return p
}

type mockLister struct {
	turns []model.Turn
}

func (m *mockLister) ListTurns(_ context.Context, _ string) ([]model.Turn, error) {
	return m.turns, nil
}

func TestReplayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.jsonl")
	lines := [][]byte{testdata(t, "config.json"), testdata(t, "frame_turn0.json"), []byte(endFrame)}
	if err := os.WriteFile(path, append(bytes.Join(lines, []byte("\n")), '\n'), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := replay(context.Background(), fileSource(path), fortress(t))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !res.Ended || len(res.Turns) != 1 || res.Turns[0].Turn != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.MatchID != "replay:"+path {
		t.Errorf("unexpected match ID %q", res.MatchID)
	}
	if len(res.Turns[0].Build) == 0 || len(res.Turns[0].Deploy) == 0 {
		t.Error("expected the opening turn to build and deploy")
	}
}

func TestReplayFile_Missing(t *testing.T) {
	if _, err := replay(context.Background(), fileSource("/no/such/file.jsonl"), fortress(t)); err == nil {
		t.Error("expected error for a missing recording")
	}
}

func TestReplayDatabase(t *testing.T) {
	repo := &mockLister{turns: []model.Turn{
		{MatchID: "m-1", Turn: 0, Frame: testdata(t, "frame_turn0.json")},
		{MatchID: "m-1", Turn: 3, Frame: testdata(t, "frame_turn3.json")},
	}}

	res, err := replay(context.Background(), dbSource(repo, testdata(t, "config.json"), "m-1"), fortress(t))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Ended {
		t.Error("stored turns carry no end frame")
	}
	if len(res.Turns) != 2 || !res.Turns[1].Emergency {
		t.Fatalf("unexpected turns %+v", res.Turns)
	}

	empty := &mockLister{}
	if _, err := replay(context.Background(), dbSource(empty, testdata(t, "config.json"), "m-2"), fortress(t)); err == nil {
		t.Error("expected error for a match with no turns")
	}
}

func TestCountActions(t *testing.T) {
	actions := []terminal.Action{
		{Type: "FF", Location: terminal.Loc(7, 13)},
		{Type: "DF", Location: terminal.Loc(5, 12)},
		{Type: "FF", Location: terminal.Loc(8, 13)},
	}
	if got := countActions(actions); got != "FF x2  DF x1" {
		t.Errorf("unexpected summary %q", got)
	}
	if got := countActions(nil); got != "-" {
		t.Errorf("expected dash for no actions, got %q", got)
	}
}

func TestPrintOutputs(t *testing.T) {
	results := []*match.Result{
		{MatchID: "replay:a", Profile: "fortress", Turns: []*strategy.TurnReport{
			{Turn: 2, Emergency: true, RulesFired: []string{"swarm-flood", "front-wall"}},
		}},
		nil,
	}

	var text bytes.Buffer
	printSummary(&text, []string{"a", "b"}, results, 1)
	out := text.String()
	for _, want := range []string{"Replayed 1 matches (1 failed)", "turn   2  EMERGENCY", "rules:  front-wall, swarm-flood"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	var js bytes.Buffer
	if err := printJSON(&js, results, 1); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded struct {
		Total  int `json:"total"`
		Errors int `json:"errors"`
	}
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Total != 2 || decoded.Errors != 1 {
		t.Errorf("unexpected totals %+v", decoded)
	}
}
