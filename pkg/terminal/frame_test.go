package terminal

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseConfig(t *testing.T) {
	cfg := loadTestConfig(t)
	cat := NewCatalog(cfg)

	want := []UnitType{"FF", "EF", "DF", "PI", "EI", "SI"}
	for i, w := range want {
		got, err := cat.TypeAt(i)
		if err != nil || got != w {
			t.Errorf("TypeAt(%d) = %q, %v; want %q", i, got, err, w)
		}
	}
	if !cat.IsStationary("DF") || cat.IsStationary("PI") {
		t.Error("stationary classification is wrong")
	}
	if cat.Pool("EF") != Cores || cat.Pool("SI") != Bits {
		t.Error("pool classification is wrong")
	}
	if cfg.Resources.StartingCores != 40 {
		t.Errorf("expected 40 starting cores, got %v", cfg.Resources.StartingCores)
	}
	if _, err := cat.TypeAt(6); err == nil {
		t.Error("expected error for removal slot index")
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"not json", `{`, "decode config"},
		{"too few units", `{"unitInformation":[{"shorthand":"FF","cost":1}]}`, "need 6"},
		{"duplicate", `{"unitInformation":[{"shorthand":"FF","cost":1},{"shorthand":"FF","cost":1},{"shorthand":"DF","cost":1},{"shorthand":"PI","cost":1},{"shorthand":"EI","cost":1},{"shorthand":"SI","cost":1}]}`, "duplicate"},
		{"free unit", `{"unitInformation":[{"shorthand":"FF","cost":0},{"shorthand":"EF","cost":1},{"shorthand":"DF","cost":1},{"shorthand":"PI","cost":1},{"shorthand":"EI","cost":1},{"shorthand":"SI","cost":1}]}`, "non-positive"},
	}
	for _, tc := range tests {
		_, err := ParseConfig([]byte(tc.data))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestParseFrame(t *testing.T) {
	f := loadTestFrame(t, "frame_turn3.json")
	if f.Phase != PhaseDeploy || f.Turn != 3 || f.FrameIndex != -1 {
		t.Errorf("unexpected turnInfo: phase=%v turn=%d frame=%d", f.Phase, f.Turn, f.FrameIndex)
	}
	if f.Players[0].Health != 27 || f.Players[1].Cores != 8 {
		t.Errorf("unexpected stats: %+v", f.Players)
	}
	if len(f.Units[0][0]) != 3 {
		t.Errorf("expected 3 of our walls, got %d", len(f.Units[0][0]))
	}
	if f.Units[1][2][0].ID != "43" {
		t.Errorf("expected enemy turret id 43, got %q", f.Units[1][2][0].ID)
	}
	if len(f.Raw) == 0 {
		t.Error("expected raw frame to be retained")
	}
}

func TestParseFrame_Errors(t *testing.T) {
	if _, err := ParseFrame([]byte(`{"turnInfo":[0]}`)); err == nil {
		t.Error("expected error for short turnInfo")
	}
	if _, err := ParseFrame([]byte(`{"turnInfo":[0,1],"p1Units":[[["a",1]]]}`)); err == nil {
		t.Error("expected error for non-numeric position")
	}
}

func TestActionJSON(t *testing.T) {
	data, err := EncodeActions([]Action{{Type: "FF", Location: Loc(7, 13)}, {Type: "PI", Location: Loc(14, 0)}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data) != `[["FF",7,13],["PI",14,0]]` {
		t.Errorf("unexpected encoding: %s", data)
	}

	empty, err := EncodeActions(nil)
	if err != nil || string(empty) != "[]" {
		t.Errorf("expected [], got %s (%v)", empty, err)
	}

	var back []Action
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back[1].Type != "PI" || back[1].Location != Loc(14, 0) {
		t.Errorf("unexpected decoded action: %+v", back[1])
	}
}
