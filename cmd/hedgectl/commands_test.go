package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hedgedesk/hedgebook/internal/model"
)

const snapshot = `[
  {"portfolio": "CPAM", "investment_id": "INV-1", "strategy": "CPAM-RATES",
   "mv_ssc_usd": 1000, "long_mv": 600000, "expiry": "2025-03-15", "underlying_symbol": "CDX IG 5Y"},
  {"portfolio": "CPAM", "investment_id": "INV-2", "strategy": "CPAM-EQ",
   "mv_ssc_usd": -250, "short_mv": -100000, "expiry": "2026-06-30", "underlying_symbol": "SPY"}
]`

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRollupCommand(t *testing.T) {
	positions := writeTemp(t, "positions.json", snapshot)
	out, err := run(t, "rollup", "--positions", positions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp model.RollupResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not a rollup: %v\n%s", err, out)
	}
	if resp.Header.Totals.TotalMVUSD != 750 || resp.Header.Totals.RowCount != 2 {
		t.Errorf("unexpected totals %+v", resp.Header.Totals)
	}
	if resp.PortfolioTotalMV != 500000 {
		t.Errorf("expected portfolio total 500000, got %v", resp.PortfolioTotalMV)
	}
	if len(resp.Header.ByFamily) != 1 || resp.Header.ByFamily[0].HedgeFamily != "Vanilla Risk-Off Hedges" {
		t.Errorf("unmapped strategies should land in the default family, got %+v", resp.Header.ByFamily)
	}
}

func TestBreakdownCommand(t *testing.T) {
	positions := writeTemp(t, "positions.json", snapshot)
	out, err := run(t, "breakdown", "--positions", positions, "--as-of", "2025-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"as of 2025-01-31", "0-3M", "12M+", "IG", "SPY"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	if _, err := run(t, "breakdown", "--positions", positions, "--as-of", "someday"); err == nil {
		t.Error("expected an error for a bad --as-of")
	}
}

func TestVerifyCommand(t *testing.T) {
	positions := writeTemp(t, "positions.json", snapshot)
	local, err := run(t, "rollup", "--positions", positions)
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}

	matching := writeTemp(t, "remote.json", local)
	out, err := run(t, "verify", "--positions", positions, "--rollup", matching)
	if err != nil {
		t.Fatalf("expected match, got %v\n%s", err, out)
	}

	var resp model.RollupResponse
	json.Unmarshal([]byte(local), &resp)
	resp.Header.Totals.TotalLongMV = 1
	data, _ := json.Marshal(resp.Header)
	drifted := writeTemp(t, "drifted.json", string(data))

	out, err = run(t, "verify", "--positions", positions, "--rollup", drifted)
	if !errors.Is(err, errMismatch) {
		t.Fatalf("expected errMismatch, got %v", err)
	}
	if !strings.Contains(out, "totals.total_long_mv") {
		t.Errorf("expected the drifted field in output:\n%s", out)
	}
}
