package rollup

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCompare_IdenticalAfterRoundTrip(t *testing.T) {
	local := Build(sampleRows())

	// The remote header arrives as JSON; decoding it must reproduce every
	// numeric field exactly.
	data, err := json.Marshal(local)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var remote = Build(nil)
	if err := json.Unmarshal(data, &remote); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if m := Compare(local, remote); len(m) != 0 {
		t.Errorf("expected no mismatches, got %v", m)
	}
}

func TestCompare_ReportsDifferences(t *testing.T) {
	local := Build(sampleRows())
	remote := Build(sampleRows())

	remote.Totals.TotalMVUSD += 0.01
	remote.Totals.TotalDeltaSPX = f(1)
	remote.ByFamily[1].PositionCount = 99
	remote.ByStrategy = remote.ByStrategy[:1]

	got := Compare(local, remote)
	fields := make([]string, len(got))
	for i, m := range got {
		fields[i] = m.Field
	}
	joined := strings.Join(fields, ",")

	for _, want := range []string{
		"totals.total_mv_ssc_usd",
		"totals.total_delta_spx",
		"by_family[1].position_count",
		"by_strategy.len",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected mismatch on %s, got %s", want, joined)
		}
	}
}

func TestCompare_KeyMismatch(t *testing.T) {
	local := Build(sampleRows())
	remote := Build(sampleRows())
	remote.ByFamily[0].HedgeFamily = "Unknown"

	got := Compare(local, remote)
	if len(got) != 1 || got[0].Field != "by_family[0].hedge_family" {
		t.Errorf("expected a single key mismatch, got %v", got)
	}
	if got[0].String() == "" {
		t.Error("mismatch should render")
	}
}
