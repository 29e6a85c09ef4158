package api

import (
	"encoding/json"
	"testing"
)

func TestDecisionNormalization(t *testing.T) {
	cases := []struct {
		raw  string
		want Decision
	}{
		{"invest", DecisionInvest},
		{"INVEST", DecisionInvest},
		{"defer", DecisionDefer},
		{"do_not_invest", DecisionDefer},
		{"insufficient_data", DecisionInsufficientData},
		{"strong buy", DecisionOther},
		{"", DecisionOther},
	}
	for _, tc := range cases {
		var d Decision
		if err := json.Unmarshal([]byte(`"`+tc.raw+`"`), &d); err != nil {
			t.Fatalf("unmarshal %q: %v", tc.raw, err)
		}
		if d != tc.want {
			t.Errorf("decision %q = %v, want %v", tc.raw, d, tc.want)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	withStatus := &Error{Op: "query", Status: 502, Detail: "bad gateway"}
	if got := withStatus.Error(); got != "query: bad gateway (HTTP 502)" {
		t.Fatalf("unexpected error string: %q", got)
	}
	transport := &Error{Op: "query", Detail: "backend unreachable"}
	if got := transport.Error(); got != "query: backend unreachable" {
		t.Fatalf("unexpected error string: %q", got)
	}
}
