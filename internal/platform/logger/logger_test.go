package logger

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
)

// Init is process-wide (sync.Once), so every test shares one sink
var sink bytes.Buffer

func TestMain(m *testing.M) {
	Init(Options{Level: "debug", Format: "json", Service: "vaktpost", Writer: &sink})
	os.Exit(m.Run())
}

func TestInitOnceAndFields(t *testing.T) {
	sink.Reset()
	Get().Info().Msg("hello")
	out := sink.String()
	if !strings.Contains(out, `"service":"vaktpost"`) {
		t.Fatalf("expected service field, got %s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("expected message, got %s", out)
	}

	// second Init is a no-op
	Init(Options{Level: "error", Format: "json", Service: "other", Writer: &sink})
	sink.Reset()
	Get().Info().Msg("again")
	if !strings.Contains(sink.String(), "again") {
		t.Fatalf("root logger was replaced by second Init")
	}
}

func TestWithRuleEnrichesChild(t *testing.T) {
	sink.Reset()
	ctx := WithRule(context.Background(), "r-42")
	C(ctx).Info().Msg("tick")
	if !strings.Contains(sink.String(), `"rule_id":"r-42"`) {
		t.Fatalf("expected rule_id field, got %s", sink.String())
	}
}

func TestNamedAddsComponent(t *testing.T) {
	sink.Reset()
	Named("scheduler").Info().Msg("up")
	if !strings.Contains(sink.String(), `"component":"scheduler"`) {
		t.Fatalf("expected component field, got %s", sink.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if parseLevel("nonsense") != parseLevel("info") {
		t.Fatalf("unknown level should default to info")
	}
}
