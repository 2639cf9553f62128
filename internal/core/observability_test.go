package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// TestNoopLoggerMethods directly invokes noopLogger methods to cover them.
func TestNoopLoggerMethods(_ *testing.T) {
	var l noopLogger
	l.Debug("d", "k", 1)
	l.Info("i", "k2", 2)
	l.Warn("w", "k3", 3)
	l.Error("e", "k4", 4)
}

func TestDefaultServiceOptions(t *testing.T) {
	opts := defaultServiceOptions()
	if opts.clock == nil || opts.logger == nil || opts.audit == nil || opts.metrics == nil || opts.tracer == nil {
		t.Fatalf("expected defaults populated")
	}
	if opts.persister != nil {
		t.Fatalf("expected no persister by default")
	}
	_ = opts.clock.Now()
	opts.audit.Record(context.Background(), AuditEntry{})
	opts.metrics.Observe(context.Background(), "noop", true, 0)
	_, span := opts.tracer.Start(context.Background(), "noop")
	span.End(nil)
}

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureLogger struct {
	noopLogger
	infos  []string
	warns  []string
	errors []string
}

func (l *captureLogger) Info(msg string, _ ...any)  { l.infos = append(l.infos, msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.warns = append(l.warns, msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }

func TestServiceObservability(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	var traceBuf bytes.Buffer
	tracer := NewJSONTracer(&traceBuf)
	logger := &captureLogger{}

	svc := newTestService(
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(logger),
	)

	advisor, _, err := svc.CreateAdvisor(ctx, carlos())
	if err != nil {
		t.Fatalf("create advisor: %v", err)
	}
	if !audit.has("create_advisor", AuditStatusSuccess, func(e AuditEntry) bool {
		return e.EntityID == advisor.ID && e.Entity == domain.EntityAdvisor && e.Timestamp.Equal(testNow)
	}) {
		t.Fatalf("expected audit entry for create_advisor success")
	}

	if _, err := svc.DeleteClient(ctx, 12345); err == nil {
		t.Fatalf("expected delete_client error for missing id")
	}
	if !audit.has("delete_client", AuditStatusError, func(e AuditEntry) bool { return strings.Contains(e.Error, "not found") }) {
		t.Fatalf("expected audit error entry for delete_client")
	}
	if !metrics.has("create_advisor", true) || !metrics.has("delete_client", false) {
		t.Fatalf("expected metrics for both operations, got %+v", metrics.calls)
	}
	if len(logger.infos) != 1 || logger.infos[0] != "operation rejected" {
		t.Fatalf("expected rejection logged at info, got %+v", logger.infos)
	}

	entries := tracer.Entries()
	if len(entries) != 2 || entries[0].Operation != "create_advisor" || entries[0].Outcome != OutcomeCommitted || entries[1].Outcome != OutcomeRejected {
		t.Fatalf("unexpected trace entries %+v", entries)
	}
	lines := strings.Split(strings.TrimSpace(traceBuf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 json lines, got %d", len(lines))
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("decode trace line: %v", err)
	}
	if decoded.Operation != "delete_client" || decoded.Error == "" {
		t.Fatalf("unexpected decoded entry %+v", decoded)
	}
}

func TestPersistFailureLoggedAsError(t *testing.T) {
	logger := &captureLogger{}
	svc := newTestService(WithLogger(logger), WithPersister(&capturePersister{err: errors.New("boom")}))
	if _, _, err := svc.CreateAdvisor(context.Background(), carlos()); err == nil {
		t.Fatalf("expected save error")
	}
	if len(logger.errors) != 1 {
		t.Fatalf("expected error log, got %+v", logger.errors)
	}
}

func TestOutcome(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"nil":        {nil, OutcomeCommitted},
		"validation": {domain.ValidationError{Entity: domain.EntityAdvisor, Field: "name"}, OutcomeRejected},
		"not found":  {domain.NotFoundError{Entity: domain.EntityRoute, ID: 1}, OutcomeRejected},
		"rules":      {RuleViolationError{}, OutcomeRejected},
		"wrapped":    {fmt.Errorf("save state: %w", errors.New("disk full")), OutcomeFailed},
	}
	for name, tc := range cases {
		if got := Outcome(tc.err); got != tc.want {
			t.Errorf("%s: Outcome = %s, want %s", name, got, tc.want)
		}
	}
}

func TestLogAuditRecorder(t *testing.T) {
	logger := &captureLogger{}
	svc := newTestService(WithAuditRecorder(NewLogAuditRecorder(logger)))
	if _, _, err := svc.CreateAdvisor(context.Background(), carlos()); err != nil {
		t.Fatalf("create advisor: %v", err)
	}
	if len(logger.infos) != 0 {
		t.Fatalf("committed mutations should be audited at debug, got %+v", logger.infos)
	}
	if _, err := svc.DeleteRoute(context.Background(), 404); err == nil {
		t.Fatalf("expected not found")
	}
	if len(logger.infos) != 1 || logger.infos[0] != "audit" {
		t.Fatalf("expected one info audit line, got %+v", logger.infos)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder("sarc_test", reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc := newTestService(WithMetricsRecorder(rec))
	if _, _, err := svc.CreateAdvisor(context.Background(), carlos()); err != nil {
		t.Fatalf("create advisor: %v", err)
	}
	if _, _, err := svc.CreateAdvisor(context.Background(), Advisor{}); err == nil {
		t.Fatalf("expected validation error")
	}

	if got := testutil.ToFloat64(rec.operations.WithLabelValues("create_advisor", "success")); got != 1 {
		t.Fatalf("success counter = %v", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("create_advisor", "error")); got != 1 {
		t.Fatalf("error counter = %v", got)
	}
	if n := testutil.CollectAndCount(rec.latency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}

	if _, err := NewPrometheusMetricsRecorder("sarc_test", reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
