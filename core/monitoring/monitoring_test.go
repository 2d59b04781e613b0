package monitoring

import (
	"errors"
	"testing"
)

func TestRecorderAndGlobal(t *testing.T) {
	rec := &Recorder{}
	Init(rec)
	defer Init(NopMonitor{})

	CaptureException(errors.New("boom"), map[string]string{"iteration": "3"})
	CaptureException(nil, nil)
	Current().CapturePanic("oops", nil)

	got := rec.Captured()
	if len(got) != 2 {
		t.Fatalf("expected 2 captures, got %d", len(got))
	}
	if got[0].Tags["iteration"] != "3" {
		t.Fatalf("tags not kept: %+v", got[0])
	}
	if got[1].Err.Error() != "panic: oops" {
		t.Fatalf("unexpected panic capture %v", got[1].Err)
	}
	Init(nil)
	if Current() != Monitor(rec) {
		t.Fatalf("nil monitor must be ignored")
	}
}
