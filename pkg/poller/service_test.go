package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestService_ReplaceCancelsPrevious(t *testing.T) {
	svc := NewService(nil)
	defer svc.Stop()

	p := New[int](testConfig(1000), nil)

	var firstDone int32
	var firstCalls int32
	first := Launch(context.Background(), svc, "sensors", p, Job[int]{
		Name:  "sensors",
		Check: pendingUntil(1000, &firstCalls),
	}, func(int, error) { atomic.AddInt32(&firstDone, 1) })

	if !svc.Running("sensors") {
		t.Fatal("expected sensors poll to be running")
	}

	var secondCalls int32
	second := Launch(context.Background(), svc, "sensors", p, Job[int]{
		Name:  "sensors",
		Check: pendingUntil(1000, &secondCalls),
	}, nil)

	first.Wait()
	if !first.Cancelled() {
		t.Error("expected first poll to be cancelled")
	}
	if second.Cancelled() {
		t.Error("expected second poll to keep running")
	}
	if atomic.LoadInt32(&firstDone) != 0 {
		t.Error("cancelled poll must not report completion")
	}
}

func TestService_IndependentKeys(t *testing.T) {
	svc := NewService(nil)
	p := New[int](testConfig(1000), nil)

	var a, b int32
	Launch(context.Background(), svc, "sensors", p, Job[int]{Name: "sensors", Check: pendingUntil(1000, &a)}, nil)
	Launch(context.Background(), svc, "weed-scan", p, Job[int]{Name: "weed-scan", Check: pendingUntil(1000, &b)}, nil)

	if !svc.Running("sensors") || !svc.Running("weed-scan") {
		t.Fatal("expected both polls to run")
	}

	svc.Cancel("sensors")
	if svc.Running("sensors") {
		t.Error("expected sensors poll to stop")
	}
	if !svc.Running("weed-scan") {
		t.Error("expected weed-scan poll to keep running")
	}

	svc.Stop()
	if svc.Running("weed-scan") {
		t.Error("expected Stop to cancel all polls")
	}
}

func TestService_RunningAfterCompletion(t *testing.T) {
	svc := NewService(nil)
	defer svc.Stop()

	p := New[int](testConfig(10), nil)
	var calls int32
	h := Launch(context.Background(), svc, "sensors", p, Job[int]{Name: "sensors", Check: pendingUntil(1, &calls)}, nil)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("poll did not finish")
	}
	if svc.Running("sensors") {
		t.Error("finished poll should not be running")
	}
}

func TestService_LaunchFromOnDone(t *testing.T) {
	svc := NewService(nil)
	defer svc.Stop()

	p := New[int](testConfig(10), nil)
	relaunched := make(chan *Handle, 1)

	var first, second int32
	Launch(context.Background(), svc, "sensors", p, Job[int]{
		Name:  "sensors",
		Check: pendingUntil(1, &first),
	}, func(int, error) {
		relaunched <- Launch(context.Background(), svc, "sensors", p, Job[int]{
			Name:  "sensors",
			Check: pendingUntil(2, &second),
		}, nil)
	})

	var h *Handle
	select {
	case h = <-relaunched:
	case <-time.After(time.Second):
		t.Fatal("Launch inside onDone did not return")
	}

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("relaunched poll did not finish")
	}
	if got := atomic.LoadInt32(&second); got != 2 {
		t.Errorf("expected relaunched poll to check twice, got %d", got)
	}
	if svc.Running("sensors") {
		t.Error("finished poll should not be running")
	}
}

func TestService_CancelFromProgress(t *testing.T) {
	svc := NewService(nil)
	defer svc.Stop()

	p := New[int](testConfig(1000), nil)
	var calls, progress int32
	h := Launch(context.Background(), svc, "weed-scan", p, Job[int]{
		Name:  "weed-scan",
		Check: pendingUntil(1000, &calls),
		Progress: func(int) {
			atomic.AddInt32(&progress, 1)
			svc.Cancel("weed-scan")
		},
	}, func(int, error) {
		t.Error("onDone must not run after Cancel")
	})

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("Cancel inside Progress did not stop the poll")
	}
	if got := atomic.LoadInt32(&progress); got != 1 {
		t.Errorf("expected exactly one progress callback, got %d", got)
	}
}
