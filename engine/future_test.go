package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFuture_Get(t *testing.T) {
	t.Run("successful result", func(t *testing.T) {
		fut := newFuture[string]()

		go func() {
			time.Sleep(50 * time.Millisecond)
			fut.publish(Outcome[string]{Value: "success"})
		}()

		value, err := fut.Get()
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if value != "success" {
			t.Errorf("expected value 'success', got %v", value)
		}
	})

	t.Run("error result", func(t *testing.T) {
		fut := newFuture[string]()
		expectedErr := errors.New("task failed")

		go func() {
			fut.publish(Outcome[string]{Err: expectedErr})
		}()

		value, err := fut.Get()
		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if value != "" {
			t.Errorf("expected empty value, got %v", value)
		}
	})

	t.Run("multiple Get calls return same result", func(t *testing.T) {
		fut := newFuture[int]()
		fut.publish(Outcome[int]{Value: 123})

		value1, err1 := fut.Get()
		value2, err2 := fut.Get()

		if value1 != value2 || err1 != err2 {
			t.Error("Get calls returned different results")
		}
		if value1 != 123 {
			t.Errorf("expected value 123, got %v", value1)
		}
	})
}

func TestFuture_GetContext(t *testing.T) {
	t.Run("successful result before timeout", func(t *testing.T) {
		fut := newFuture[string]()
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		go func() {
			time.Sleep(50 * time.Millisecond)
			fut.publish(Outcome[string]{Value: "success"})
		}()

		value, err := fut.GetContext(ctx)
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if value != "success" {
			t.Errorf("expected value 'success', got %v", value)
		}
	})

	t.Run("context timeout before result", func(t *testing.T) {
		fut := newFuture[string]()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		value, err := fut.GetContext(ctx)
		if err != context.DeadlineExceeded {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
		if value != "" {
			t.Errorf("expected empty value, got %v", value)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		fut := newFuture[string]()
		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err := fut.GetContext(ctx)
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("timed-out wait does not consume the result", func(t *testing.T) {
		fut := newFuture[int]()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, err := fut.GetContext(ctx); err == nil {
			t.Fatal("expected timeout error")
		}

		fut.publish(Outcome[int]{Value: 7})

		value, err := fut.Get()
		if err != nil || value != 7 {
			t.Errorf("expected (7, nil) on retry, got (%v, %v)", value, err)
		}
	})
}

func TestFuture_TryGet(t *testing.T) {
	t.Run("result not ready", func(t *testing.T) {
		fut := newFuture[string]()

		value, err, ready := fut.TryGet()
		if ready {
			t.Error("expected ready to be false")
		}
		if value != "" || err != nil {
			t.Errorf("expected zero values, got (%v, %v)", value, err)
		}
	})

	t.Run("result ready", func(t *testing.T) {
		fut := newFuture[string]()
		fut.publish(Outcome[string]{Value: "ready"})

		value, err, ready := fut.TryGet()
		if !ready {
			t.Error("expected ready to be true")
		}
		if value != "ready" || err != nil {
			t.Errorf("expected ('ready', nil), got (%v, %v)", value, err)
		}
	})
}

func TestFuture_PublishOnce(t *testing.T) {
	fut := newFuture[int]()

	fut.publish(Outcome[int]{Value: 1})
	fut.publish(Outcome[int]{Value: 2})

	value, err := fut.Get()
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if value != 1 {
		t.Errorf("first publish must win, got %v", value)
	}
}

func TestFuture_Done(t *testing.T) {
	t.Run("channel closed when result ready", func(t *testing.T) {
		fut := newFuture[string]()

		select {
		case <-fut.Done():
			t.Error("Done channel should not be closed yet")
		case <-time.After(50 * time.Millisecond):
		}

		fut.publish(Outcome[string]{Value: "done"})

		select {
		case <-fut.Done():
		case <-time.After(200 * time.Millisecond):
			t.Error("Done channel should be closed after publish")
		}
	})

	t.Run("use Done in select", func(t *testing.T) {
		fut := newFuture[string]()

		go func() {
			time.Sleep(50 * time.Millisecond)
			fut.publish(Outcome[string]{Value: "selected"})
		}()

		select {
		case <-fut.Done():
			value, err := fut.Get()
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if value != "selected" {
				t.Errorf("expected value 'selected', got %v", value)
			}
		case <-time.After(200 * time.Millisecond):
			t.Error("timeout waiting for Done")
		}
	})
}

func TestFuture_IsReady(t *testing.T) {
	fut := newFuture[string]()

	if fut.IsReady() {
		t.Error("expected IsReady to be false initially")
	}

	fut.publish(Outcome[string]{Value: "ready"})

	if !fut.IsReady() {
		t.Error("expected IsReady to be true after publish")
	}
}

func TestFuture_ConcurrentAccess(t *testing.T) {
	fut := newFuture[int]()

	go func() {
		time.Sleep(50 * time.Millisecond)
		fut.publish(Outcome[int]{Value: 999})
	}()

	done := make(chan bool, 10)
	for n := 0; n < 10; n++ {
		go func() {
			value, err := fut.Get()
			if err != nil || value != 999 {
				t.Errorf("unexpected result: value=%v, err=%v", value, err)
			}
			done <- true
		}()
	}

	for n := 0; n < 10; n++ {
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timeout waiting for concurrent Get calls")
		}
	}
}
