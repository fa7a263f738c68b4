package inference

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"
)

type stubImageClassifier struct{}

func (stubImageClassifier) ClassifyImage(context.Context, image.Image) ([]Prediction, error) {
	return nil, nil
}

func fastLoader() Loader {
	return Loader{
		Logger:        discardLogger(),
		MinRetryDelay: time.Millisecond,
		MaxRetryDelay: 5 * time.Millisecond,
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("LoadAll did not finish")
	}
}

func TestModel_LoadOnce(t *testing.T) {
	var calls atomic.Int32
	model := NewModel[ImageClassifier]("face", func(context.Context) (ImageClassifier, error) {
		calls.Add(1)
		return stubImageClassifier{}, nil
	})

	if model.Ready() {
		t.Fatal("model should not be ready before Load")
	}
	if _, err := model.Get(); !errors.Is(err, ErrModelNotReady) {
		t.Errorf("Get() error = %v, want ErrModelNotReady", err)
	}

	for range 2 {
		if err := model.Load(context.Background()); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}

	if !model.Ready() {
		t.Error("model should be ready")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
	if _, err := model.Get(); err != nil {
		t.Errorf("Get() error = %v", err)
	}
}

func TestModel_LoadRetriesAfterFailure(t *testing.T) {
	loadErr := errors.New("bad gateway")
	var calls atomic.Int32
	model := NewModel[ImageClassifier]("face", func(context.Context) (ImageClassifier, error) {
		if calls.Add(1) == 1 {
			return nil, loadErr
		}
		return stubImageClassifier{}, nil
	})

	if err := model.Load(context.Background()); !errors.Is(err, loadErr) {
		t.Fatalf("first Load() error = %v, want %v", err, loadErr)
	}
	if model.Ready() {
		t.Fatal("model should not be ready after a failed load")
	}

	if err := model.Load(context.Background()); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if !model.Ready() {
		t.Error("model should be ready after a successful retry")
	}
}

func TestLoader_LoadAll(t *testing.T) {
	var voiceCalls atomic.Int32
	face := NewModel[ImageClassifier]("face", func(context.Context) (ImageClassifier, error) {
		time.Sleep(10 * time.Millisecond)
		return stubImageClassifier{}, nil
	})
	voice := NewModel[AudioClassifier]("voice", func(context.Context) (AudioClassifier, error) {
		if voiceCalls.Add(1) < 3 {
			return nil, errors.New("upstream 502")
		}
		return nil, nil
	})

	waitDone(t, fastLoader().LoadAll(context.Background(), face, voice))

	if !face.Ready() || !voice.Ready() {
		t.Errorf("ready = face:%v voice:%v, want both", face.Ready(), voice.Ready())
	}
	if got := voiceCalls.Load(); got != 3 {
		t.Errorf("voice loader calls = %d, want 3", got)
	}
}

func TestLoader_PermanentError(t *testing.T) {
	errDenied := errors.New("unauthorized")
	var calls atomic.Int32
	model := NewModel[ImageClassifier]("face", func(context.Context) (ImageClassifier, error) {
		calls.Add(1)
		return nil, errDenied
	})

	loader := fastLoader()
	loader.Permanent = func(err error) bool { return errors.Is(err, errDenied) }
	waitDone(t, loader.LoadAll(context.Background(), model))

	if model.Ready() {
		t.Error("model should not be ready")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
}

func TestLoader_StopsWhenContextDone(t *testing.T) {
	model := NewModel[ImageClassifier]("face", func(context.Context) (ImageClassifier, error) {
		return nil, errors.New("connection refused")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	waitDone(t, fastLoader().LoadAll(ctx, model))

	if model.Ready() {
		t.Error("model should not be ready")
	}
}

func TestLoader_AttemptTimeout(t *testing.T) {
	var calls atomic.Int32
	model := NewModel[ImageClassifier]("face", func(ctx context.Context) (ImageClassifier, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return stubImageClassifier{}, nil
	})

	loader := fastLoader()
	loader.AttemptTimeout = 20 * time.Millisecond
	waitDone(t, loader.LoadAll(context.Background(), model))

	if !model.Ready() {
		t.Error("model should be ready after the hung attempt timed out")
	}
}
