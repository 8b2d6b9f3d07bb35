package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdash/internal/log"
)

type fakeService struct {
	listenErr error
	closed    chan struct{}
	shutdowns atomic.Int32
	sweeps    atomic.Int32
}

func newFakeService(listenErr error) *fakeService {
	return &fakeService{listenErr: listenErr, closed: make(chan struct{})}
}

func (f *fakeService) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.closed
	return http.ErrServerClosed
}

func (f *fakeService) Shutdown(context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.closed)
	}
	return nil
}

func (f *fakeService) RunBackground(ctx context.Context) error {
	f.sweeps.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func discardLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	svc := newFakeService(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, svc, time.Second, discardLogger()) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int32(1), svc.shutdowns.Load())
	assert.Equal(t, int32(1), svc.sweeps.Load())
}

func TestRun_ListenError(t *testing.T) {
	bind := errors.New("address already in use")
	svc := newFakeService(bind)

	err := Run(context.Background(), svc, time.Second, discardLogger())

	assert.ErrorIs(t, err, bind)
	assert.Equal(t, int32(1), svc.shutdowns.Load())
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)

	t.Setenv("PORT", "http")
	_, err = LoadAndValidateConfig()
	assert.ErrorContains(t, err, "invalid port")
}
