package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var ignoreLogFlush = goleak.IgnoreAnyFunction("github.com/plan-systems/klog.(*loggingT).flushDaemon")

// gatedBackend blocks every search until gate is closed.
type gatedBackend struct {
	gate  chan struct{}
	calls atomic.Int32
}

func (be *gatedBackend) FindCombinations(req gorcmb.CombinationRequest) gorcmb.CombinationResult {
	be.calls.Add(1)
	<-be.gate
	return gorcmb.CombinationResult{
		Results: []*gorcmb.Combination{gorcmb.NewLeaf(req.Kind, req.Target)},
	}
}

func (be *gatedBackend) FindDividers(req gorcmb.DividerRequest) gorcmb.DividerResult {
	be.calls.Add(1)
	<-be.gate
	return gorcmb.DividerResult{}
}

func combinationRequest(target float64) Request {
	return Request{
		Combination: &gorcmb.CombinationRequest{
			Values:      []float64{100, 200},
			MaxElements: 2,
			Constraint:  gorcmb.Unconstrained,
			Target:      target,
			Filter:      gorcmb.FilterNearest,
		},
	}
}

func waitJob(t *testing.T, job *Job) (Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return job.Wait(ctx)
}

func TestRequest(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLogFlush)

	d := New(nil, Opts{Debounce: time.Millisecond})
	defer d.Close()

	job, err := d.Request(combinationRequest(300))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, job.ID)

	res, err := waitJob(t, job)
	require.NoError(t, err)
	assert.Equal(t, job.ID, res.JobID)
	require.NotNil(t, res.Combination)
	require.Len(t, res.Combination.Results, 1)
	assert.Equal(t, "100--200", res.Combination.Results[0].String())

	job, err = d.Request(Request{
		Divider: &gorcmb.DividerRequest{
			Values:      []float64{100, 200},
			MaxElements: 2,
			TotalMin:    100,
			TotalMax:    500,
			Target:      0.5,
			Filter:      gorcmb.FilterNearest,
		},
	})
	require.NoError(t, err)
	res, err = waitJob(t, job)
	require.NoError(t, err)
	require.NotNil(t, res.Divider)
	assert.Empty(t, res.Divider.Error)
	assert.NotEmpty(t, res.Divider.Results)

	_, err = d.Request(Request{})
	assert.True(t, errors.Is(err, gorcmb.ErrParameterOutOfRange))
}

func TestCoalesce(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLogFlush)

	be := &gatedBackend{gate: make(chan struct{})}
	close(be.gate)
	d := New(be, Opts{Debounce: 20 * time.Millisecond})
	defer d.Close()

	A, err := d.Request(combinationRequest(300))
	require.NoError(t, err)
	B, err := d.Request(combinationRequest(300))
	require.NoError(t, err)
	assert.Same(t, A, B)

	_, err = waitJob(t, A)
	require.NoError(t, err)

	C, err := d.Request(combinationRequest(300))
	require.NoError(t, err)
	assert.Same(t, A, C, "an identical request is not relaunched after it completes")
	assert.Equal(t, int32(1), be.calls.Load())
}

func TestSupersedePending(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLogFlush)

	be := &gatedBackend{gate: make(chan struct{})}
	close(be.gate)
	d := New(be, Opts{Debounce: 50 * time.Millisecond})
	defer d.Close()

	A, err := d.Request(combinationRequest(100))
	require.NoError(t, err)
	B, err := d.Request(combinationRequest(200))
	require.NoError(t, err)

	_, err = waitJob(t, A)
	assert.True(t, errors.Is(err, gorcmb.ErrSuperseded))

	res, err := waitJob(t, B)
	require.NoError(t, err)
	assert.Equal(t, 200.0, res.Combination.Results[0].Value)
	assert.Equal(t, int32(1), be.calls.Load())
}

func TestSupersedeRunning(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLogFlush)

	be := &gatedBackend{gate: make(chan struct{})}
	d := New(be, Opts{Debounce: time.Millisecond})
	defer d.Close()

	A, err := d.Request(combinationRequest(100))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return be.calls.Load() == 1 }, 10*time.Second, time.Millisecond)

	B, err := d.Request(combinationRequest(200))
	require.NoError(t, err)
	close(be.gate)

	res, err := waitJob(t, A)
	assert.True(t, errors.Is(err, gorcmb.ErrSuperseded))
	assert.Nil(t, res.Combination)

	res, err = waitJob(t, B)
	require.NoError(t, err)
	assert.Equal(t, 200.0, res.Combination.Results[0].Value)
}

func TestClose(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLogFlush)

	d := New(nil, Opts{Debounce: time.Hour})

	job, err := d.Request(combinationRequest(300))
	require.NoError(t, err)
	d.Close()

	select {
	case <-job.Done():
	default:
		t.Fatal("pending job not finished by Close")
	}
	_, err = job.Wait(context.Background())
	assert.True(t, errors.Is(err, gorcmb.ErrSessionClosed))

	_, err = d.Request(combinationRequest(300))
	assert.True(t, errors.Is(err, gorcmb.ErrSessionClosed))
	d.Close()
}
