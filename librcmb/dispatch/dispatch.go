// Package dispatch runs searches off the caller's goroutine for interactive front ends.
//
// Each Request supersedes the previous one.  A search that is still waiting out the debounce delay is dropped,
// and one already running runs to completion with its result discarded, since a search cannot be interrupted.
package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

type Opts struct {
	Debounce time.Duration // delay before a requested search starts
}

func DefaultOpts() Opts {
	return Opts{
		Debounce: 100 * time.Millisecond,
	}
}

// Request holds exactly one of a combination or a divider search.
type Request struct {
	Combination *gorcmb.CombinationRequest `json:"combination,omitempty"`
	Divider     *gorcmb.DividerRequest     `json:"divider,omitempty"`
}

type Result struct {
	JobID       uuid.UUID
	Combination *gorcmb.CombinationResult
	Divider     *gorcmb.DividerResult
}

// Job is a single requested search.
type Job struct {
	ID      uuid.UUID
	Request Request

	key    string
	done   chan struct{}
	result Result
	err    error
}

// Done is closed once the Job has a result or has been superseded.
func (job *Job) Done() <-chan struct{} {
	return job.done
}

// Wait blocks until the Job completes or ctx is done.
// A superseded Job returns gorcmb.ErrSuperseded; one dropped by Close returns gorcmb.ErrSessionClosed.
func (job *Job) Wait(ctx context.Context) (Result, error) {
	select {
	case <-job.done:
		return job.result, job.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (job *Job) finish(res Result, err error) {
	job.result = res
	job.err = err
	close(job.done)
}

// Dispatcher launches at most one pending search at a time against a gorcmb.Backend.
type Dispatcher struct {
	opts    Opts
	backend gorcmb.Backend

	mu      sync.Mutex
	latest  *Job
	timer   *time.Timer // launches latest
	running sync.WaitGroup
	closed  bool
}

// New returns a Dispatcher for the given backend, or for a native librcmb.Backend if backend is nil.
func New(backend gorcmb.Backend, opts Opts) *Dispatcher {
	if backend == nil {
		backend = librcmb.NewBackend(librcmb.DefaultSessionOpts())
	}
	return &Dispatcher{
		opts:    opts,
		backend: backend,
	}
}

// Request schedules req and returns its Job.
// If req is identical to the most recent request, that Job is returned and nothing new is scheduled.
func (d *Dispatcher) Request(req Request) (*Job, error) {
	if (req.Combination == nil) == (req.Divider == nil) {
		return nil, errors.Wrap(gorcmb.ErrParameterOutOfRange, "request must hold exactly one search")
	}
	buf, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	key := string(buf)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, gorcmb.ErrSessionClosed
	}
	if d.latest != nil && d.latest.key == key {
		return d.latest, nil
	}

	// A stopped timer means the previous job never started
	if d.timer != nil && d.timer.Stop() {
		d.latest.finish(Result{JobID: d.latest.ID}, gorcmb.ErrSuperseded)
		d.running.Done()
	}

	job := &Job{
		ID:      uuid.New(),
		Request: req,
		key:     key,
		done:    make(chan struct{}),
	}
	d.latest = job
	d.running.Add(1)
	d.timer = time.AfterFunc(d.opts.Debounce, func() {
		d.run(job)
	})
	return job, nil
}

func (d *Dispatcher) isLatest(job *Job) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest == job
}

func (d *Dispatcher) run(job *Job) {
	defer d.running.Done()

	res := Result{
		JobID: job.ID,
	}
	if !d.isLatest(job) {
		job.finish(res, gorcmb.ErrSuperseded)
		return
	}

	klog.V(2).Infof("job %v: starting", job.ID)
	if req := job.Request.Combination; req != nil {
		out := d.backend.FindCombinations(*req)
		res.Combination = &out
	} else {
		out := d.backend.FindDividers(*job.Request.Divider)
		res.Divider = &out
	}

	if !d.isLatest(job) {
		klog.V(2).Infof("job %v: superseded, result discarded", job.ID)
		job.finish(Result{JobID: job.ID}, gorcmb.ErrSuperseded)
		return
	}
	job.finish(res, nil)
}

// Close drops any search still waiting to start and waits for a running one to complete.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.timer != nil && d.timer.Stop() {
		d.latest.finish(Result{JobID: d.latest.ID}, gorcmb.ErrSessionClosed)
		d.running.Done()
	}
	d.mu.Unlock()

	d.running.Wait()
}
