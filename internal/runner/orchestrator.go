// Package runner submits scope-and-execute runs for one repository, tracks
// which issues are in flight, and keeps the outcome of the most recent run
// for display.
package runner

//go:generate moq -stub -out ../testutil/remote_mock.go -pkg testutil . Remote

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/newhook/issuerun/internal/api"
	"github.com/newhook/issuerun/internal/logging"
)

// ErrEmptyTarget is returned when a subset submission names no issues.
var ErrEmptyTarget = errors.New("no issues selected")

// Remote performs the batch call. *api.Client implements it.
type Remote interface {
	ScopeAndExecuteBatch(ctx context.Context, repo string, req api.BatchRequest) (*api.BatchRunResult, error)
}

// Persister stores the outcome of each run. *resultcache.Cache implements it.
type Persister interface {
	Persist(ctx context.Context, repo, summary string, result *api.BatchRunResult) error
}

// Outcome is what one submission produced.
type Outcome struct {
	SubmissionID string
	Target       Target
	Summary      string
	Result       *api.BatchRunResult
	// Err is the remote failure that Result was synthesized from, if any.
	Err error
	// PersistErr is set when the outcome could not be cached. The run
	// itself still counts as settled.
	PersistErr error
}

// Failed reports whether the remote call itself failed.
func (o *Outcome) Failed() bool {
	return o.Err != nil
}

// Orchestrator runs submissions against one repository.
//
// Several submissions may be in flight at once. Each marks the issues it
// targets (or the batch flag for an all-issues run) and clears exactly those
// marks when its call settles. A subset run also holds the group flag for
// its whole duration. The displayed slot holds whichever outcome settled
// last, and the cache is written in the same order.
type Orchestrator struct {
	remote Remote
	cache  Persister
	repo   string

	mu         sync.Mutex
	running    map[int]int
	batchBusy  int
	subsetBusy int
	summary    string
	result     *api.BatchRunResult
	shownID    string
	settled    uint64
	observers  []func()

	// persistMu orders cache writes; persisted is the settle sequence of
	// the last outcome written.
	persistMu sync.Mutex
	persisted uint64

	newID func() string
}

// New creates an Orchestrator for repo. cache may be nil to skip persistence.
func New(remote Remote, cache Persister, repo string) *Orchestrator {
	return &Orchestrator{
		remote:  remote,
		cache:   cache,
		repo:    repo,
		running: make(map[int]int),
		newID:   uuid.NewString,
	}
}

// Repo returns the repository context submissions run against.
func (o *Orchestrator) Repo() string {
	return o.repo
}

// OnChange registers fn to be called after every marker or display change.
// fn runs on the submitting goroutine and must not block.
func (o *Orchestrator) OnChange(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// Submit runs target and blocks until the remote call settles. Remote
// failures do not produce an error: they are folded into the Outcome as
// failed results. An error is returned only when nothing was submitted.
func (o *Orchestrator) Submit(ctx context.Context, target Target) (*Outcome, error) {
	repo, err := api.ValidateRepo(o.repo)
	if err != nil {
		return nil, err
	}
	if target.Kind != KindAll && len(target.IDs) == 0 {
		return nil, ErrEmptyTarget
	}
	if target.Kind == KindSingle && len(target.IDs) != 1 {
		target = Subset(target.IDs...)
	}

	out := &Outcome{SubmissionID: o.newID(), Target: target}
	log := logging.With("submission", out.SubmissionID, "repo", repo, "target", target.String())

	o.begin(target)
	log.Info("submitting run")

	result, err := o.remote.ScopeAndExecuteBatch(ctx, repo, target.Request())
	if err == nil && result == nil {
		err = &api.ParseError{Message: "empty response"}
	}
	if err != nil {
		out.Err = err
		out.Summary = failureSummary(target, err.Error())
		out.Result = synthesize(target, err.Error())
		log.Warn("run failed", "error", err)
	} else {
		if result.Results == nil {
			result.Results = []api.ExecutionResult{}
		}
		out.Summary = successSummary(target, result)
		out.Result = result
		log.Info("run settled", "succeeded", result.Succeeded, "failed", result.Failed)
	}

	seq := o.settle(out)

	if o.cache != nil {
		// A settled run is cached even when the caller has gone away.
		o.persist(context.WithoutCancel(ctx), repo, out, seq, log)
	}
	return out, nil
}

// persist writes out unless an outcome that settled later was written first.
func (o *Orchestrator) persist(ctx context.Context, repo string, out *Outcome, seq uint64, log *slog.Logger) {
	o.persistMu.Lock()
	defer o.persistMu.Unlock()

	if seq < o.persisted {
		log.Debug("skipping persist of superseded outcome")
		return
	}
	o.persisted = seq
	if err := o.cache.Persist(ctx, repo, out.Summary, out.Result); err != nil {
		out.PersistErr = err
		log.Error("failed to persist run outcome", "error", err)
	}
}

// begin sets the busy markers for target and clears the displayed slot.
func (o *Orchestrator) begin(target Target) {
	o.mu.Lock()
	switch target.Kind {
	case KindAll:
		o.batchBusy++
	case KindSubset:
		o.subsetBusy++
	}
	for _, id := range target.IDs {
		o.running[id]++
	}
	o.summary = ""
	o.result = nil
	o.shownID = ""
	observers := o.observers
	o.mu.Unlock()

	notify(observers)
}

// settle clears the markers begin set and shows out. It returns the
// position of out in settle order.
func (o *Orchestrator) settle(out *Outcome) uint64 {
	o.mu.Lock()
	switch out.Target.Kind {
	case KindAll:
		o.batchBusy--
	case KindSubset:
		o.subsetBusy--
	}
	for _, id := range out.Target.IDs {
		if o.running[id] <= 1 {
			delete(o.running, id)
		} else {
			o.running[id]--
		}
	}
	o.summary = out.Summary
	o.result = out.Result
	o.shownID = out.SubmissionID
	o.settled++
	seq := o.settled
	observers := o.observers
	o.mu.Unlock()

	notify(observers)
	return seq
}

func notify(observers []func()) {
	for _, fn := range observers {
		fn()
	}
}

// Running reports whether a submission targeting id is in flight.
func (o *Orchestrator) Running(id int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running[id] > 0
}

// RunningIDs returns the ids with a submission in flight, sorted.
func (o *Orchestrator) RunningIDs() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]int, 0, len(o.running))
	for id := range o.running {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// BatchBusy reports whether an all-issues run is in flight.
func (o *Orchestrator) BatchBusy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.batchBusy > 0
}

// GroupBusy reports whether a subset or all-issues run is in flight.
func (o *Orchestrator) GroupBusy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.batchBusy > 0 || o.subsetBusy > 0
}

// Display returns the currently shown summary and result. Both are empty
// while a run is in flight and nothing has settled since.
func (o *Orchestrator) Display() (string, *api.BatchRunResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.summary, o.result
}

// DisplayedSubmission returns the submission id whose outcome is shown, or
// "" when the slot is empty or was restored from cache.
func (o *Orchestrator) DisplayedSubmission() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shownID
}

// RestoreDisplay fills the display slot from a cached outcome. It does
// nothing when the slot already holds something or a run is in flight, so
// a live outcome is never replaced by a cached one.
func (o *Orchestrator) RestoreDisplay(summary string, result *api.BatchRunResult) bool {
	o.mu.Lock()
	if o.summary != "" || o.result != nil || o.batchBusy > 0 || len(o.running) > 0 {
		o.mu.Unlock()
		return false
	}
	o.summary = summary
	o.result = result
	observers := o.observers
	o.mu.Unlock()

	notify(observers)
	return true
}
