package taskgraph

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fxpipe/internal/artifact"
	"fxpipe/internal/logging"
	"fxpipe/internal/services"
	"fxpipe/internal/staleness"
)

// Options configures an Executor.
type Options struct {
	// Workers bounds the number of tasks in flight. Values below one mean one.
	Workers int
	// DryRun evaluates staleness and expands spawn points without running
	// any task.
	DryRun bool
	// Force runs every task regardless of staleness.
	Force  bool
	Logger *slog.Logger
	Clock  func() time.Time
}

// Executor runs one invocation of a graph against a store.
type Executor struct {
	graph  *Graph
	store  *artifact.Store
	oracle *staleness.Oracle
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	nodes   map[string]*node
	order   []string
	outputs map[string]string
	logCtx  context.Context
}

type node struct {
	id        string
	kind      Kind
	task      Task
	spawn     Spawn
	parent    string
	deps      []string
	state     State
	reason    string
	err       error
	started   time.Time
	duration  time.Duration
	expanded  bool
	instances []string
}

type completion struct {
	id        string
	instances []Task
	err       error
}

// NewExecutor prepares an executor. The graph is validated on Run.
func NewExecutor(g *Graph, store *artifact.Store, opts Options) *Executor {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Executor{
		graph:  g,
		store:  store,
		oracle: staleness.New(store, staleness.WithClock(now)),
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "executor"),
		now:    now,
	}
}

// Run executes the graph. The returned error is non-nil only when the graph
// itself is invalid; task failures are reported through Result.Err.
func (e *Executor) Run(ctx context.Context) (*Result, error) {
	if e.graph == nil || e.store == nil {
		return nil, invalidf("executor needs a graph and a store")
	}
	if err := e.graph.Validate(); err != nil {
		return nil, err
	}
	e.reset()
	e.logCtx = context.WithoutCancel(ctx)

	results := make(chan completion, e.opts.Workers)
	var group errgroup.Group
	group.SetLimit(e.opts.Workers)

	inFlight := 0
	for {
		inFlight += e.dispatch(ctx, &group, results, e.opts.Workers-inFlight)
		if inFlight == 0 {
			break
		}
		c := <-results
		inFlight--
		e.complete(c)
	}
	_ = group.Wait()

	cancelled := ctx.Err() != nil
	for _, id := range e.order {
		n := e.nodes[id]
		if IsTerminal(n.state) {
			continue
		}
		n.state = StateNotStarted
		if cancelled {
			n.reason = "run cancelled before the task started"
		} else {
			n.reason = "dependencies never completed"
		}
	}

	result := &Result{DryRun: e.opts.DryRun, Cancelled: cancelled, cause: context.Cause(ctx)}
	for _, id := range e.order {
		result.Outcomes = append(result.Outcomes, e.nodes[id].outcome())
	}
	return result, nil
}

func (e *Executor) reset() {
	e.nodes = make(map[string]*node, len(e.graph.order))
	e.order = e.graph.IDs()
	e.outputs = e.graph.Outputs()
	for _, id := range e.order {
		if t, ok := e.graph.tasks[id]; ok {
			e.nodes[id] = &node{id: id, kind: KindTask, task: t, deps: t.Deps, state: StatePending}
			continue
		}
		s := e.graph.spawns[id]
		e.nodes[id] = &node{id: id, kind: KindSpawn, spawn: s, deps: s.Deps, state: StatePending}
	}
}

// dispatch settles every node whose fate is decidable without running work,
// and starts up to capacity tasks or expansions. It returns the number started.
func (e *Executor) dispatch(ctx context.Context, group *errgroup.Group, results chan<- completion, capacity int) int {
	started := 0
	for progressed := true; progressed; {
		progressed = false
		for _, id := range slices.Clone(e.order) {
			n := e.nodes[id]
			if n.kind == KindSpawn && n.state == StateRunning && n.expanded {
				if e.finishSpawn(n) {
					progressed = true
				}
				continue
			}
			if n.state != StatePending {
				continue
			}
			ready, cause := e.readiness(n)
			if !ready {
				continue
			}
			if cause != "" {
				e.block(ctx, n, cause)
				progressed = true
				continue
			}
			if ctx.Err() != nil {
				continue
			}

			if n.kind == KindSpawn {
				if e.opts.DryRun {
					e.planSpawn(ctx, n)
					progressed = true
					continue
				}
				if started >= capacity {
					continue
				}
				e.startSpawn(ctx, group, results, n)
				started++
				continue
			}

			run, inputs, reason := e.evaluate(n)
			if !run {
				n.state = StateSkipped
				n.reason = reason
				e.logSkipped(ctx, n)
				progressed = true
				continue
			}
			if e.opts.DryRun {
				n.state = StatePlanned
				n.reason = reason
				progressed = true
				continue
			}
			if started >= capacity {
				continue
			}
			n.reason = reason
			e.startTask(ctx, group, results, n, inputs)
			started++
		}
	}
	return started
}

// readiness reports whether every dependency of n is terminal. When one of
// them did not succeed, cause explains why n cannot run.
func (e *Executor) readiness(n *node) (bool, string) {
	for _, dep := range n.deps {
		if !IsTerminal(e.nodes[dep].state) {
			return false, ""
		}
	}
	for _, dep := range n.deps {
		d := e.nodes[dep]
		if IsSuccessful(d.state) {
			continue
		}
		if d.kind == KindSpawn && d.err != nil {
			return true, d.err.Error()
		}
		return true, fmt.Sprintf("dependency %s %s", dep, d.state)
	}
	return true, ""
}

// evaluate decides whether a task has to run and which inputs it sees.
func (e *Executor) evaluate(n *node) (bool, []string, string) {
	inputs := e.effectiveInputs(n)
	if e.opts.Force {
		return true, inputs, "forced"
	}
	for _, dep := range n.deps {
		if producedOutput(e.nodes[dep].state) {
			verb := "ran"
			if e.opts.DryRun {
				verb = "will run"
			}
			return true, inputs, fmt.Sprintf("dependency %s %s", dep, verb)
		}
	}
	decision := e.oracle.Check(staleness.Subject{Inputs: inputs, Outputs: n.task.Outputs, MaxAge: n.task.MaxAge})
	if decision.Stale || n.task.Verify == nil {
		return decision.Stale, inputs, decision.String()
	}
	reason, err := n.task.Verify(e.store, inputs)
	if err != nil {
		return true, inputs, "verify outputs: " + err.Error()
	}
	if reason != "" {
		return true, inputs, reason
	}
	return false, inputs, decision.String()
}

func (e *Executor) effectiveInputs(n *node) []string {
	inputs := slices.Clone(n.task.Inputs)
	for _, dep := range n.deps {
		d := e.nodes[dep]
		if d.kind != KindSpawn {
			continue
		}
		for _, inst := range d.instances {
			for _, key := range e.nodes[inst].task.Outputs {
				if !slices.Contains(inputs, key) {
					inputs = append(inputs, key)
				}
			}
		}
	}
	return inputs
}

func (e *Executor) block(ctx context.Context, n *node, cause string) {
	n.state = StateBlocked
	n.reason = cause
	n.err = services.Wrap(services.ErrBlocked, n.stage(), n.id, cause, nil)
	logging.WarnWithContext(e.nodeLogger(ctx, n), "task blocked", "task_blocked",
		logging.String("cause", cause),
		logging.String(logging.FieldErrorHint, "fix the failing upstream task and rerun"),
	)
}

func (e *Executor) startTask(ctx context.Context, group *errgroup.Group, results chan<- completion, n *node, inputs []string) {
	n.state = StateRunning
	n.started = e.now()
	task := n.task
	logger := e.nodeLogger(ctx, n)
	logger.Info("task started",
		logging.String(logging.FieldEventType, "task_start"),
		logging.String("reason", n.reason),
	)
	taskCtx := services.WithStage(services.WithTask(ctx, task.ID), task.Stage)
	group.Go(func() error {
		err := e.execute(taskCtx, task, inputs, logger)
		results <- completion{id: task.ID, err: err}
		return nil
	})
}

func (e *Executor) execute(ctx context.Context, task Task, inputs []string, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.ID, r)
		}
	}()
	out, err := e.store.Stage(task.Outputs...)
	if err != nil {
		return err
	}
	defer out.Discard()

	env := &Env{TaskID: task.ID, Inputs: inputs, Store: e.store, Out: out, Logger: logger}
	if err := task.Run(ctx, env); err != nil {
		return err
	}
	if missing := out.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrOutputMissing, strings.Join(missing, ", "))
	}
	return out.Commit()
}

func (e *Executor) startSpawn(ctx context.Context, group *errgroup.Group, results chan<- completion, n *node) {
	n.state = StateRunning
	n.started = e.now()
	spawn := n.spawn
	expandCtx := services.WithStage(services.WithTask(ctx, spawn.ID), spawn.Stage)
	group.Go(func() error {
		instances, err := expand(expandCtx, spawn)
		results <- completion{id: spawn.ID, instances: instances, err: err}
		return nil
	})
}

func expand(ctx context.Context, spawn Spawn) (instances []Task, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("spawn %s panicked: %v", spawn.ID, r)
		}
	}()
	return spawn.Expand(ctx)
}

// planSpawn expands a spawn point during a dry run. When one of its
// dependencies would be rebuilt, the instances cannot be known yet.
func (e *Executor) planSpawn(ctx context.Context, n *node) {
	n.started = e.now()
	for _, dep := range n.deps {
		if producedOutput(e.nodes[dep].state) {
			n.state = StateDeferred
			n.reason = fmt.Sprintf("instances depend on %s, which will run", dep)
			return
		}
	}
	n.state = StateRunning
	instances, err := expand(services.WithTask(ctx, n.id), n.spawn)
	e.complete(completion{id: n.id, instances: instances, err: err})
}

func (e *Executor) complete(c completion) {
	n := e.nodes[c.id]
	n.duration = e.now().Sub(n.started)
	ctx := e.logCtx

	if n.kind == KindSpawn {
		if c.err == nil {
			c.err = e.addInstances(n, c.instances)
		}
		if c.err != nil {
			n.state = StateFailed
			n.err = c.err
			n.reason = "expansion failed: " + c.err.Error()
			logging.ErrorWithContext(e.nodeLogger(ctx, n), "spawn expansion failed", "task_failure",
				logging.Error(c.err),
				logging.ErrorKind(c.err),
			)
			return
		}
		n.expanded = true
		e.nodeLogger(ctx, n).Info("spawn expanded",
			logging.String(logging.FieldEventType, "spawn_expanded"),
			logging.Int("instances", len(n.instances)),
		)
		return
	}

	if c.err != nil {
		n.state = StateFailed
		n.err = c.err
		n.reason = c.err.Error()
		logging.ErrorWithContext(e.nodeLogger(ctx, n), "task failed", "task_failure",
			logging.Error(c.err),
			logging.ErrorKind(c.err),
			logging.Duration("duration", n.duration),
		)
		return
	}
	n.state = StateRan
	e.nodeLogger(ctx, n).Info("task completed",
		logging.String(logging.FieldEventType, "task_complete"),
		logging.Strings("outputs", n.task.Outputs),
		logging.Duration("duration", n.duration),
	)
}

// addInstances registers expanded tasks right after their spawn point. An
// instance may only depend on nodes that do not themselves wait on the spawn.
func (e *Executor) addInstances(spawn *node, tasks []Task) error {
	downstream := e.graph.Downstream(spawn.id)
	seen := make(map[string]struct{}, len(tasks))
	claimed := make(map[string]string)
	for _, t := range tasks {
		if strings.TrimSpace(t.ID) == "" {
			return invalidf("spawn %s produced an instance without id", spawn.id)
		}
		if _, dup := e.nodes[t.ID]; dup {
			return invalidf("spawn %s produced duplicate id %s", spawn.id, t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return invalidf("spawn %s produced duplicate id %s", spawn.id, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Run == nil {
			return invalidf("instance %s has no compute function", t.ID)
		}
		for _, key := range t.Outputs {
			if err := artifact.ValidateKey(key); err != nil {
				return fmt.Errorf("instance %s: %w", t.ID, err)
			}
			if owner, dup := e.outputs[key]; dup {
				return invalidf("output %s of %s already declared by %s", key, t.ID, owner)
			}
			if owner, dup := claimed[key]; dup {
				return invalidf("output %s declared by both %s and %s", key, owner, t.ID)
			}
			claimed[key] = t.ID
		}
		for _, dep := range t.Deps {
			d, ok := e.nodes[dep]
			if !ok || d.kind == KindInstance {
				return invalidf("instance %s depends on unknown task %s", t.ID, dep)
			}
			if _, loops := downstream[dep]; loops || dep == spawn.id {
				return invalidf("instance %s cannot depend on %s, which waits for spawn %s", t.ID, dep, spawn.id)
			}
		}
	}

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		t.Inputs = slices.Clone(t.Inputs)
		t.Outputs = slices.Clone(t.Outputs)
		t.Deps = slices.Clone(t.Deps)
		if t.Stage == "" {
			t.Stage = spawn.spawn.Stage
		}
		e.nodes[t.ID] = &node{id: t.ID, kind: KindInstance, task: t, parent: spawn.id, deps: t.Deps, state: StatePending}
		for _, key := range t.Outputs {
			e.outputs[key] = t.ID
		}
		ids = append(ids, t.ID)
	}
	spawn.instances = ids

	pos := slices.Index(e.order, spawn.id)
	e.order = slices.Insert(e.order, pos+1, ids...)
	return nil
}

// finishSpawn settles a spawn point once all its instances are terminal.
func (e *Executor) finishSpawn(n *node) bool {
	var failed, blocked []string
	changed := false
	for _, id := range n.instances {
		inst := e.nodes[id]
		switch {
		case !IsTerminal(inst.state):
			return false
		case inst.state == StateFailed:
			failed = append(failed, id)
		case inst.state == StateBlocked:
			blocked = append(blocked, id)
		case producedOutput(inst.state):
			changed = true
		}
	}
	for _, dep := range n.deps {
		if producedOutput(e.nodes[dep].state) {
			changed = true
		}
	}
	n.duration = e.now().Sub(n.started)

	switch {
	case len(failed) > 0 || len(blocked) > 0:
		n.state = StateFailed
		n.err = &SpawnError{Spawn: n.id, Failed: failed, Blocked: blocked}
		n.reason = n.err.Error()
	case changed && e.opts.DryRun:
		n.state = StatePlanned
		n.reason = "instances will run"
	case changed:
		n.state = StateRan
		n.reason = "instances ran"
	default:
		n.state = StateSkipped
		n.reason = "all instances fresh"
	}
	return true
}

func (e *Executor) logSkipped(ctx context.Context, n *node) {
	e.nodeLogger(ctx, n).Debug("task fresh",
		logging.String(logging.FieldEventType, "task_skipped"),
		logging.String("reason", n.reason),
	)
}

func (e *Executor) nodeLogger(ctx context.Context, n *node) *slog.Logger {
	ctx = services.WithStage(services.WithTask(ctx, n.id), n.stage())
	return logging.WithContext(ctx, e.logger)
}

func (n *node) stage() string {
	if n.kind == KindSpawn {
		return n.spawn.Stage
	}
	return n.task.Stage
}

func (n *node) outcome() Outcome {
	o := Outcome{
		ID:       n.id,
		Kind:     n.kind,
		Stage:    n.stage(),
		Spawn:    n.parent,
		State:    n.state,
		Reason:   n.reason,
		Err:      n.err,
		Duration: n.duration,
	}
	if n.kind != KindSpawn {
		o.Outputs = slices.Clone(n.task.Outputs)
	}
	if o.Err != nil && o.Reason == "" {
		o.Reason = o.Err.Error()
	}
	return o
}
