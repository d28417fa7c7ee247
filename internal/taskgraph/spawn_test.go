package taskgraph_test

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"
	"time"

	"fxpipe/internal/artifact"
	"fxpipe/internal/services"
	"fxpipe/internal/taskgraph"
)

// fanOutGraph lists items in "items", spawns one task per item writing
// "<item>_checked", and joins them into "report".
func fanOutGraph(t *testing.T, store *artifact.Store, log *runLog, failItem string) *taskgraph.Graph {
	g := taskgraph.New()
	mustAdd(t, g, taskgraph.Task{
		ID:      "list",
		Inputs:  []string{"seed"},
		Outputs: []string{"items"},
		Run: func(_ context.Context, env *taskgraph.Env) error {
			log.record("list")
			seed, err := env.Store.Read("seed")
			if err != nil {
				return err
			}
			return env.Out.Write("items", seed)
		},
	})
	if err := g.AddSpawn(taskgraph.Spawn{
		ID:    "check",
		Stage: "check",
		Deps:  []string{"list"},
		Expand: func(context.Context) ([]taskgraph.Task, error) {
			items, err := store.Read("items")
			if err != nil {
				return nil, err
			}
			var tasks []taskgraph.Task
			for _, row := range items.Rows {
				item := row[0]
				id := "check:" + item
				tasks = append(tasks, taskgraph.Task{
					ID:      id,
					Inputs:  []string{"items"},
					Outputs: []string{item + "_checked"},
					Run: func(_ context.Context, env *taskgraph.Env) error {
						log.record(id)
						if item == failItem {
							return services.Wrap(services.ErrMalformedRecord, "check", id, "bad item", nil)
						}
						out := artifact.NewTable("value")
						out.Append(item)
						return env.Out.Write(item+"_checked", out)
					},
				})
			}
			return tasks, nil
		},
	}); err != nil {
		t.Fatalf("AddSpawn: %v", err)
	}
	mustAdd(t, g, taskgraph.Task{
		ID:      "report",
		Deps:    []string{"check"},
		Inputs:  []string{"items"},
		Outputs: []string{"report"},
		Run: func(_ context.Context, env *taskgraph.Env) error {
			log.record("report")
			out := artifact.NewTable("input")
			for _, key := range env.Inputs {
				out.Append(key)
			}
			return env.Out.Write("report", out)
		},
	})
	return g
}

func seedItems(t *testing.T, store *artifact.Store, items ...string) {
	t.Helper()
	seed := artifact.NewTable("item")
	for _, item := range items {
		seed.Append(item)
	}
	if err := store.Write("seed", seed); err != nil {
		t.Fatalf("write seed: %v", err)
	}
}

func TestSpawnExpandsFromArtifactContentAndJoins(t *testing.T) {
	store := newStore(t)
	seedItems(t, store, "EUR_USD", "EUR_SEK")
	log := newRunLog()
	g := fanOutGraph(t, store, log, "")

	result := run(t, g, store, taskgraph.Options{Workers: 4})
	if err := result.Err(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if log.runs("check:EUR_USD") != 1 || log.runs("check:EUR_SEK") != 1 {
		t.Fatalf("expected one run per spawned instance, got %v", log.order)
	}
	reportIdx := slices.Index(log.order, "report")
	for _, id := range []string{"check:EUR_USD", "check:EUR_SEK"} {
		if slices.Index(log.order, id) > reportIdx {
			t.Fatalf("join ran before %s: %v", id, log.order)
		}
	}

	ids := make([]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		ids = append(ids, o.ID)
	}
	want := []string{"list", "check", "check:EUR_USD", "check:EUR_SEK", "report"}
	if !slices.Equal(ids, want) {
		t.Fatalf("outcome order = %v, want %v", ids, want)
	}
	inst, _ := result.Outcome("check:EUR_SEK")
	if inst.Kind != taskgraph.KindInstance || inst.Spawn != "check" || inst.Stage != "check" {
		t.Fatalf("unexpected instance outcome %+v", inst)
	}

	report, err := store.Read("report")
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var inputs []string
	for _, row := range report.Rows {
		inputs = append(inputs, row[0])
	}
	if !slices.Equal(inputs, []string{"items", "EUR_USD_checked", "EUR_SEK_checked"}) {
		t.Fatalf("join inputs = %v", inputs)
	}

	log.reset()
	again := run(t, g, store, taskgraph.Options{Workers: 4})
	if err := again.Err(); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(log.order) != 0 {
		t.Fatalf("expected fully fresh rerun, ran %v", log.order)
	}
	if got := stateOf(t, again, "check"); got != taskgraph.StateSkipped {
		t.Fatalf("spawn state = %s, want skipped", got)
	}
}

func TestSpawnWithFailedInstanceBlocksJoin(t *testing.T) {
	store := newStore(t)
	seedItems(t, store, "EUR_USD", "EUR_SEK")
	log := newRunLog()
	g := fanOutGraph(t, store, log, "EUR_SEK")

	result := run(t, g, store, taskgraph.Options{Workers: 2})
	if got := stateOf(t, result, "check:EUR_USD"); got != taskgraph.StateRan {
		t.Fatalf("healthy instance state = %s, want ran", got)
	}
	spawn, _ := result.Outcome("check")
	var spawnErr *taskgraph.SpawnError
	if spawn.State != taskgraph.StateFailed || !errors.As(spawn.Err, &spawnErr) {
		t.Fatalf("spawn outcome = %+v", spawn)
	}
	if !slices.Equal(spawnErr.Failed, []string{"check:EUR_SEK"}) {
		t.Fatalf("spawn failed instances = %v", spawnErr.Failed)
	}

	join, _ := result.Outcome("report")
	if join.State != taskgraph.StateBlocked {
		t.Fatalf("join state = %s, want blocked", join.State)
	}
	if join.Reason != spawnErr.Error() {
		t.Fatalf("join reason = %q, want it to name the failed instance", join.Reason)
	}
	if log.runs("report") != 0 || store.Exists("report") {
		t.Fatal("join must not aggregate a partial spawn")
	}

	runErr, ok := taskgraph.AsRunError(result.Err())
	if !ok {
		t.Fatalf("expected RunError, got %v", result.Err())
	}
	if !slices.Equal(runErr.Failed, []string{"check", "check:EUR_SEK"}) || !slices.Equal(runErr.Blocked, []string{"report"}) {
		t.Fatalf("unexpected run error %+v", runErr)
	}
	if !errors.Is(result.Err(), services.ErrMalformedRecord) {
		t.Fatalf("expected malformed record marker in %v", result.Err())
	}
}

func TestSpawnWithNoInstancesCompletes(t *testing.T) {
	store := newStore(t)
	seedItems(t, store)
	log := newRunLog()
	g := fanOutGraph(t, store, log, "")

	result := run(t, g, store, taskgraph.Options{})
	if err := result.Err(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := stateOf(t, result, "check"); got != taskgraph.StateRan {
		t.Fatalf("spawn state = %s, want ran because list ran", got)
	}
	if log.runs("report") != 1 {
		t.Fatalf("expected join to run once, got %v", log.order)
	}
}

func TestChangedSpawnSetForcesJoin(t *testing.T) {
	store := newStore(t)
	seedItems(t, store, "EUR_USD", "EUR_SEK")
	log := newRunLog()
	g := fanOutGraph(t, store, log, "")
	run(t, g, store, taskgraph.Options{})

	seedItems(t, store, "EUR_USD")
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(store.Path("seed"), later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	log.reset()
	result := run(t, g, store, taskgraph.Options{})
	if err := result.Err(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if log.runs("report") != 1 {
		t.Fatalf("expected join to rerun after the spawn set shrank, ran %v", log.order)
	}
	if _, ok := result.Outcome("check:EUR_SEK"); ok {
		t.Fatal("removed item must not be re-planned")
	}
}

func TestSpawnRejectsInstanceDependingOnJoin(t *testing.T) {
	store := newStore(t)
	log := newRunLog()
	g := taskgraph.New()
	mustAdd(t, g, copyTask(log, "root", nil, nil, "root_out"))
	if err := g.AddSpawn(taskgraph.Spawn{
		ID:   "fan",
		Deps: []string{"root"},
		Expand: func(context.Context) ([]taskgraph.Task, error) {
			return []taskgraph.Task{copyTask(log, "fan:x", []string{"join"}, nil, "x_out")}, nil
		},
	}); err != nil {
		t.Fatalf("AddSpawn: %v", err)
	}
	mustAdd(t, g, copyTask(log, "join", []string{"fan"}, nil, "join_out"))

	result := run(t, g, store, taskgraph.Options{})
	spawn, _ := result.Outcome("fan")
	if spawn.State != taskgraph.StateFailed || !errors.Is(spawn.Err, taskgraph.ErrInvalidGraph) {
		t.Fatalf("spawn outcome = %+v", spawn)
	}
	if got := stateOf(t, result, "join"); got != taskgraph.StateBlocked {
		t.Fatalf("join state = %s, want blocked", got)
	}
}

func TestDryRunPlansWithoutWriting(t *testing.T) {
	store := newStore(t)
	seedItems(t, store, "EUR_USD")
	log := newRunLog()
	g := fanOutGraph(t, store, log, "")

	plan, err := taskgraph.NewExecutor(g, store, taskgraph.Options{DryRun: true}).Run(context.Background())
	if err != nil {
		t.Fatalf("dry run returned error: %v", err)
	}
	if len(log.order) != 0 || store.Exists("items") {
		t.Fatalf("dry run must not execute tasks, ran %v", log.order)
	}
	if got := stateOf(t, plan, "list"); got != taskgraph.StatePlanned {
		t.Fatalf("list state = %s, want planned", got)
	}
	if got := stateOf(t, plan, "check"); got != taskgraph.StateDeferred {
		t.Fatalf("spawn state = %s, want deferred", got)
	}
	if got := stateOf(t, plan, "report"); got != taskgraph.StatePlanned {
		t.Fatalf("join state = %s, want planned", got)
	}
	if plan.Err() != nil {
		t.Fatalf("plan should be clean, got %v", plan.Err())
	}

	run(t, g, store, taskgraph.Options{})
	fresh, err := taskgraph.NewExecutor(g, store, taskgraph.Options{DryRun: true}).Run(context.Background())
	if err != nil {
		t.Fatalf("dry run returned error: %v", err)
	}
	for _, o := range fresh.Outcomes {
		if o.State != taskgraph.StateSkipped {
			t.Fatalf("%s state = %s after a full run, want skipped", o.ID, o.State)
		}
	}
	if _, ok := fresh.Outcome("check:EUR_USD"); !ok {
		t.Fatal("dry run over fresh inputs should list spawned instances")
	}
}
