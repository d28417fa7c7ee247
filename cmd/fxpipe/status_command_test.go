package main

import (
	"encoding/json"
	"testing"
)

func TestStatusShowsPreflightAndPlan(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Artifact directory")
	requireContains(t, out, "Currency registry")
	requireContains(t, out, "fetch:EUR_USD")
	requireContains(t, out, "planned")
	if env.server.Hits("USD")+env.server.Hits("SEK") != 0 {
		t.Fatal("status must not download without --check-source")
	}

	if _, _, err := runCLI(t, env, "run"); err != nil {
		t.Fatalf("run: %v", err)
	}
	out, _, err = runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status after run: %v", err)
	}
	requireContains(t, out, "all artifacts are up to date")
}

func TestStatusJSONIncludesSourceCheck(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "status", "--check-source", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var view statusView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode status json: %v\n%s", err, out)
	}
	if !view.Ready || view.Plan == nil || !view.Plan.DryRun {
		t.Fatalf("unexpected status %+v", view)
	}
	found := false
	for _, p := range view.Preflight {
		if p.Name == "ECB data API" {
			found = p.Passed
		}
	}
	if !found {
		t.Fatalf("expected a passing source check in %+v", view.Preflight)
	}
}
