// Package harness runs correlation scenarios: a CUE rule set, a list of
// input steps, and the records the rules are expected to emit.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: ssh_burst
//	description: "Three failures then a success close the context"
//	rules: ../rules            # CUE directory, relative to this file
//	quorum: 2                  # optional, defaults to engine.DefaultQuorum
//	steps:
//	  - message: {uuid: "...", name: ssh.fail, values: {host: web1}}
//	  - message: {name: ssh.ok}
//	  - tick: 30s
//	expect:
//	  - context: ssh-burst     # context name or uuid
//	    name: ssh.bruteforce   # emitted record name
//	    count: 1               # optional, exact; omitted means at least one
//
// # Deterministic Testing
//
// Steps are enqueued before the dispatcher starts, followed by quorum
// Exits, so the whole run is single-threaded and repeatable. The harness
// uses:
//   - testutil.DeterministicClock for record seq numbers
//   - testutil.SequentialIDs for messages without a uuid
//   - an in-memory SQLite store, read back in seq order as the trace
//
// Timer ticks carry their own elapsed duration, so no wall clock is read.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/ssh_burst.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
