package sim

import (
	"reflect"
	"testing"
)

func testSchema() Schema {
	return Schema{
		Fields: []string{"power", "wealth"},
		Bounds: map[string]Bounds{
			"power":  {Min: 0, Max: 100},
			"wealth": {Min: 0, Max: 100},
		},
	}
}

func testTable() EffectTable {
	return NewEffectTable([]EffectSpec{
		{
			Kind:        "attack",
			SelfDeltas:  map[string]float64{"power": -5},
			OtherDeltas: map[string]float64{"power": -10},
			Tags:        []string{"aggressive"},
		},
		{
			Kind:       "mobilize",
			SelfDeltas: map[string]float64{"power": 30, "wealth": -80},
			Tags:       []string{"aggressive"},
		},
		{
			Kind:        "trade",
			SelfDeltas:  map[string]float64{"wealth": 30},
			OtherDeltas: map[string]float64{"wealth": 2},
			Tags:        []string{"peaceful"},
		},
	})
}

func testStates() Snapshot {
	return Snapshot{
		"A": {Name: "A", Static: map[string]string{}, Dynamic: map[string]float64{"power": 50, "wealth": 50}},
		"B": {Name: "B", Static: map[string]string{}, Dynamic: map[string]float64{"power": 50, "wealth": 50}},
	}
}

func TestResolveAppliesActorAndTargetDeltas(t *testing.T) {
	r := Resolver{Table: testTable(), Schema: testSchema(), Clamp: true}

	next, applied, dropped := r.Resolve(testStates(), []Action{
		{Actor: "A", Target: "B", Kind: "attack"},
	})

	if len(applied) != 1 || len(dropped) != 0 {
		t.Fatalf("applied=%d dropped=%d, want 1/0", len(applied), len(dropped))
	}
	if got := next["A"].Dynamic["power"]; got != 45 {
		t.Errorf("A.power = %v, want 45", got)
	}
	if got := next["B"].Dynamic["power"]; got != 40 {
		t.Errorf("B.power = %v, want 40", got)
	}
}

func TestResolveDeterminism(t *testing.T) {
	r := Resolver{Table: testTable(), Schema: testSchema(), Clamp: true}
	actions := []Action{
		{Actor: "A", Target: "B", Kind: "attack"},
		{Actor: "B", Target: "A", Kind: "trade"},
		{Actor: "A", Target: TargetWorld, Kind: "mobilize"},
	}

	first, _, _ := r.Resolve(testStates(), actions)
	second, _, _ := r.Resolve(testStates(), actions)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same inputs produced different snapshots:\n%v\n%v", first, second)
	}
}

func TestResolveAccumulatesBeforeClamping(t *testing.T) {
	// wealth 50, deltas -80 then +30: the sum (-50) is applied first, then
	// the single end-of-turn clamp. Clamping after each action would give
	// 30 instead.
	r := Resolver{Table: testTable(), Schema: testSchema(), Clamp: true}

	next, _, _ := r.Resolve(testStates(), []Action{
		{Actor: "A", Target: TargetWorld, Kind: "mobilize"}, // wealth -80
		{Actor: "A", Target: "B", Kind: "trade"},            // wealth +30
	})

	if got := next["A"].Dynamic["wealth"]; got != 0 {
		t.Errorf("A.wealth = %v, want 0 (accumulate then clamp once)", got)
	}
}

func TestResolveWithoutClampingLeavesValuesUnbounded(t *testing.T) {
	r := Resolver{Table: testTable(), Schema: testSchema(), Clamp: false}

	next, _, _ := r.Resolve(testStates(), []Action{
		{Actor: "A", Target: TargetWorld, Kind: "mobilize"}, // wealth -80
	})

	if got := next["A"].Dynamic["wealth"]; got != -30 {
		t.Errorf("A.wealth = %v, want -30 with clamping disabled", got)
	}
}

func TestResolveDropsUnknownKind(t *testing.T) {
	r := Resolver{Table: testTable(), Schema: testSchema(), Clamp: true}
	start := testStates()

	next, applied, dropped := r.Resolve(start, []Action{
		{Actor: "A", Target: "B", Kind: "teleport"},
	})

	if len(applied) != 0 {
		t.Fatalf("applied %d actions, want 0", len(applied))
	}
	if len(dropped) != 1 || dropped[0].Kind != "teleport" {
		t.Fatalf("dropped = %v, want the teleport action", dropped)
	}
	if !reflect.DeepEqual(next, start) {
		t.Errorf("unknown action altered state: %v", next)
	}
}

func TestResolveDropsUnknownNations(t *testing.T) {
	r := Resolver{Table: testTable(), Schema: testSchema()}

	_, applied, dropped := r.Resolve(testStates(), []Action{
		{Actor: "Z", Target: "B", Kind: "attack"},
		{Actor: "A", Target: "Z", Kind: "attack"},
	})

	if len(applied) != 0 || len(dropped) != 2 {
		t.Errorf("applied=%d dropped=%d, want 0/2", len(applied), len(dropped))
	}
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	r := Resolver{Table: testTable(), Schema: testSchema(), Clamp: true}
	start := testStates()

	r.Resolve(start, []Action{{Actor: "A", Target: "B", Kind: "attack"}})

	if got := start["A"].Dynamic["power"]; got != 50 {
		t.Errorf("input snapshot mutated: A.power = %v, want 50", got)
	}
	if got := start["B"].Dynamic["power"]; got != 50 {
		t.Errorf("input snapshot mutated: B.power = %v, want 50", got)
	}
}

func TestResolveSelfAndUntargetedActions(t *testing.T) {
	selfAttack := []Action{{Actor: "A", Target: "A", Kind: "attack"}}
	worldAttack := []Action{{Actor: "A", Target: TargetWorld, Kind: "attack"}}

	r := Resolver{Table: testTable(), Schema: testSchema()}
	for name, actions := range map[string][]Action{"self": selfAttack, "world": worldAttack} {
		next, _, _ := r.Resolve(testStates(), actions)
		if got := next["A"].Dynamic["power"]; got != 45 {
			t.Errorf("%s: A.power = %v, want 45 (actor delta only)", name, got)
		}
	}

	r.SelfAppliesOtherDelta = true
	next, _, _ := r.Resolve(testStates(), selfAttack)
	if got := next["A"].Dynamic["power"]; got != 35 {
		t.Errorf("A.power = %v, want 35 (both deltas on the actor)", got)
	}
}

func TestResolveKeepsFieldSet(t *testing.T) {
	schema := testSchema()
	r := Resolver{Table: testTable(), Schema: schema, Clamp: true}

	next, _, _ := r.Resolve(testStates(), []Action{
		{Actor: "A", Target: "B", Kind: "attack"},
		{Actor: "B", Target: "A", Kind: "trade"},
	})

	for name, st := range next {
		if len(st.Dynamic) != len(schema.Fields) {
			t.Errorf("%s has %d dynamic fields, want %d", name, len(st.Dynamic), len(schema.Fields))
		}
		for _, f := range schema.Fields {
			if _, ok := st.Dynamic[f]; !ok {
				t.Errorf("%s missing field %q", name, f)
			}
		}
	}
}
