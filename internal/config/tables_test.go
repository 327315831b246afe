package config

import (
	"os"
	"path/filepath"
	"testing"
)

const catalogCSV = `action,tags,self_power,other_power,self_wealth,other_wealth,min_power,max_power,min_wealth,max_wealth
attack,aggressive;extreme,-5,-10,,,0,100,0,100
trade,peaceful,,,3,2,,,,
wait,neutral,,,,,,,,
`

const rosterCSV = `name,government,power,wealth
A,Democracy,50,60
B,Junta,70,20
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTables(t *testing.T) {
	tables, err := LoadTables(
		writeFile(t, "nations.csv", rosterCSV),
		writeFile(t, "actions.csv", catalogCSV),
	)
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}

	wantFields := []string{"power", "wealth"}
	if len(tables.Schema.Fields) != 2 {
		t.Fatalf("fields = %v, want %v", tables.Schema.Fields, wantFields)
	}
	for i, f := range wantFields {
		if tables.Schema.Fields[i] != f {
			t.Errorf("fields[%d] = %q, want %q", i, tables.Schema.Fields[i], f)
		}
	}

	if b := tables.Schema.Bounds["power"]; b.Min != 0 || b.Max != 100 {
		t.Errorf("power bounds = %+v, want [0,100]", b)
	}

	attack, ok := tables.Table.Lookup("attack")
	if !ok {
		t.Fatal("attack missing from table")
	}
	if got := attack.SelfDeltas["power"]; got != -5 {
		t.Errorf("attack self power delta = %v, want -5", got)
	}
	if got := attack.OtherDeltas["power"]; got != -10 {
		t.Errorf("attack other power delta = %v, want -10", got)
	}
	if len(attack.Tags) != 2 || attack.Tags[0] != "aggressive" || attack.Tags[1] != "extreme" {
		t.Errorf("attack tags = %v, want [aggressive extreme]", attack.Tags)
	}

	wait, _ := tables.Table.Lookup("wait")
	if len(wait.SelfDeltas) != 0 || len(wait.OtherDeltas) != 0 {
		t.Errorf("wait has deltas: %+v", wait)
	}

	if len(tables.Nations) != 2 {
		t.Fatalf("nations = %d, want 2", len(tables.Nations))
	}
	a := tables.Nations[0]
	if a.Name != "A" || a.Static["government"] != "Democracy" {
		t.Errorf("nation A = %+v", a)
	}
	if a.Dynamic["power"] != 50 || a.Dynamic["wealth"] != 60 {
		t.Errorf("nation A dynamic = %v", a.Dynamic)
	}
}

func TestLoadTablesRejectsFieldMismatch(t *testing.T) {
	// Roster is missing the wealth column the catalog introduces.
	roster := `name,power
A,50
`
	_, err := LoadTables(
		writeFile(t, "nations.csv", roster),
		writeFile(t, "actions.csv", catalogCSV),
	)
	if err == nil {
		t.Fatal("LoadTables succeeded with a roster/catalog field mismatch")
	}
}

func TestLoadTablesRejectsBadNumbers(t *testing.T) {
	roster := `name,power,wealth
A,fifty,60
`
	_, err := LoadTables(
		writeFile(t, "nations.csv", roster),
		writeFile(t, "actions.csv", catalogCSV),
	)
	if err == nil {
		t.Fatal("LoadTables succeeded with a non-numeric dynamic value")
	}
}

func TestLoadTablesRejectsDuplicateActions(t *testing.T) {
	catalog := `action,tags,self_power,other_power
attack,aggressive,-5,-10
attack,aggressive,-1,-2
`
	_, err := LoadTables(
		writeFile(t, "nations.csv", "name,power\nA,50\n"),
		writeFile(t, "actions.csv", catalog),
	)
	if err == nil {
		t.Fatal("LoadTables succeeded with a duplicate action kind")
	}
}

func TestLoadTablesRejectsHalfBounds(t *testing.T) {
	catalog := `action,tags,self_power,min_power
attack,aggressive,-5,0
`
	_, err := LoadTables(
		writeFile(t, "nations.csv", "name,power\nA,50\n"),
		writeFile(t, "actions.csv", catalog),
	)
	if err == nil {
		t.Fatal("LoadTables succeeded with min_power but no max_power")
	}
}

func TestLoadManifestDefaultsAndOverrides(t *testing.T) {
	m, err := LoadManifest("")
	if err != nil {
		t.Fatalf("LoadManifest(\"\"): %v", err)
	}
	if m.MaxDays != 14 || m.MaxModelRetries != 5 || m.NationBackend != "scripted" {
		t.Errorf("defaults = %+v", m)
	}

	path := writeFile(t, "run.yaml", `
max_days: 3
nation_backend: anthropic
nation_model: claude-haiku-4-5-20251001
clamp_dynamic_variables: true
`)
	m, err = LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.MaxDays != 3 || m.NationBackend != "anthropic" || !m.ClampDynamicVariables {
		t.Errorf("manifest = %+v", m)
	}
	// Untouched keys keep their defaults.
	if m.MaxModelRetries != 5 {
		t.Errorf("max_model_retries = %d, want default 5", m.MaxModelRetries)
	}
}

func TestLoadManifestRejectsBadValues(t *testing.T) {
	path := writeFile(t, "run.yaml", "max_days: -1\n")
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("LoadManifest accepted max_days: -1")
	}
}
