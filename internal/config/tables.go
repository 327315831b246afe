// Package config loads the run configuration: the CSV nation roster, the
// CSV action catalog, and the YAML run manifest.
package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/talgya/statecraft/internal/sim"
)

// Catalog column conventions: every dynamic field X contributes columns
// self_X and other_X (deltas), and optionally min_X / max_X (bounds, read
// from the first data row). The dynamic-variable schema is derived from the
// self_ columns, in header order.
const (
	colAction   = "action"
	colTags     = "tags"
	selfPrefix  = "self_"
	otherPrefix = "other_"
	minPrefix   = "min_"
	maxPrefix   = "max_"
)

// Tables is the engine-ready configuration loaded from the two CSV inputs.
type Tables struct {
	Schema  sim.Schema
	Table   sim.EffectTable
	Nations []sim.NationState // roster order
}

// LoadTables reads the roster and catalog and cross-validates them. Any
// inconsistency (missing columns, field mismatch, bad numbers) is fatal.
func LoadTables(rosterPath, catalogPath string) (*Tables, error) {
	schema, table, err := loadCatalog(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", catalogPath, err)
	}
	nations, err := loadRoster(rosterPath, schema)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", rosterPath, err)
	}
	return &Tables{Schema: schema, Table: table, Nations: nations}, nil
}

func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("need a header row and at least one data row")
	}
	header = records[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	return header, records[1:], nil
}

func loadCatalog(path string) (sim.Schema, sim.EffectTable, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return sim.Schema{}, sim.EffectTable{}, err
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	if _, ok := col[colAction]; !ok {
		return sim.Schema{}, sim.EffectTable{}, fmt.Errorf("missing %q column", colAction)
	}

	// Dynamic fields come from the self_ columns, in header order.
	var fields []string
	for _, h := range header {
		if f, ok := strings.CutPrefix(h, selfPrefix); ok {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return sim.Schema{}, sim.EffectTable{}, fmt.Errorf("no %sX delta columns found", selfPrefix)
	}

	num := func(row []string, name string, line int) (float64, error) {
		i, ok := col[name]
		if !ok || strings.TrimSpace(row[i]) == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return 0, fmt.Errorf("row %d column %q: %w", line, name, err)
		}
		return v, nil
	}

	// Bounds ride on the catalog; read them from the first data row.
	bounds := make(map[string]sim.Bounds)
	for _, f := range fields {
		_, hasMin := col[minPrefix+f]
		_, hasMax := col[maxPrefix+f]
		if !hasMin && !hasMax {
			continue
		}
		if !hasMin || !hasMax {
			return sim.Schema{}, sim.EffectTable{}, fmt.Errorf("field %q has only one of %s/%s columns", f, minPrefix+f, maxPrefix+f)
		}
		lo, err := num(rows[0], minPrefix+f, 2)
		if err != nil {
			return sim.Schema{}, sim.EffectTable{}, err
		}
		hi, err := num(rows[0], maxPrefix+f, 2)
		if err != nil {
			return sim.Schema{}, sim.EffectTable{}, err
		}
		if lo > hi {
			return sim.Schema{}, sim.EffectTable{}, fmt.Errorf("field %q has min %v > max %v", f, lo, hi)
		}
		bounds[f] = sim.Bounds{Min: lo, Max: hi}
	}

	var specs []sim.EffectSpec
	seen := make(map[string]bool)
	for n, row := range rows {
		line := n + 2 // 1-based, after the header
		if len(row) != len(header) {
			return sim.Schema{}, sim.EffectTable{}, fmt.Errorf("row %d has %d columns, header has %d", line, len(row), len(header))
		}
		kind := strings.TrimSpace(row[col[colAction]])
		if kind == "" {
			return sim.Schema{}, sim.EffectTable{}, fmt.Errorf("row %d has an empty action name", line)
		}
		if seen[kind] {
			return sim.Schema{}, sim.EffectTable{}, fmt.Errorf("duplicate action %q at row %d", kind, line)
		}
		seen[kind] = true

		spec := sim.EffectSpec{
			Kind:        kind,
			SelfDeltas:  make(map[string]float64, len(fields)),
			OtherDeltas: make(map[string]float64, len(fields)),
		}
		if i, ok := col[colTags]; ok {
			for _, t := range strings.Split(row[i], ";") {
				if t = strings.TrimSpace(t); t != "" {
					spec.Tags = append(spec.Tags, t)
				}
			}
		}
		for _, f := range fields {
			sv, err := num(row, selfPrefix+f, line)
			if err != nil {
				return sim.Schema{}, sim.EffectTable{}, err
			}
			ov, err := num(row, otherPrefix+f, line)
			if err != nil {
				return sim.Schema{}, sim.EffectTable{}, err
			}
			if sv != 0 {
				spec.SelfDeltas[f] = sv
			}
			if ov != 0 {
				spec.OtherDeltas[f] = ov
			}
		}
		specs = append(specs, spec)
	}

	schema := sim.Schema{Fields: fields, Bounds: bounds}
	return schema, sim.NewEffectTable(specs), nil
}

func loadRoster(path string, schema sim.Schema) ([]sim.NationState, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	nameIdx, ok := col["name"]
	if !ok {
		return nil, fmt.Errorf("missing %q column", "name")
	}

	// Every dynamic field from the catalog must exist on the roster.
	for _, f := range schema.Fields {
		if _, ok := col[f]; !ok {
			return nil, fmt.Errorf("dynamic field %q from the catalog has no roster column", f)
		}
	}
	dynamic := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		dynamic[f] = true
	}

	var nations []sim.NationState
	for n, row := range rows {
		line := n + 2
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d columns, header has %d", line, len(row), len(header))
		}
		st := sim.NationState{
			Name:    strings.TrimSpace(row[nameIdx]),
			Static:  make(map[string]string),
			Dynamic: make(map[string]float64, len(schema.Fields)),
		}
		if st.Name == "" {
			return nil, fmt.Errorf("row %d has an empty nation name", line)
		}
		for i, h := range header {
			if h == "name" {
				continue
			}
			cell := strings.TrimSpace(row[i])
			if dynamic[h] {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d column %q: %w", line, h, err)
				}
				st.Dynamic[h] = v
			} else {
				st.Static[h] = cell
			}
		}
		nations = append(nations, st)
	}
	return nations, nil
}
