package analysis

import (
	"testing"

	"github.com/cassiap/servers/internal/dataset"
)

func TestProfileDataset(t *testing.T) {
	ds := dataset.New("inv.csv", []string{"Hostname", "CPUs", "Criado em", "Vazia"}, [][]string{
		{"web01", "4", "2024-01-15", ""},
		{"web02", "8", "2024-02-01", ""},
		{"db01", "16", "", ""},
		{"db01", "8", "2024-03-10", ""},
	})

	p := ProfileDataset(ds)

	if p.Rows != 4 {
		t.Fatalf("Rows = %d, want 4", p.Rows)
	}
	if len(p.Columns) != 4 {
		t.Fatalf("Columns = %d, want 4", len(p.Columns))
	}

	byKey := make(map[string]ColumnProfile)
	for _, c := range p.Columns {
		byKey[c.Key] = c
	}

	host := byKey["hostname"]
	if host.Kind != "text" || host.NonNull != 4 || host.Distinct != 3 {
		t.Errorf("hostname profile = %+v", host)
	}

	cpus := byKey["cpus"]
	if cpus.Kind != "number" {
		t.Fatalf("cpus kind = %q, want number", cpus.Kind)
	}
	if cpus.Min == nil || *cpus.Min != 4 || cpus.Max == nil || *cpus.Max != 16 {
		t.Errorf("cpus min/max = %v/%v, want 4/16", cpus.Min, cpus.Max)
	}
	if cpus.Mean == nil || *cpus.Mean != 9 {
		t.Errorf("cpus mean = %v, want 9", cpus.Mean)
	}
	if cpus.Median == nil || *cpus.Median != 8 {
		t.Errorf("cpus median = %v, want 8", cpus.Median)
	}

	created := byKey["criado_em"]
	if created.Kind != "date" || created.NonNull != 3 {
		t.Errorf("criado_em profile = %+v", created)
	}

	empty := byKey["vazia"]
	if empty.Kind != "empty" || empty.NonNull != 0 || empty.Distinct != 0 {
		t.Errorf("vazia profile = %+v", empty)
	}
	if empty.Min != nil {
		t.Error("empty column must not carry numeric stats")
	}
}
