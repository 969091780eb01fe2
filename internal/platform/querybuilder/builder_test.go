package querybuilder

import (
	"strings"
	"testing"
)

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("penalty_records").
		Columns("match_id", "incident_index").
		Values(int64(1), 0).
		Values(int64(1), 3).
		Suffix("ON CONFLICT DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO penalty_records (match_id, incident_index) VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[3] != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("t").Columns("a", "b").Values(1).ToSQL()
	if err == nil {
		t.Fatalf("expected error for short row")
	}
}

type sampleModel struct {
	ID       int64   `db:"id"`
	Name     string  `db:"name"`
	Note     *string `db:"note"`
	Skipped  string  `db:"-"`
	internal string
}

func TestInsertModels(t *testing.T) {
	query, args, err := InsertModels("samples", []any{
		sampleModel{ID: 1, Name: "a"},
		&sampleModel{ID: 2, Name: "b"},
	}, "")
	if err != nil {
		t.Fatalf("build insert models: %v", err)
	}

	wantQuery := "INSERT INTO samples (id, name, note) VALUES ($1, $2, $3), ($4, $5, $6)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 6 || args[3] != int64(2) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModels_RejectsEmptyAndNonStruct(t *testing.T) {
	if _, _, err := InsertModels("samples", nil, ""); err == nil {
		t.Fatalf("expected error for no models")
	}
	if _, _, err := InsertModel("samples", 42, ""); err == nil {
		t.Fatalf("expected error for non-struct model")
	}
}

func TestConflictClause_DoUpdateSkipsKeys(t *testing.T) {
	got := OnConflict("match_id", "incident_index").
		DoUpdate("run_id", "match_id", "incident_index", "outcome").
		Set("updated_at = NOW()").
		String()

	want := "ON CONFLICT (match_id, incident_index) DO UPDATE SET run_id = EXCLUDED.run_id, outcome = EXCLUDED.outcome, updated_at = NOW()"
	if got != want {
		t.Fatalf("unexpected clause:\nwant: %s\ngot:  %s", want, got)
	}
}

func TestConflictClause_WhereAndDoNothing(t *testing.T) {
	guarded := OnConflict("source", "entity_key").
		DoUpdate("payload").
		Where("raw_payloads.payload_hash IS DISTINCT FROM EXCLUDED.payload_hash").
		String()
	if guarded != "ON CONFLICT (source, entity_key) DO UPDATE SET payload = EXCLUDED.payload WHERE raw_payloads.payload_hash IS DISTINCT FROM EXCLUDED.payload_hash" {
		t.Fatalf("unexpected guarded clause: %s", guarded)
	}

	if got := OnConflict("id").DoUpdate("id").String(); got != "ON CONFLICT (id) DO NOTHING" {
		t.Fatalf("expected DO NOTHING when only keys are given, got %s", got)
	}
}

func TestInsertBuilder_OnConflict(t *testing.T) {
	query, _, err := InsertInto("t").Columns("id", "v").Values(1, 2).
		OnConflict(OnConflict("id").DoUpdate("v")).
		ToSQL()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "INSERT INTO t (id, v) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET v = EXCLUDED.v"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
}

func TestModelColumns(t *testing.T) {
	cols, err := ModelColumns(sampleModel{})
	if err != nil {
		t.Fatalf("model columns: %v", err)
	}
	if strings.Join(cols, ",") != "id,name,note" {
		t.Fatalf("unexpected columns: %v", cols)
	}
}
