package querybuilder

import "testing"

func TestSelectBuilder_ForUpdate(t *testing.T) {
	query, args, err := Select("public_id", "document").
		From("teams").
		Where(Eq("public_id", "alpha-1")).
		Limit(1).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT public_id, document FROM teams WHERE public_id = $1 LIMIT 1 FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "alpha-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_RequiresTable(t *testing.T) {
	if _, _, err := Select("public_id").ToSQL(); err == nil {
		t.Fatalf("expected error without table")
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		ID      string `db:"public_id"`
		Name    string `db:"name,omitempty"`
		Ignored string `db:"-"`
		hidden  string
	}

	query, args, err := InsertModel("teams", &row{ID: "t1", Name: "Alpha", hidden: "x"}, "ON CONFLICT (public_id) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO teams (public_id, name) VALUES ($1, $2) ON CONFLICT (public_id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "t1" || args[1] != "Alpha" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel_RejectsNonStruct(t *testing.T) {
	if _, _, err := InsertModel("teams", "nope", ""); err == nil {
		t.Fatalf("expected error for non-struct model")
	}
	type empty struct{ hidden int }
	if _, _, err := InsertModel("teams", empty{}, ""); err == nil {
		t.Fatalf("expected error for model without db columns")
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("teams").
		Set("players_needed", 6).
		Set("document", "{}").
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "t1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE teams SET players_needed = $1, document = $2, updated_at = NOW() WHERE public_id = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != 6 || args[1] != "{}" || args[2] != "t1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder_RequiresWhere(t *testing.T) {
	if _, _, err := Update("teams").Set("name", "x").ToSQL(); err == nil {
		t.Fatalf("expected error for unscoped update")
	}
}
