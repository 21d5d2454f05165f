package query_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/pledge/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "commitments", "c").
		Project("id", "id").
		Project("agent_id", "agentId").
		Project("deadline", "deadline")
}

func ptr(s string) *string { return &s }

func TestProjectionMapFrom(t *testing.T) {
	p := testProjection()
	got := p.From()
	want := "public.commitments c"
	if got != want {
		t.Errorf("From() = %q, want %q", got, want)
	}
}

func TestProjectionMapAlias(t *testing.T) {
	p := testProjection()
	if got := p.Alias(); got != "c" {
		t.Errorf("Alias() = %q, want %q", got, "c")
	}
}

func TestProjectionMapColumns(t *testing.T) {
	p := testProjection()
	got := p.Columns()
	want := "c.id, c.agent_id, c.deadline"
	if got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}
}

func TestProjectionMapColumnList(t *testing.T) {
	p := testProjection()
	got := p.ColumnList()
	if len(got) != 3 {
		t.Fatalf("ColumnList() length = %d, want 3", len(got))
	}
	want := []string{"c.id", "c.agent_id", "c.deadline"}
	for i, col := range got {
		if col != want[i] {
			t.Errorf("ColumnList()[%d] = %q, want %q", i, col, want[i])
		}
	}
}

func TestProjectionMapColumnLookup(t *testing.T) {
	p := testProjection()

	tests := []struct {
		name     string
		viewName string
		want     string
	}{
		{"mapped field", "agentId", "c.agent_id"},
		{"mapped column", "deadline", "c.deadline"},
		{"unmapped passthrough", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
		})
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "single ascending",
			input: "name",
			want:  []query.SortField{{Field: "name", Descending: false}},
		},
		{
			name:  "single descending",
			input: "-deadline",
			want:  []query.SortField{{Field: "deadline", Descending: true}},
		},
		{
			name:  "multiple mixed",
			input: "name,-deadline",
			want: []query.SortField{
				{Field: "name", Descending: false},
				{Field: "deadline", Descending: true},
			},
		},
		{
			name:  "with spaces",
			input: " name , -deadline ",
			want: []query.SortField{
				{Field: "name", Descending: false},
				{Field: "deadline", Descending: true},
			},
		},
		{
			name:  "empty parts skipped",
			input: "name,,createdAt",
			want: []query.SortField{
				{Field: "name", Descending: false},
				{Field: "deadline", Descending: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseSortFields(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSortFields(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseSortFields(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderBuild(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	sql, args := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c"
	if sql != wantSQL {
		t.Errorf("Build() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("Build() args = %v, want empty", args)
	}
}

func TestBuilderBuildCount(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	sql, args := b.BuildCount()

	wantSQL := "SELECT COUNT(*) FROM public.commitments c"
	if sql != wantSQL {
		t.Errorf("BuildCount() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("BuildCount() args = %v, want empty", args)
	}
}

func TestBuilderBuildPage(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "deadline", Descending: true})
	sql, args := b.BuildPage(2, 10)

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c ORDER BY c.deadline DESC LIMIT 10 OFFSET 10"
	if sql != wantSQL {
		t.Errorf("BuildPage() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("BuildPage() args = %v, want empty", args)
	}
}

func TestBuilderBuildSingle(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	sql, args := b.BuildSingle("id", "0199a1b2-0000-7000-8000-000000000001")

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.id = $1"
	if sql != wantSQL {
		t.Errorf("BuildSingle() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "0199a1b2-0000-7000-8000-000000000001" {
		t.Errorf("BuildSingle() args = %v, want [0199a1b2-0000-7000-8000-000000000001]", args)
	}
}

func TestBuilderBuildSingleOrNull(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("agentId", "agent_1")
	sql, args := b.BuildSingleOrNull()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.agent_id = $1 LIMIT 1"
	if sql != wantSQL {
		t.Errorf("BuildSingleOrNull() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "agent_1" {
		t.Errorf("BuildSingleOrNull() args = %v, want [agent_1]", args)
	}
}

func TestBuilderWhereEquals(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("agentId", "agent_1")
	sql, args := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.agent_id = $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "agent_1" {
		t.Errorf("args = %v, want [agent_1]", args)
	}
}

func TestBuilderWhereEqualsNilSkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("agentId", nil)
	sql, args := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereContains(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereContains("agentId", ptr("test"))
	sql, args := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.agent_id ILIKE $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "%test%" {
		t.Errorf("args = %v, want [%%test%%]", args)
	}
}

func TestBuilderWhereContainsNilSkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereContains("agentId", nil)
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereContainsEmptySkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereContains("agentId", ptr(""))
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereIn(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereIn("id", []any{"a", "b", "c"})
	sql, args := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.id IN ($1, $2, $3)"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 3 {
		t.Errorf("args length = %d, want 3", len(args))
	}
}

func TestBuilderWhereInEmptySkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereIn("id", []any{})
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereNullable(t *testing.T) {
	t.Run("nil value generates IS NULL", func(t *testing.T) {
		p := testProjection()
		b := query.NewBuilder(p)
		b.WhereNullable("agentId", nil)
		sql, args := b.Build()

		wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.agent_id IS NULL"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("non-nil value generates equals", func(t *testing.T) {
		p := testProjection()
		b := query.NewBuilder(p)
		b.WhereNullable("agentId", "agent_1")
		sql, args := b.Build()

		wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.agent_id = $1"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 1 || args[0] != "agent_1" {
			t.Errorf("args = %v, want [agent_1]", args)
		}
	})
}

func TestBuilderWhereSearch(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereSearch(ptr("test"), "agentId", "id")
	sql, args := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE (c.agent_id ILIKE $1 OR c.id ILIKE $2)"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 2 || args[0] != "%test%" || args[1] != "%test%" {
		t.Errorf("args = %v, want [%%test%% %%test%%]", args)
	}
}

func TestBuilderWhereSearchNilSkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereSearch(nil, "agentId")
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderMultipleConditions(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("agentId", "agent_1")
	b.WhereContains("id", ptr("abc"))
	sql, args := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.agent_id = $1 AND c.id ILIKE $2"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 2 {
		t.Errorf("args length = %d, want 2", len(args))
	}
	if args[0] != "agent_1" {
		t.Errorf("args[0] = %v, want agent_1", args[0])
	}
	if args[1] != "%abc%" {
		t.Errorf("args[1] = %v, want %%abc%%", args[1])
	}
}

func TestBuilderOrderByFields(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "id", Descending: false})
	b.OrderByFields([]query.SortField{
		{Field: "deadline", Descending: true},
		{Field: "agentId", Descending: false},
	})
	sql, _ := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c ORDER BY c.deadline DESC, c.agent_id ASC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}

func TestBuilderOrderByExpression(t *testing.T) {
	p := testProjection().
		Project("priority", "priority").
		OrderAs("priority", "CASE %s WHEN 'high' THEN 0 ELSE 1 END")

	if got := p.OrderColumn("deadline"); got != "c.deadline" {
		t.Errorf("OrderColumn(deadline) = %q, want %q", got, "c.deadline")
	}

	b := query.NewBuilder(p).
		WhereEquals("priority", ptr("high")).
		OrderByFields([]query.SortField{{Field: "priority"}})
	sql, args := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline, c.priority FROM public.commitments c WHERE c.priority = $1 ORDER BY CASE c.priority WHEN 'high' THEN 0 ELSE 1 END ASC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 {
		t.Errorf("args length = %d, want 1", len(args))
	}
}

func TestBuilderDefaultSort(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "deadline", Descending: true})
	sql, _ := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c ORDER BY c.deadline DESC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}

func TestBuilderBuildCountWithConditions(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("agentId", "agent_1")
	sql, args := b.BuildCount()

	wantSQL := "SELECT COUNT(*) FROM public.commitments c WHERE c.agent_id = $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "agent_1" {
		t.Errorf("args = %v, want [agent_1]", args)
	}
}

func TestBuilderBuildPageWithConditions(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "id"})
	b.WhereContains("agentId", ptr("ops"))
	sql, args := b.BuildPage(3, 25)

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.agent_id ILIKE $1 ORDER BY c.id ASC LIMIT 25 OFFSET 50"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "%ops%" {
		t.Errorf("args = %v, want [%%ops%%]", args)
	}
}

func TestProjectionMapTable(t *testing.T) {
	p := testProjection()
	if got := p.Table(); got != "public.commitments" {
		t.Errorf("Table() = %q, want %q", got, "public.commitments")
	}
}

func TestBuilderWhereRaw(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "deadline"})
	b.WhereEquals("agentId", "agent_1")
	b.Where("c.deadline BETWEEN ? AND ?", 10, 20)
	b.Where("c.fulfilled = FALSE")
	sql, args := b.Build()

	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.agent_id = $1 AND c.deadline BETWEEN $2 AND $3 AND c.fulfilled = FALSE ORDER BY c.deadline ASC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 3 || args[1] != 10 || args[2] != 20 {
		t.Errorf("args = %v, want [agent_1 10 20]", args)
	}
}

func TestBuilderBuildLimit(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.Where("c.deadline < ?", 5)

	sql, _ := b.BuildLimit(50)
	wantSQL := "SELECT c.id, c.agent_id, c.deadline FROM public.commitments c WHERE c.deadline < $1 LIMIT 50"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}

	sql, _ = b.BuildLimit(0)
	if strings.Contains(sql, "LIMIT") {
		t.Errorf("BuildLimit(0) should omit LIMIT, got %q", sql)
	}
}
