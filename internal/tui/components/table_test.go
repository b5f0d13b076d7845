package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func testColumns() []Column {
	return []Column{
		{Title: "ID", Width: 5, Align: lipgloss.Right},
		{Title: "Nombre", Width: 12},
		{Title: "Grupo", Width: 10},
	}
}

func testRows(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{string(rune('0' + i%10)), "Insumo", "Cereales"}
	}
	return rows
}

func TestNewTable(t *testing.T) {
	table := NewTable(testColumns())
	if table == nil {
		t.Fatal("expected non-nil table")
	}
	if !table.Empty() {
		t.Error("new table should be empty")
	}
	if table.Selected() != 0 {
		t.Errorf("Selected() = %d, want 0", table.Selected())
	}
}

func TestTable_SetRowsClampsSelection(t *testing.T) {
	table := NewTable(testColumns())
	table.SetRows(testRows(10))
	table.GoToBottom()
	if table.Selected() != 9 {
		t.Fatalf("Selected() = %d, want 9", table.Selected())
	}

	table.SetRows(testRows(3))
	if table.Selected() != 2 {
		t.Errorf("selection should clamp to the last row, got %d", table.Selected())
	}

	table.SetRows(nil)
	if table.Selected() != 0 || table.SelectedRow() != nil {
		t.Errorf("empty table selection = %d, %v", table.Selected(), table.SelectedRow())
	}
}

func TestTable_Navigation(t *testing.T) {
	tests := []struct {
		name  string
		moves func(*Table)
		want  int
	}{
		{"Down twice", func(tb *Table) { tb.MoveDown(); tb.MoveDown() }, 2},
		{"Up at top stays", func(tb *Table) { tb.MoveUp() }, 0},
		{"Bottom", func(tb *Table) { tb.GoToBottom() }, 14},
		{"Down past end", func(tb *Table) { tb.GoToBottom(); tb.MoveDown() }, 14},
		{"Top after bottom", func(tb *Table) { tb.GoToBottom(); tb.GoToTop() }, 0},
		{"Page down", func(tb *Table) { tb.PageDown() }, 5},
		{"Page up clamps", func(tb *Table) { tb.PageDown(); tb.PageUp(); tb.PageUp() }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable(testColumns())
			table.SetVisibleRows(5)
			table.SetRows(testRows(15))
			tt.moves(table)
			if got := table.Selected(); got != tt.want {
				t.Errorf("Selected() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTable_Render(t *testing.T) {
	table := NewTable(testColumns())
	table.SetRows([][]string{{"1", "Arroz", "Cereales"}})
	table.SetPagination(1, 3, 45)

	out := table.Render()
	for _, want := range []string{"ID", "Nombre", "Arroz", "Página 1/3 | 45 en total"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Arroz", 10, "Arroz"},
		{"Zanahoria rallada", 8, "Zanahor…"},
		{"Piña", 4, "Piña"},
		{"Azúcar morena", 5, "Azúc…"},
		{"x", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Fit(tt.in, tt.width); got != tt.want {
				t.Errorf("Fit(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestTable_RenderKeepsColumnsAligned(t *testing.T) {
	table := NewTable(testColumns())
	table.SetRows([][]string{{"1", "Azúcar", "Dulces"}, {"2", "Sal", "Condimento"}})
	lines := strings.Split(strings.TrimRight(table.Render(), "\n"), "\n")

	w := lipgloss.Width(lines[2])
	if got := lipgloss.Width(lines[3]); got != w {
		t.Errorf("row widths differ: %d vs %d", w, got)
	}
}
