package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nutriplan/nutriplan/internal/services/shopping"
	"github.com/nutriplan/nutriplan/internal/util"
)

// Page geometry of the shopping list, in millimetres.
const (
	listTop        = 20.0
	listBreakAt    = 270.0
	listLineHeight = 6.0
	listLeft       = 15.0
	listWidth      = 180.0
	listIndent     = 6.0
)

// textOp is one positioned run of text on a page.
type textOp struct {
	Page  int
	X, Y  float64
	Text  string
	Style string
	Size  float64
}

// splitFunc wraps text to width with the given font style and size.
type splitFunc func(style string, size float64, text string, width float64) []string

type listCursor struct {
	page  int
	y     float64
	ops   []textOp
	split splitFunc
}

func (c *listCursor) write(x float64, style string, size float64, text string) {
	for _, line := range c.split(style, size, text, listWidth-(x-listLeft)) {
		if c.y > listBreakAt {
			c.page++
			c.y = listTop
		}
		c.ops = append(c.ops, textOp{Page: c.page, X: x, Y: c.y, Text: line, Style: style, Size: size})
		c.y += listLineHeight
	}
}

func (c *listCursor) gap(h float64) {
	c.y += h
}

// layoutShoppingList positions every line of the list. A line that would
// start below the break threshold opens a new page at the top margin.
func layoutShoppingList(list *shopping.List, split splitFunc) []textOp {
	c := &listCursor{page: 1, y: listTop, split: split}

	title := "Lista de compras"
	if list.Program != "" {
		title = list.Program + " - " + title
	}
	c.write(listLeft, "B", 14, title)
	c.gap(2)

	date := list.Date
	if t, err := util.ParseDateKey(list.Date); err == nil {
		date = spanishDate(t)
	}
	c.write(listLeft, "", 10, "Sucursal: "+list.Branch.Name)
	c.write(listLeft, "", 10, "Fecha: "+date)
	c.write(listLeft, "", 10, "Comensales: "+strconv.Itoa(list.Headcount))
	if list.Observation != "" {
		c.write(listLeft, "I", 10, "Observación: "+list.Observation)
	}
	c.gap(4)

	for _, s := range list.Sections {
		heading := s.Label
		if len(s.Menus) > 0 {
			heading += " (" + strings.Join(s.Menus, ", ") + ")"
		}
		c.write(listLeft, "B", 12, heading)
		for _, r := range s.Recipes {
			c.write(listLeft+listIndent/2, "B", 10, r.Name)
			for _, line := range r.Lines {
				c.write(listLeft+listIndent, "", 10, fmt.Sprintf("%s: %s", line.FoodName, line.Text()))
			}
			c.gap(1)
		}
		c.gap(3)
	}

	if list.Empty() {
		c.write(listLeft, "I", 10, "No hay ingredientes para esta fecha.")
	}
	return c.ops
}

// ShoppingListPDF writes the purchase list of one day.
func ShoppingListPDF(w io.Writer, list *shopping.List, meta Meta) error {
	pdf, tr := newDocument("Lista de compras "+list.Date, meta)
	pdf.SetMargins(listLeft, listTop, listLeft)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFooterFunc(footer(pdf, tr, meta))

	split := func(style string, size float64, text string, width float64) []string {
		pdf.SetFont("Helvetica", style, size)
		lines := pdf.SplitText(tr(text), width)
		if len(lines) == 0 {
			return []string{""}
		}
		return lines
	}

	// Split already translated the text, so the ops are rendered as-is.
	ops := layoutShoppingList(list, split)

	page := 0
	for _, op := range ops {
		for page < op.Page {
			pdf.AddPage()
			page++
		}
		pdf.SetFont("Helvetica", op.Style, op.Size)
		pdf.Text(op.X, op.Y, op.Text)
	}
	if page == 0 {
		pdf.AddPage()
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("building shopping list: %w", err)
	}
	return pdf.Output(w)
}
