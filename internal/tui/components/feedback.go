package components

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/models"
)

var ruleText = map[string]string{
	"required": "es obligatorio",
	"max":      "es demasiado largo",
	"min":      "es demasiado corto",
	"gte":      "no puede ser negativo",
	"gt":       "debe ser mayor que cero",
	"datekey":  "fecha inválida (aaaa-mm-dd)",
	"status":   "estado inválido",
}

// ErrorText turns err into the message shown to the user. Validation
// failures list every field; backend errors use the backend's message.
func ErrorText(err error) string {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		keys := make([]string, 0, len(verr.Fields))
		for k := range verr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, len(keys))
		for i, k := range keys {
			rule := verr.Fields[k]
			if text, ok := ruleText[rule]; ok {
				rule = text
			}
			parts[i] = k + " " + rule
		}
		return strings.Join(parts, "; ")
	}
	return api.Message(err)
}

// ParseOptionalFloat reads a non-negative decimal. An empty string is nil.
// A comma is accepted as the decimal separator.
func ParseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q no es un número", s)
	}
	if v < 0 {
		return nil, fmt.Errorf("%q no puede ser negativo", s)
	}
	return &v, nil
}

// ParseInt reads a non-negative integer. An empty string is zero.
func ParseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%q no es un entero válido", s)
	}
	return v, nil
}

// FormatOptional renders a nullable amount, "-" when unknown.
func FormatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Status renders a store's list and mutation state as one line.
type Status struct {
	Loading bool
	ListErr error
	OpErr   error
	Success string
}

// Render returns the status line, empty when there is nothing to report.
func (s Status) Render() string {
	switch {
	case s.OpErr != nil:
		return ErrorStyle.Render("Error: " + ErrorText(s.OpErr))
	case s.Success != "":
		return SuccessStyle.Render(s.Success)
	case s.ListErr != nil:
		return ErrorStyle.Render("No se pudo cargar: " + ErrorText(s.ListErr))
	case s.Loading:
		return MutedStyle.Render("Cargando...")
	}
	return ""
}
