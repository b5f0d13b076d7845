package components

import (
	"errors"
	"strings"
	"testing"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/models"
)

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"Validation", &models.ValidationError{Fields: map[string]string{"nombre": "required", "fecha": "datekey"}},
			"fecha fecha inválida (aaaa-mm-dd); nombre es obligatorio"},
		{"Unknown rule", &models.ValidationError{Fields: map[string]string{"x": "oneof"}}, "x oneof"},
		{"Backend message", &api.Error{Status: 400, Message: "Nombre duplicado"}, "Nombre duplicado"},
		{"In use", &api.Error{Status: 409}, "El registro está en uso y no puede modificarse."},
		{"Plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorText(tt.err); got != tt.want {
				t.Errorf("ErrorText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseOptionalFloat(t *testing.T) {
	tests := []struct {
		in      string
		want    *float64
		wantErr bool
	}{
		{"", nil, false},
		{"  ", nil, false},
		{"12.5", f(12.5), false},
		{"0,75", f(0.75), false},
		{"abc", nil, true},
		{"-1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOptionalFloat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("ParseOptionalFloat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	if v, err := ParseInt(""); v != 0 || err != nil {
		t.Errorf("empty = %d, %v", v, err)
	}
	if v, err := ParseInt(" 50 "); v != 50 || err != nil {
		t.Errorf("50 = %d, %v", v, err)
	}
	if _, err := ParseInt("-3"); err == nil {
		t.Error("negative should fail")
	}
}

func TestStatus_Render(t *testing.T) {
	if got := (Status{}).Render(); got != "" {
		t.Errorf("idle status = %q", got)
	}
	s := Status{Loading: true, ListErr: errors.New("offline"), Success: "Guardado"}
	if !strings.Contains(s.Render(), "Guardado") {
		t.Error("success should win over list error")
	}
	s.OpErr = errors.New("rechazado")
	if !strings.Contains(s.Render(), "rechazado") {
		t.Error("operation error should win")
	}
	if !strings.Contains((Status{ListErr: errors.New("offline")}).Render(), "No se pudo cargar") {
		t.Error("list error not shown")
	}
}
