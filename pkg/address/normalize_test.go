package address

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain ascii", input: "RUA 01-A", expected: "RUA 01-A"},
		{name: "empty", input: "", expected: ""},
		{name: "accents stripped", input: "Depósito Ávila", expected: "Depsito vila"},
		{name: "control characters", input: "A\tB\nC\r\x00D", expected: "ABCD"},
		{name: "delete char", input: "X\x7fY", expected: "XY"},
		{name: "bounds kept", input: " ~", expected: " ~"},
		{name: "emoji", input: "📍 Endereço", expected: " Endereo"},
		{name: "only non printable", input: "çã\u00a0", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeString(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeString(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeString_PrintableOnlyAndIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"abc",
		"Código de Barras\t123",
		string([]byte{0xff, 0xfe, 'a'}),
		"\x1f\x20\x7e\x7f",
		"日本語 text",
	}

	for _, in := range inputs {
		once := SanitizeString(in)
		for i := 0; i < len(once); i++ {
			if once[i] < minPrintable || once[i] > maxPrintable {
				t.Errorf("SanitizeString(%q) kept byte 0x%02x", in, once[i])
			}
		}
		if twice := SanitizeString(once); twice != once {
			t.Errorf("SanitizeString not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitize_NonStringPassThrough(t *testing.T) {
	values := []any{
		nil,
		float64(42),
		true,
		map[string]any{"a": "é"},
		[]any{"é"},
	}

	for _, v := range values {
		got := Sanitize(v)
		if !reflect.DeepEqual(got, v) {
			t.Errorf("Sanitize(%v) = %v, want unchanged", v, got)
		}
	}

	if got := Sanitize("São"); got != "So" {
		t.Errorf("Sanitize(string) = %v, want So", got)
	}
}

func TestNormalize(t *testing.T) {
	raw := Raw{
		ID:           "a1\n",
		Descricao:    "Rua Única",
		CodigoBarras: float64(789),
		Situacao:     "ATIVO",
		Deposito: &RawDeposit{
			ID:        "d-1",
			Descricao: "Depósito Central",
		},
	}

	got := Normalize(raw)
	want := Address{
		ID:                 "a1",
		Description:        "Rua nica",
		Barcode:            float64(789),
		DepositDescription: "Depsito Central",
		DepositID:          "d-1",
		Situation:          "ATIVO",
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}

	// Input must not be mutated
	if raw.ID != "a1\n" || raw.Deposito.Descricao != "Depósito Central" {
		t.Error("Normalize mutated its input")
	}
}

func TestNormalize_DepositAbsent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "null deposit", body: `{"id":"x","descricao":"A","deposito":null}`},
		{name: "missing deposit", body: `{"id":"x","descricao":"A"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw Raw
			if err := json.Unmarshal([]byte(tt.body), &raw); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			got := Normalize(raw)
			if got.DepositID != nil {
				t.Errorf("DepositID = %v, want nil", got.DepositID)
			}
			if got.DepositDescription != nil {
				t.Errorf("DepositDescription = %v, want nil", got.DepositDescription)
			}
			if got.ID != "x" {
				t.Errorf("ID = %v, want x", got.ID)
			}
		})
	}
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	raws := []Raw{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	got := NormalizeAll(raws)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, a := range got {
		if a.ID != raws[i].ID {
			t.Errorf("got[%d].ID = %v, want %v", i, a.ID, raws[i].ID)
		}
	}
}

func TestAddressRow(t *testing.T) {
	a := Address{
		ID:                 "1",
		Description:        "desc",
		Barcode:            "bar",
		DepositDescription: "dep",
		DepositID:          "dep-id",
		Situation:          "ATIVO",
	}

	want := []any{"1", "desc", "bar", "dep", "dep-id", "ATIVO"}
	if got := a.Row(); !reflect.DeepEqual(got, want) {
		t.Errorf("Row() = %v, want %v", got, want)
	}
	if len(Columns) != len(want) {
		t.Errorf("len(Columns) = %d, want %d", len(Columns), len(want))
	}
}
