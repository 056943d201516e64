package model

import (
	"testing"
)

func TestGenerateID(t *testing.T) {
	types := []IDType{IDTypeJob, IDTypePlan}
	prefixes := []string{"job", "plan"}

	for i, idType := range types {
		t.Run(string(idType), func(t *testing.T) {
			id, err := GenerateID(idType)
			if err != nil {
				t.Fatalf("GenerateID(%s) returned error: %v", idType, err)
			}
			if !ValidateID(id) {
				t.Errorf("generated ID %q does not match regex", id)
			}
			if id[:len(prefixes[i])] != prefixes[i] {
				t.Errorf("expected prefix %q, got %q", prefixes[i], id[:len(prefixes[i])])
			}
		})
	}
}

func TestGenerateID_InvalidType(t *testing.T) {
	_, err := GenerateID("invalid")
	if err == nil {
		t.Error("expected error for invalid ID type")
	}
}

func TestGenerateID_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateID(IDTypeJob)
		if err != nil {
			t.Fatalf("GenerateID returned error: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"valid job", "job_1771722000_a3f2b7c1", true},
		{"valid plan", "plan_1771722060_b7c1d4e9", true},
		{"invalid prefix", "cmd_1771722000_a3f2b7c1", false},
		{"short timestamp", "job_177172200_a3f2b7c1", false},
		{"long timestamp", "job_17717220001_a3f2b7c1", false},
		{"uppercase hex", "job_1771722000_A3F2B7C1", false},
		{"short hex", "job_1771722000_a3f2b7c", false},
		{"empty", "", false},
		{"no separators", "job1771722000a3f2b7c1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateID(tt.id); got != tt.valid {
				t.Errorf("ValidateID(%q) = %v, want %v", tt.id, got, tt.valid)
			}
		})
	}
}

func TestParseIDType(t *testing.T) {
	tests := []struct {
		id       string
		expected IDType
	}{
		{"job_1771722000_a3f2b7c1", IDTypeJob},
		{"plan_1771722060_b7c1d4e9", IDTypePlan},
	}
	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			got, err := ParseIDType(tt.id)
			if err != nil {
				t.Fatalf("ParseIDType(%q) returned error: %v", tt.id, err)
			}
			if got != tt.expected {
				t.Errorf("ParseIDType(%q) = %q, want %q", tt.id, got, tt.expected)
			}
		})
	}
}

func TestParseIDType_Invalid(t *testing.T) {
	_, err := ParseIDType("invalid")
	if err == nil {
		t.Error("expected error for invalid ID")
	}
}

func TestValidJobName(t *testing.T) {
	for _, name := range []string{"si-scf", "job_1771722000_a3f2b7c1", "Si.relax"} {
		if !ValidJobName(name) {
			t.Errorf("ValidJobName(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "../escape", "a/b", ".hidden"} {
		if ValidJobName(name) {
			t.Errorf("ValidJobName(%q) = true, want false", name)
		}
	}
}
