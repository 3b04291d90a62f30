package catalog

import (
	"strings"
	"testing"
)

const csvHeader = "ProductNumber,GenderCode,ColorCode,ProductName,ColorName,FlatLayPrompt\n"

func TestValidateCSV(t *testing.T) {
	input := csvHeader +
		"CNC-P1000,M,NAV,Hoodie,Navy,flat lay of a navy hoodie\n" +
		"CNC-P1000,M,BLK,Hoodie,Black,flat lay of a black hoodie\n" +
		"CNC-P2000,W,RED,Jacket,Red,flat lay of a red jacket\n"

	result, err := ValidateCSV(strings.NewReader(input), "CNC-P")
	if err != nil {
		t.Fatalf("ValidateCSV() error: %v", err)
	}

	if !result.Valid {
		t.Fatalf("expected valid result, errors: %v", result.Errors)
	}
	if result.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", result.RowCount)
	}
	if len(result.Variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(result.Variants))
	}
	if result.Variants[0].Prompt != "flat lay of a navy hoodie" {
		t.Errorf("first variant prompt = %q", result.Variants[0].Prompt)
	}
}

func TestValidateCSVMissingColumns(t *testing.T) {
	input := "ProductNumber,ColorCode\nCNC-P1000,NAV\n"

	result, err := ValidateCSV(strings.NewReader(input), "CNC-P")
	if err != nil {
		t.Fatalf("ValidateCSV() error: %v", err)
	}

	if result.Valid {
		t.Error("expected invalid result for missing columns")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "Missing required columns") {
		t.Errorf("expected missing-columns error, got %v", result.Errors)
	}
}

func TestValidateCSVPrefixFilter(t *testing.T) {
	input := csvHeader +
		"NOTE: internal memo row,,,,,\n" +
		"XYZ-9000,M,NAV,Other,Navy,some prompt\n" +
		"CNC-P1000,M,NAV,Hoodie,Navy,flat lay prompt\n"

	result, err := ValidateCSV(strings.NewReader(input), "CNC-P")
	if err != nil {
		t.Fatalf("ValidateCSV() error: %v", err)
	}

	if len(result.Variants) != 1 {
		t.Fatalf("expected 1 variant after prefix filter, got %d", len(result.Variants))
	}
	if result.Variants[0].ProductNumber != "CNC-P1000" {
		t.Errorf("kept wrong row: %s", result.Variants[0].ProductNumber)
	}
}

func TestValidateCSVMissingPromptWarns(t *testing.T) {
	input := csvHeader +
		"CNC-P1000,M,NAV,Hoodie,Navy,\n" +
		"CNC-P2000,W,RED,Jacket,Red,flat lay prompt\n"

	result, err := ValidateCSV(strings.NewReader(input), "CNC-P")
	if err != nil {
		t.Fatalf("ValidateCSV() error: %v", err)
	}

	if !result.Valid {
		t.Errorf("missing prompt should warn, not fail: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", result.Warnings)
	}
	if len(result.Variants) != 1 {
		t.Errorf("promptless row should be skipped, got %d variants", len(result.Variants))
	}
}

func TestValidateCSVEmptyGenderDefaults(t *testing.T) {
	input := csvHeader + "CNC-P1000,,NAV,Hoodie,Navy,flat lay prompt\n"

	result, err := ValidateCSV(strings.NewReader(input), "CNC-P")
	if err != nil {
		t.Fatalf("ValidateCSV() error: %v", err)
	}

	if result.Variants[0].GenderCode != "U" {
		t.Errorf("GenderCode = %q, want U", result.Variants[0].GenderCode)
	}
}

func TestValidateCSVNoValidRows(t *testing.T) {
	input := csvHeader + "XYZ-9000,M,NAV,Other,Navy,prompt\n"

	result, err := ValidateCSV(strings.NewReader(input), "CNC-P")
	if err != nil {
		t.Fatalf("ValidateCSV() error: %v", err)
	}

	if result.Valid {
		t.Error("expected invalid result when no rows match")
	}
}

func TestValidateCSVCollisionRejected(t *testing.T) {
	input := csvHeader +
		"CNC-P1000,M,NAV,Hoodie,Navy,prompt one\n" +
		"CNC-P10-00,M,NAV,Hoodie,Navy,prompt two\n"

	result, err := ValidateCSV(strings.NewReader(input), "CNC-P")
	if err != nil {
		t.Fatalf("ValidateCSV() error: %v", err)
	}

	if result.Valid {
		t.Error("expected invalid result for filename collision")
	}
}

func TestValidateCSVPreviewCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(csvHeader)
	sb.WriteString("CNC-P1000,M,NAV,Hoodie,Navy,p1\n")
	sb.WriteString("CNC-P1000,M,BLK,Hoodie,Black,p2\n")
	sb.WriteString("CNC-P2000,W,RED,Jacket,Red,p3\n")
	sb.WriteString("CNC-P3000,U,GRN,Cap,Green,p4\n")

	result, err := ValidateCSV(strings.NewReader(sb.String()), "CNC-P")
	if err != nil {
		t.Fatalf("ValidateCSV() error: %v", err)
	}

	if len(result.Preview) != 3 {
		t.Errorf("preview length = %d, want 3", len(result.Preview))
	}
	if result.RowCount != 4 {
		t.Errorf("RowCount = %d, want 4", result.RowCount)
	}
}
