package catalog

import "testing"

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		name string
		v    Variant
		want string
	}{
		{
			name: "strips hyphen from product number",
			v:    Variant{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "NAV"},
			want: "CNCP1000MNAV.jpg",
		},
		{
			name: "empty gender defaults to unisex",
			v:    Variant{ProductNumber: "CNC-P2000", ColorCode: "BLK"},
			want: "CNCP2000UBLK.jpg",
		},
		{
			name: "strips spaces and underscores",
			v:    Variant{ProductNumber: "CNC_P 3000", GenderCode: "W", ColorCode: "RED"},
			want: "CNCP3000WRED.jpg",
		},
		{
			name: "plain alnum passes through",
			v:    Variant{ProductNumber: "CNCP4000", GenderCode: "U", ColorCode: "GRN"},
			want: "CNCP4000UGRN.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveFilename(tt.v); got != tt.want {
				t.Errorf("DeriveFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveFilenameDeterministic(t *testing.T) {
	v := Variant{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "NAV"}
	first := DeriveFilename(v)
	for i := 0; i < 5; i++ {
		if got := DeriveFilename(v); got != first {
			t.Fatalf("DeriveFilename() not deterministic: %q vs %q", got, first)
		}
	}
}

func TestCheckCollisions(t *testing.T) {
	ok := []Variant{
		{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "NAV"},
		{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "BLK"},
		{ProductNumber: "CNC-P1000", GenderCode: "W", ColorCode: "NAV"},
	}
	if err := CheckCollisions(ok); err != nil {
		t.Errorf("CheckCollisions() unexpected error: %v", err)
	}

	// 하이픈 제거 후 같은 파일명이 되는 두 variant
	colliding := []Variant{
		{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "NAV"},
		{ProductNumber: "CNCP1000", GenderCode: "M", ColorCode: "NAV"},
	}
	if err := CheckCollisions(colliding); err == nil {
		t.Error("CheckCollisions() expected error for colliding variants, got nil")
	}
}
