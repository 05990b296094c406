package main

import (
	"testing"

	"github.com/hyase/cropbatch/internal/geometry"
)

func TestParseRect(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    geometry.Rect
		wantErr bool
	}{
		{"valid", "10,20,300,200", geometry.Rect{X: 10, Y: 20, W: 300, H: 200}, false},
		{"origin", "0,0,64,64", geometry.Rect{W: 64, H: 64}, false},
		{"empty flag", "", geometry.Rect{}, true},
		{"missing fields", "10,20", geometry.Rect{}, true},
		{"non-numeric", "a,b,c,d", geometry.Rect{}, true},
		{"zero size", "10,20,0,0", geometry.Rect{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRect(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRect(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseRect(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
