package exiftool

import "testing"

func TestFieldsString(t *testing.T) {
	f := Fields{
		"Make":     "Canon",
		"Padded":   "  Nikon  ",
		"Nulls":    "SONY\x00\x00",
		"Empty":    "",
		"Numeric":  float64(42),
		"Bool":     true,
	}

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"Make", "Canon", true},
		{"Padded", "Nikon", true},
		{"Nulls", "SONY", true},
		{"Empty", "", false},
		{"Numeric", "42", true},
		{"Bool", "", false},
		{"Missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := f.String(tt.key)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("String(%q) = (%q, %v), want (%q, %v)", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFieldsFloat(t *testing.T) {
	f := Fields{
		"FNumber":  float64(2.8),
		"AsString": "1.4",
		"Padded":   " 5.6 ",
		"Garbage":  "wide open",
		"Bool":     false,
	}

	tests := []struct {
		key    string
		want   float64
		wantOK bool
	}{
		{"FNumber", 2.8, true},
		{"AsString", 1.4, true},
		{"Padded", 5.6, true},
		{"Garbage", 0, false},
		{"Bool", 0, false},
		{"Missing", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := f.Float(tt.key)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Float(%q) = (%v, %v), want (%v, %v)", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFieldsInt(t *testing.T) {
	f := Fields{
		"ISO":      float64(400),
		"Truncate": float64(6.9),
		"AsString": "800",
	}

	if v, ok := f.Int("ISO"); !ok || v != 400 {
		t.Errorf("Int(ISO) = (%d, %v), want (400, true)", v, ok)
	}
	if v, ok := f.Int("Truncate"); !ok || v != 6 {
		t.Errorf("Int(Truncate) = (%d, %v), want (6, true)", v, ok)
	}
	if v, ok := f.Int("AsString"); !ok || v != 800 {
		t.Errorf("Int(AsString) = (%d, %v), want (800, true)", v, ok)
	}
	if _, ok := f.Int("Missing"); ok {
		t.Error("Expected missing key to report not ok")
	}
}
