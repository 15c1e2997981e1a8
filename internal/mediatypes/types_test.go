package mediatypes

import "testing"

func TestFamilyForExt(t *testing.T) {
	tests := []struct {
		ext  string
		want FormatFamily
	}{
		{".jpg", FamilyRaster},
		{".jpeg", FamilyRaster},
		{".png", FamilyRaster},
		{".heic", FamilyRaster},
		{".webp", FamilyRaster},
		{".cr2", FamilyRaw},
		{".cr3", FamilyRaw},
		{".nef", FamilyRaw},
		{".arw", FamilyRaw},
		{".dng", FamilyRaw},
		{".mp4", FamilyVideo},
		{".mov", FamilyVideo},
		{".mkv", FamilyVideo},
		{".txt", FamilyOther},
		{".pdf", FamilyOther},
		{"", FamilyOther},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := FamilyForExt(tt.ext); got != tt.want {
				t.Errorf("FamilyForExt(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestDecoderAutoOrients(t *testing.T) {
	tests := []struct {
		family FormatFamily
		want   bool
	}{
		{FamilyRaster, true},
		{FamilyVideo, true},
		{FamilyRaw, false},
		{FamilyOther, false},
	}

	for _, tt := range tests {
		if got := DecoderAutoOrients(tt.family); got != tt.want {
			t.Errorf("DecoderAutoOrients(%q) = %v, want %v", tt.family, got, tt.want)
		}
	}
}

func TestRewritable(t *testing.T) {
	tests := []struct {
		family FormatFamily
		want   bool
	}{
		{FamilyRaster, true},
		{FamilyVideo, true},
		{FamilyRaw, false},
		{FamilyOther, false},
	}

	for _, tt := range tests {
		if got := Rewritable(tt.family); got != tt.want {
			t.Errorf("Rewritable(%q) = %v, want %v", tt.family, got, tt.want)
		}
	}
}

func TestIsEnrichable(t *testing.T) {
	enrichable := []string{".jpg", ".cr2", ".mp4", ".heic", ".dng"}
	for _, ext := range enrichable {
		if !IsEnrichable(ext) {
			t.Errorf("Expected %q to be enrichable", ext)
		}
	}

	notEnrichable := []string{".txt", ".db", ".json", ""}
	for _, ext := range notEnrichable {
		if IsEnrichable(ext) {
			t.Errorf("Expected %q not to be enrichable", ext)
		}
	}
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".jpg", "image/jpeg"},
		{".png", "image/png"},
		{".cr2", "image/x-canon-cr2"},
		{".mp4", "video/mp4"},
		{".unknown", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := GetMimeType(tt.ext); got != tt.want {
			t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestRawNeverRewritable(t *testing.T) {
	for ext := range RawExtensions {
		if Rewritable(FamilyForExt(ext)) {
			t.Errorf("RAW extension %q must not be rewritable", ext)
		}
	}
}
