package extract

import (
	"reflect"
	"testing"
)

func TestMarkers_BasicExtraction(t *testing.T) {
	prose := "Remote work boosts productivity [1]. Several studies disagree [2], " +
		"though the effect size is contested [1][3]."

	markers := Markers(prose)

	want := []int{1, 2, 3}
	if !reflect.DeepEqual(markers, want) {
		t.Errorf("Expected markers %v, got %v", want, markers)
	}
}

func TestMarkers_NoMarkers(t *testing.T) {
	if got := Markers("No citations here at all."); got != nil {
		t.Errorf("Expected nil for prose without markers, got %v", got)
	}
}

func TestMarkers_IgnoresZeroAndNonNumeric(t *testing.T) {
	prose := "Bad markers [0] and [abc] and [12a] should not count, but [4] should."

	markers := Markers(prose)

	want := []int{4}
	if !reflect.DeepEqual(markers, want) {
		t.Errorf("Expected markers %v, got %v", want, markers)
	}
}

func TestMarkers_PreservesFirstAppearanceOrder(t *testing.T) {
	prose := "Later source first [3], then earlier [1], repeated [3]."

	markers := Markers(prose)

	want := []int{3, 1}
	if !reflect.DeepEqual(markers, want) {
		t.Errorf("Expected markers %v, got %v", want, markers)
	}
}

func TestTitle_Extraction(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "simple title",
			html: `<html><head><title>Remote Work Study</title></head><body></body></html>`,
			want: "Remote Work Study",
		},
		{
			name: "whitespace collapsed",
			html: "<html><head><title>\n  Spaced\t Out \n Title </title></head></html>",
			want: "Spaced Out Title",
		},
		{
			name: "no title",
			html: `<html><body><p>nothing</p></body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.html); got != tt.want {
				t.Errorf("Expected title %q, got %q", tt.want, got)
			}
		})
	}
}
