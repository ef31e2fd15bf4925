package analyzer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tok := NewTokenizer(false)

	got := tok.Tokenize("Hello, Godot-world! fn main(){}")
	want := []string{"hello", "godot", "world", "fn", "main"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeDropsShortTokens(t *testing.T) {
	tok := NewTokenizer(false)

	got := tok.Tokenize("a b cd")
	want := []string{"cd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeStopwords(t *testing.T) {
	tok := NewTokenizer(true)

	got := tok.Tokenize("the scene and the signal")
	want := []string{"scene", "signal"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeUnderscoreIdentifiers(t *testing.T) {
	tok := NewTokenizer(false)

	got := tok.Tokenize("scene_validator calls _ready")
	want := []string{"scene_validator", "calls", "_ready"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTermFrequencies(t *testing.T) {
	tok := NewTokenizer(false)

	tf := tok.TermFrequencies("godot godot scene")
	if tf["godot"] != 2 {
		t.Errorf("tf[godot] = %d, want 2", tf["godot"])
	}
	if tf["scene"] != 1 {
		t.Errorf("tf[scene] = %d, want 1", tf["scene"])
	}
}
