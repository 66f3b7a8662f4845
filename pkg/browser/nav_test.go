package browser

import (
	"reflect"
	"testing"
)

func TestResolveSequenceDedupes(t *testing.T) {
	seq := ResolveSequence([]string{"a", "b", "a", "", "c", "b"}, "")
	expected := []string{"a", "b", "c"}
	if !reflect.DeepEqual(seq.Ids(), expected) {
		t.Errorf("Expected %v, got %v", expected, seq.Ids())
	}
	if seq.Pos() != -1 {
		t.Errorf("Expected pos -1, got %d", seq.Pos())
	}
}

func TestResolveSequencePrependsSingleId(t *testing.T) {
	seq := ResolveSequence([]string{"b", "c"}, "a")
	expected := []string{"a", "b", "c"}
	if !reflect.DeepEqual(seq.Ids(), expected) {
		t.Errorf("Expected %v, got %v", expected, seq.Ids())
	}

	seq = ResolveSequence([]string{"b", "c"}, "c")
	expected = []string{"b", "c"}
	if !reflect.DeepEqual(seq.Ids(), expected) {
		t.Errorf("Expected %v, got %v", expected, seq.Ids())
	}
}

func TestStepClampsAtBothEnds(t *testing.T) {
	seq := ResolveSequence([]string{"a", "b", "c"}, "")
	if got := seq.JumpTo("b"); got != 1 {
		t.Fatalf("Expected pos 1, got %d", got)
	}
	if got := seq.StepPrev(); got != "a" {
		t.Errorf("Expected a, got %s", got)
	}
	if got := seq.StepPrev(); got != "a" {
		t.Errorf("Expected prev at start to stay on a, got %s", got)
	}
	if got := seq.StepNext(); got != "b" {
		t.Errorf("Expected b, got %s", got)
	}
	if got := seq.StepNext(); got != "c" {
		t.Errorf("Expected c, got %s", got)
	}
	if got := seq.StepNext(); got != "c" {
		t.Errorf("Expected next at end to stay on c, got %s", got)
	}
}

func TestJumpToUnknownIdDisablesStepping(t *testing.T) {
	seq := ResolveSequence([]string{"a", "b"}, "")
	if got := seq.JumpTo("z"); got != -1 {
		t.Fatalf("Expected -1, got %d", got)
	}
	if got := seq.StepPrev(); got != "" {
		t.Errorf("Expected no movement, got %s", got)
	}
	if got := seq.StepNext(); got != "" {
		t.Errorf("Expected no movement, got %s", got)
	}
}

func TestAppNavState(t *testing.T) {
	app, _, _ := newTestApp(t, 0)
	app.ResolveNavigation([]string{"a", "b", "c"}, "")

	state, known := app.JumpTo("a")
	if known {
		t.Errorf("Expected id unknown to the empty session")
	}
	if state.Pos != 0 || state.HasPrev || !state.HasNext {
		t.Errorf("Expected pos 0 with next only, got %+v", state)
	}

	state = app.StepNext()
	if state.Current != "b" || !state.HasPrev || !state.HasNext {
		t.Errorf("Expected b with both directions, got %+v", state)
	}

	state = app.StepNext()
	if state.Current != "c" || state.HasNext {
		t.Errorf("Expected c at the end, got %+v", state)
	}
}
