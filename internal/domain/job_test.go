package domain

import "testing"

func TestStepTransitions(t *testing.T) {
	allowed := map[[2]Step]bool{
		{StepCollectingStyles, StepRunning}:   true,
		{StepCollectingStyles, StepCompleted}: true,
		{StepCollectingStyles, StepError}:     true,
		{StepRunning, StepCompleted}:          true,
		{StepRunning, StepError}:              true,
	}
	steps := []Step{StepCollectingStyles, StepRunning, StepCompleted, StepError}
	for _, from := range steps {
		for _, to := range steps {
			want := allowed[[2]Step{from, to}]
			if got := from.CanTransition(to); got != want {
				t.Fatalf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTransitionRejectsRegression(t *testing.T) {
	chat := NewChat(1)
	rec := NewJobRecord(chat, "content", true, 1, 1)
	if err := rec.Transition(StepRunning); err != nil {
		t.Fatalf("collecting -> running: %v", err)
	}
	if err := rec.Transition(StepCollectingStyles); err != ErrInvalidTransition {
		t.Fatalf("running -> collecting should fail, got %v", err)
	}
	if err := rec.Transition(StepCompleted); err != nil {
		t.Fatalf("running -> completed: %v", err)
	}
	if err := rec.Transition(StepError); err != ErrInvalidTransition {
		t.Fatalf("completed is terminal, got %v", err)
	}
}

func TestParametersSnapshotIsIsolated(t *testing.T) {
	chat := NewChat(1)
	rec := NewJobRecord(chat, "content", true, 1, 1)

	chat.DefaultParameters.NumIter = 9
	chat.DefaultParameters.StyleCount = 3

	if rec.Parameters.NumIter != 5 || rec.Parameters.StyleCount != 1 {
		t.Fatalf("record snapshot changed with chat defaults: %+v", rec.Parameters)
	}
}

func TestStylesComplete(t *testing.T) {
	chat := NewChat(1)
	chat.DefaultParameters.StyleCount = 2
	rec := NewJobRecord(chat, "content", true, 1, 1)

	if rec.StylesComplete() {
		t.Fatalf("empty style set reported complete")
	}
	rec.StyleAssets = []string{"a"}
	if rec.StylesComplete() {
		t.Fatalf("one of two styles reported complete")
	}
	rec.StyleAssets = append(rec.StyleAssets, "b")
	if !rec.StylesComplete() {
		t.Fatalf("full style set reported incomplete")
	}
}

func TestSetLanguageTruncatesAndIgnoresEmpty(t *testing.T) {
	chat := NewChat(1)
	chat.SetLanguage("ru-RU")
	if chat.Language != "ru" {
		t.Fatalf("language = %q, want ru", chat.Language)
	}
	chat.SetLanguage("")
	if chat.Language != "ru" {
		t.Fatalf("empty code must not reset language, got %q", chat.Language)
	}
}
