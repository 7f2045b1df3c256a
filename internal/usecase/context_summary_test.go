package usecase

import (
	"context"
	"strings"
	"testing"

	"conversation-agent/internal/domain/model"
)

func TestSummarize_ListsAllCategories(t *testing.T) {
	tr := testCatalog(t).For("de")
	out := NewContextSummarizer(statesOf(), nil).Summarize(context.Background(), tr)

	want := []string{
		"Geräte-Übersicht:",
		"- Lichter: 0 (davon 0 an)",
		"- Schalter: 0 (davon 0 an)",
		"- Sensoren: 0",
		"- Binärsensoren: 0",
		"- Klimageräte: 0",
		"- Cover/Jalousien: 0",
		"- Mediaplayer: 0",
		"- Kameras: 0",
		"- Szenen: 0",
		"- Automatisierungen: 0",
		"- Skripte: 0",
		"- Personen: 0",
		"- Zonen: 0",
		"",
		"Gesamt: 0 Entitäten",
	}
	if got := strings.Split(out, "\n"); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected report:\n%s", out)
	}
}

func TestSummarize_CountsAndOnStates(t *testing.T) {
	states := statesOf(
		"light.a", "on", "light.b", "on", "light.c", "off",
		"switch.fan", "on", "switch.pump", "unavailable",
		"sensor.t", "21", "person.anna", "home", "zone.home", "0",
		"update.core", "off", // not a listed category, still part of the total
	)
	out := NewContextSummarizer(states, nil).Summarize(context.Background(), testCatalog(t).For("de"))

	for _, line := range []string{
		"- Lichter: 3 (davon 2 an)",
		"- Schalter: 2 (davon 1 an)",
		"- Sensoren: 1",
		"- Personen: 1",
		"- Zonen: 1",
		"Gesamt: 9 Entitäten",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("report lacks %q:\n%s", line, out)
		}
	}
}

func TestSummarize_English(t *testing.T) {
	out := NewContextSummarizer(statesOf("light.a", "on"), nil).Summarize(context.Background(), testCatalog(t).For("en-GB"))
	if !strings.Contains(out, "- Lights: 1 (1 on)") || !strings.Contains(out, "Total: 1 entities") {
		t.Fatalf("unexpected english report:\n%s", out)
	}
}

func TestSummarize_FailureReturnsFallback(t *testing.T) {
	tr := testCatalog(t).For("de")
	if got := NewContextSummarizer(&fakeStates{err: errStateBoom}, nil).Summarize(context.Background(), tr); got != "Fehler beim Abrufen der Geräteinformationen." {
		t.Fatalf("got %q", got)
	}
	if got := NewContextSummarizer(nil, nil).Summarize(context.Background(), tr); got != tr.T("context_unavailable") {
		t.Fatalf("nil source: got %q", got)
	}
}

func TestContextSnapshot_OnCountsNeverExceedTotals(t *testing.T) {
	states := []model.EntityState{
		{Domain: "light", State: "on"}, {Domain: "light", State: "on"},
		{Domain: "switch", State: "off"}, {Domain: "sensor", State: "on"},
	}
	s := model.NewContextSnapshot(states)
	if s.LightsOn > s.Counts["light"] || s.SwitchesOn > s.Counts["switch"] {
		t.Fatalf("on counts exceed totals: %+v", s)
	}
	if s.LightsOn != 2 || s.SwitchesOn != 0 || s.Total != 4 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}
