package match

import "testing"

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusScheduled, StatusFinished) {
		t.Fatalf("expected scheduled -> finished to be allowed")
	}
	for _, tc := range [][2]Status{
		{StatusFinished, StatusScheduled},
		{StatusFinished, StatusFinished},
		{StatusScheduled, StatusScheduled},
	} {
		if CanTransition(tc[0], tc[1]) {
			t.Fatalf("expected %s -> %s to be rejected", tc[0], tc[1])
		}
	}
}

func TestParseStatus(t *testing.T) {
	if ParseStatus(" Finished ") != StatusFinished {
		t.Fatalf("expected finished")
	}
	if ParseStatus("") != StatusScheduled || ParseStatus("postponed") != StatusScheduled {
		t.Fatalf("expected unknown statuses to default to scheduled")
	}
}
