package fixture

import "testing"

func TestFixture_Result(t *testing.T) {
	home, away := 2, 1

	finished := Fixture{Status: "FT", HomeScore: &home, AwayScore: &away}
	h, a, ok := finished.Result()
	if !ok || h != 2 || a != 1 {
		t.Fatalf("unexpected result: home=%d away=%d ok=%t", h, a, ok)
	}

	partial := Fixture{Status: StatusFinished, HomeScore: &home}
	if partial.HasResult() {
		t.Fatalf("fixture with a null away score must not carry a result")
	}

	live := Fixture{Status: StatusInPlay, HomeScore: &home, AwayScore: &away}
	if live.HasResult() {
		t.Fatalf("live fixture must not carry a result")
	}

	awarded := Fixture{Status: StatusAwarded, HomeScore: &home, AwayScore: &away}
	if !awarded.HasResult() {
		t.Fatalf("awarded fixture with scores must carry a result")
	}
}

func TestFixture_EffectiveMultiplier(t *testing.T) {
	if got := (Fixture{}).EffectiveMultiplier(); got != 1 {
		t.Fatalf("unexpected default multiplier: got=%d want=1", got)
	}
	if got := (Fixture{Multiplier: 2}).EffectiveMultiplier(); got != 2 {
		t.Fatalf("unexpected multiplier: got=%d want=2", got)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"":          StatusScheduled,
		"ft":        StatusFinished,
		" HT ":      StatusPaused,
		"LIVE":      StatusInPlay,
		"abandoned": StatusCancelled,
		"AWARDED":   StatusAwarded,
	}
	for in, want := range cases {
		if got := NormalizeStatus(in); got != want {
			t.Fatalf("NormalizeStatus(%q): got=%s want=%s", in, got, want)
		}
	}
	if IsKnownStatus("WHATEVER") {
		t.Fatalf("unexpected known status")
	}
}

func TestStatusGroups(t *testing.T) {
	for _, status := range []string{"LIVE", "ht", StatusInPlay} {
		if !IsLiveStatus(status) {
			t.Fatalf("expected %q to be live", status)
		}
	}
	for _, status := range []string{StatusFinished, StatusScheduled, StatusPostponed} {
		if IsLiveStatus(status) {
			t.Fatalf("expected %q not to be live", status)
		}
	}
	for _, status := range []string{"abandoned", StatusPostponed, StatusSuspended} {
		if !IsCancelledLikeStatus(status) {
			t.Fatalf("expected %q to be cancelled-like", status)
		}
	}
	if IsCancelledLikeStatus(StatusFinished) || IsCancelledLikeStatus(StatusPaused) {
		t.Fatalf("finished and paused fixtures are not cancelled-like")
	}
}
