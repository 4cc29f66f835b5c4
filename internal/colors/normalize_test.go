package colors

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Navy", "navy"},
		{"dark blue", "navy"},
		{"  GREY ", "gray"},
		{"khaki", "beige"},
		{"wine", "burgundy"},
		{"Off-White", "white"},
		{"chartreuse", "chartreuse"}, // unknown passes through folded
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeAll_DedupesAndDropsEmpty(t *testing.T) {
	got := NormalizeAll([]string{"Navy", "dark blue", "", "grey", "Gray"})
	want := []string{"navy", "gray"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		garment, needle string
		want            bool
	}{
		{"navy", "dark blue", true},
		{"navy blue stripe", "navy", true},
		{"red", "Red", true},
		{"white", "black", false},
		{"", "red", false},
		{"red", "", false},
	}
	for _, tc := range cases {
		if got := Matches(tc.garment, tc.needle); got != tc.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tc.garment, tc.needle, got, tc.want)
		}
	}
}

func TestMatchesAny(t *testing.T) {
	if !MatchesAny("dark blue", []string{"red", "navy"}) {
		t.Error("expected dark blue to match navy via synonym fold")
	}
	if MatchesAny("white", []string{"red", "navy"}) {
		t.Error("white should not match")
	}
}

func TestPalette(t *testing.T) {
	if p := Palette(SeasonWinter); len(p) == 0 {
		t.Fatal("winter palette should not be empty")
	}
	if p := Palette(Season("unknown")); p != nil {
		t.Errorf("unknown season palette = %v, want nil", p)
	}

	// Returned slice is a copy; mutating it must not poison the table.
	p := Palette(SeasonSummer)
	p[0] = "mutated"
	if Palette(SeasonSummer)[0] == "mutated" {
		t.Error("Palette returned the internal slice, not a copy")
	}
}

func TestKnownSeason(t *testing.T) {
	for _, s := range []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter, SeasonCool, SeasonWarm} {
		if !KnownSeason(s) {
			t.Errorf("KnownSeason(%q) = false", s)
		}
	}
	if KnownSeason("monsoon") {
		t.Error("KnownSeason(monsoon) = true, want false")
	}
}
