package widgets

import (
	"strings"
	"testing"
)

func TestRenderPadRowGroups(t *testing.T) {
	pads := make([]Pad, 8)
	for i := range pads {
		pads[i] = Pad{Color: [3]uint8{255, 0, 0}, Symbol: '●'}
	}
	out := RenderPadRow(pads, 4)
	if n := strings.Count(out, "●"); n != 8 {
		t.Fatalf("rendered %d pads; want 8: %q", n, out)
	}
	if n := strings.Count(out, "  "); n != 1 {
		t.Fatalf("found %d group gaps; want 1: %q", n, out)
	}
}

func TestRenderKeyHelp(t *testing.T) {
	got := RenderKeyHelp([]KeySection{{
		Title: "keys",
		Keys:  []KeyBinding{{Key: "r", Desc: "toggle record"}},
	}})
	want := "keys\n  r            toggle record"
	if got != want {
		t.Fatalf("RenderKeyHelp = %q; want %q", got, want)
	}
}

func TestRGBToHex(t *testing.T) {
	if got := rgbToHex([3]uint8{13, 8, 135}); got != "#0d0887" {
		t.Fatalf("rgbToHex = %q", got)
	}
}
