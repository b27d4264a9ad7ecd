package theme

import (
	"os"
	"path/filepath"
	"testing"
)

const samplePalette = `GIMP Palette
Name: Two Tone
Columns: 2
#
  0   0   0	black
200 100  50	rust
`

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.gpl")
	if err := os.WriteFile(path, []byte(samplePalette), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadGPL(path)
	if err != nil {
		t.Fatalf("LoadGPL: %v", err)
	}
	if p.Name != "Two Tone" || len(p.Colors) != 2 {
		t.Fatalf("palette = %+v", p)
	}
	if p.Colors[1] != (RGB{200, 100, 50}) {
		t.Fatalf("second color = %v", p.Colors[1])
	}
	if got := p.Lookup(0.5); got != (RGB{100, 50, 25}) {
		t.Fatalf("Lookup(0.5) = %v", got)
	}
	if p.Lookup(-1) != p.Colors[0] || p.Lookup(2) != p.Colors[1] {
		t.Fatal("Lookup does not clamp")
	}
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	if err != nil || p.Name != "plasma" {
		t.Fatalf("LoadOrDefault(\"\") = %+v, %v", p, err)
	}

	p, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl"))
	if err == nil {
		t.Fatal("missing palette reported no error")
	}
	if p == nil || p.Name != "plasma" {
		t.Fatalf("fallback palette = %+v", p)
	}
}

func TestLoadGPLEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gpl")
	if err := os.WriteFile(path, []byte("GIMP Palette\nName: Empty\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGPL(path); err == nil {
		t.Fatal("palette without colors accepted")
	}
}

func TestRolesSpanPalette(t *testing.T) {
	roles := []float64{RoleBG, RoleSurface, RoleMuted, RoleFG, RoleAccent, RoleActive, RoleWarning, RoleSuccess}
	for i := 1; i < len(roles); i++ {
		if roles[i] <= roles[i-1] {
			t.Fatalf("role %d (%v) not above role %d (%v)", i, roles[i], i-1, roles[i-1])
		}
	}
	if roles[0] != 0 || roles[len(roles)-1] != 1 {
		t.Fatalf("roles span %v..%v; want 0..1", roles[0], roles[len(roles)-1])
	}

	th := New(Default())
	if th.RGB(RoleActive) == th.RGB(RoleSuccess) {
		t.Fatal("recording and playing share a color")
	}
}
