package categories

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Pães & Doces":      "paes-doces",
		"  Bolos de Festa ": "bolos-de-festa",
		"Açaí":              "acai",
		"--já--":            "ja",
		"Kit 10 unidades":   "kit-10-unidades",
		"!!!":               "",
		"CAFÉ_DA_MANHÃ":     "cafe-da-manha",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
