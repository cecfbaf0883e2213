package tier

import "testing"

func TestClassifyDefaultWidth(t *testing.T) {
	c := NewClassifier(0.5)

	cases := []struct {
		name string
		pct  float64
		want Tier
		ok   bool
	}{
		{"big pump", 2.0, BigPump, true},
		{"big pump boundary excluded", 1.5, SmallPump, true},
		{"small pump upper", 1.5, SmallPump, true},
		{"small pump lower", 0.5, SmallPump, true},
		{"stagnate below small pump", 0.49, Stagnate, true},
		{"flat", 0.0, Stagnate, true},
		{"stagnate negative edge", -0.49, Stagnate, true},
		{"small dump upper", -0.5, SmallDump, true},
		{"small dump lower", -1.5, SmallDump, true},
		{"big dump", -1.51, BigDump, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := c.Classify(tc.pct)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("Classify(%v) = (%q, %v), want (%q, %v)", tc.pct, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestClassifyNarrowWidthLeavesGap(t *testing.T) {
	c := NewClassifier(0.2)

	// dentro da faixa estreita
	if got, ok := c.Classify(0.0); !ok || got != Stagnate {
		t.Fatalf("Classify(0) = (%q, %v), want stagnate", got, ok)
	}
	if got, ok := c.Classify(0.19); !ok || got != Stagnate {
		t.Fatalf("Classify(0.19) = (%q, %v), want stagnate", got, ok)
	}

	// intervalo descoberto [0.2, 0.5): nenhuma faixa, rodada vira rollover
	for _, pct := range []float64{0.2, 0.3, 0.49, -0.2, -0.3, -0.49} {
		if got, ok := c.Classify(pct); ok {
			t.Fatalf("Classify(%v) = %q, want no tier", pct, got)
		}
	}
}

// Varredura: com meia-largura 0.5 as cinco faixas cobrem a reta inteira.
func TestClassifyFullCoverageAtDefaultWidth(t *testing.T) {
	c := NewClassifier(0.5)
	for pct := -5.0; pct <= 5.0; pct += 0.01 {
		if _, ok := c.Classify(pct); !ok {
			t.Fatalf("Classify(%v): no tier with width 0.5", pct)
		}
	}
}

func TestPctChange(t *testing.T) {
	if got := PctChange(100, 101); got != 1.0 {
		t.Fatalf("PctChange(100, 101) = %v, want 1", got)
	}
	if got := PctChange(200, 190); got != -5.0 {
		t.Fatalf("PctChange(200, 190) = %v, want -5", got)
	}
}

func TestValid(t *testing.T) {
	for _, tr := range All {
		if !Valid(string(tr)) {
			t.Fatalf("Valid(%q) = false", tr)
		}
	}
	if Valid("sideways") {
		t.Fatal("Valid(sideways) = true")
	}
}
