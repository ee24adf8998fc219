package insight

import (
	"strings"
	"testing"
)

func TestParseLabeledSections(t *testing.T) {
	output := `KEY POINTS:
- Mitochondria produce ATP
- Cristae increase surface area

DEFINITIONS / FORMULAS:
- ATP: adenosine triphosphate

RECAP:
The cell's energy factory.`

	got := Parse(output)

	if len(got.KeyPoints) != 2 {
		t.Fatalf("KeyPoints = %v, want 2", got.KeyPoints)
	}
	if got.KeyPoints[0] != "Mitochondria produce ATP" {
		t.Errorf("first point = %q", got.KeyPoints[0])
	}
	if len(got.Definitions) != 1 || got.Definitions[0] != "ATP: adenosine triphosphate" {
		t.Errorf("Definitions = %v", got.Definitions)
	}
	if got.Recap != "The cell's energy factory." {
		t.Errorf("Recap = %q", got.Recap)
	}
}

func TestParsePartialSections(t *testing.T) {
	got := Parse("KEY POINTS:\n- only one thing\n")
	if len(got.KeyPoints) != 1 || len(got.Definitions) != 0 || got.Recap != "" {
		t.Errorf("got %+v, want single key point", got)
	}
}

func TestParseFallbackBulletScan(t *testing.T) {
	output := `Here are some thoughts:
- first point
* second point
• third point
- fourth point
- fifth point
- sixth point`

	got := Parse(output)
	if len(got.KeyPoints) != 5 {
		t.Errorf("fallback points = %d, want capped at 5", len(got.KeyPoints))
	}
	if got.KeyPoints[0] != "first point" {
		t.Errorf("first = %q", got.KeyPoints[0])
	}
}

func TestParseBulletScanRunsWhenLabelsYieldNoPoints(t *testing.T) {
	output := `- entropy always increases
- heat flows from hot to cold

RECAP:
The second law in two sentences.`

	got := Parse(output)
	if len(got.KeyPoints) != 2 {
		t.Fatalf("KeyPoints = %v, want the 2 unlabeled bullets", got.KeyPoints)
	}
	if got.KeyPoints[0] != "entropy always increases" {
		t.Errorf("first point = %q", got.KeyPoints[0])
	}
	if got.Recap != "The second law in two sentences." {
		t.Errorf("Recap = %q", got.Recap)
	}
}

func TestParseNothingUseful(t *testing.T) {
	got := Parse("just prose with no bullets or labels")
	if !got.Empty() {
		t.Errorf("got %+v, want empty", got)
	}
}

func TestParseCaseInsensitiveLabels(t *testing.T) {
	got := Parse("key points:\n- lowered label\n")
	if len(got.KeyPoints) != 1 {
		t.Errorf("KeyPoints = %v, want 1", got.KeyPoints)
	}
}

func TestParseMultiLineRecap(t *testing.T) {
	got := Parse("RECAP:\nfirst line\nsecond line")
	if !strings.Contains(got.Recap, "first line") || !strings.Contains(got.Recap, "second line") {
		t.Errorf("Recap = %q", got.Recap)
	}
}
