package insight

import "strings"

const maxFallbackBullets = 5

// Parse reads the model's labeled sections into an Insight. When no key
// points come out of the labels, a bullet scan over the whole output fills
// them in, capped at five points.
func Parse(s string) Insight {
	var out Insight
	section := ""

	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case matchLabel(line, "KEY POINTS"):
			section = "points"
			continue
		case matchLabel(line, "DEFINITIONS / FORMULAS"), matchLabel(line, "DEFINITIONS"):
			section = "definitions"
			continue
		case matchLabel(line, "RECAP"):
			section = "recap"
			continue
		}

		switch section {
		case "points":
			if b := stripBullet(line); b != "" {
				out.KeyPoints = append(out.KeyPoints, b)
			}
		case "definitions":
			if b := stripBullet(line); b != "" {
				out.Definitions = append(out.Definitions, b)
			}
		case "recap":
			if out.Recap != "" {
				out.Recap += " "
			}
			out.Recap += stripBullet(line)
		}
	}

	if len(out.KeyPoints) == 0 {
		out.KeyPoints = fallbackScan(s)
	}
	return out
}

// fallbackScan collects any dash or asterisk bullets, wherever they appear.
func fallbackScan(s string) []string {
	var points []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "•") {
			continue
		}
		if b := stripBullet(line); b != "" {
			points = append(points, b)
			if len(points) == maxFallbackBullets {
				break
			}
		}
	}
	return points
}

func matchLabel(line, label string) bool {
	upper := strings.ToUpper(line)
	return upper == label+":" || strings.HasPrefix(upper, label+":")
}

func stripBullet(line string) string {
	line = strings.TrimSpace(line)
	for _, prefix := range []string{"- ", "* ", "• ", "-", "*", "•"} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return line
}
