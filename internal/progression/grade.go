package progression

// Grade is the letter band derived from an overall percentage score.
type Grade string

const (
	GradeNone Grade = ""
	GradeS    Grade = "S"
	GradeA    Grade = "A"
	GradeB    Grade = "B"
	GradeC    Grade = "C"
	GradeD    Grade = "D"
	GradeF    Grade = "F"
)

// GradeFor returns the grade band for a 0-100 score.
func GradeFor(score float64) Grade {
	switch {
	case score >= 95:
		return GradeS
	case score >= 80:
		return GradeA
	case score >= 65:
		return GradeB
	case score >= 50:
		return GradeC
	case score >= 30:
		return GradeD
	default:
		return GradeF
	}
}

// DisplayName returns a human-readable label for the grade.
func (g Grade) DisplayName() string {
	switch g {
	case GradeS:
		return "S (Flawless)"
	case GradeA:
		return "A (Excellent)"
	case GradeB:
		return "B (Solid)"
	case GradeC:
		return "C (Passing)"
	case GradeD:
		return "D (Shaky)"
	case GradeF:
		return "F (Failed)"
	default:
		return "-"
	}
}
