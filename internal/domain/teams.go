package domain

// QuestionsPerQuiz is the default number of questions in one personal quiz run.
const QuestionsPerQuiz = 5

// TeamList enumerates the CHU cities selectable as teams.
var TeamList = []string{
	"Amiens",
	"Angers",
	"Besançon",
	"Bordeaux",
	"Brest",
	"Caen",
	"Clermont-Ferrand",
	"Dijon",
	"Grenoble",
	"Lille",
	"Limoges",
	"Lyon",
	"Marseille",
	"Montpellier",
	"Nancy",
	"Nantes",
	"Nice",
	"Paris",
	"Poitiers",
	"Reims",
	"Rennes",
	"Rouen",
	"Saint-Étienne",
	"Strasbourg",
	"Toulouse",
	"Tours",
}

// ValidTeam reports whether name is part of the contest team list.
func ValidTeam(name string) bool {
	for _, t := range TeamList {
		if t == name {
			return true
		}
	}
	return false
}

// ScoreLabel maps a 0..20 quiz total to its verbal grade.
func ScoreLabel(score int) string {
	switch {
	case score >= 18:
		return "excellent"
	case score >= 15:
		return "très bien"
	case score >= 12:
		return "bien"
	case score >= 8:
		return "moyen"
	default:
		return "insuffisant"
	}
}
