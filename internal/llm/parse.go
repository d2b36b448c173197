package llm

import (
	"fmt"
	"strconv"
	"strings"
)

// parseVignette splits a completion into its VIGNETTE and QUESTION sections.
func parseVignette(response string) (vignette, question string, err error) {
	parts := strings.SplitN(response, "QUESTION:", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed vignette response")
	}
	vignette = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), "VIGNETTE:"))
	question = strings.TrimSpace(parts[1])
	if vignette == "" || question == "" {
		return "", "", fmt.Errorf("empty vignette or question")
	}
	return vignette, question, nil
}

// parseEvaluation extracts the SCORE and FEEDBACK sections. A response that
// does not follow the format still yields usable feedback: the whole text is
// returned with the neutral mid score.
func parseEvaluation(response string) (score int, feedback string) {
	score = defaultScore

	if _, after, found := strings.Cut(response, "SCORE:"); found {
		raw := after
		if before, _, ok := strings.Cut(raw, "FEEDBACK:"); ok {
			raw = before
		}
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 0 && n <= 5 {
			score = n
		}
	}
	if _, after, found := strings.Cut(response, "FEEDBACK:"); found {
		feedback = strings.TrimSpace(after)
	}
	if feedback == "" {
		feedback = strings.TrimSpace(response)
	}
	if feedback == "" {
		feedback = "Réponse évaluée. Veuillez consulter le contenu éducatif pour plus de détails."
	}
	return score, feedback
}

// defaultScore is used when the evaluator's response cannot be parsed.
const defaultScore = 2
