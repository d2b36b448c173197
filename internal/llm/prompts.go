package llm

import (
	"fmt"

	"reco-quiz-service/internal/domain"
)

func vignettePrompt(rec domain.Recommendation) string {
	return fmt.Sprintf(`ROLE
Tu es un générateur de vignettes cliniques pour médecins anesthésistes-réanimateurs.
Chaque vignette est un quiz évaluant l'adhésion à UNE recommandation précise.

RECOMMANDATION À UTILISER:
Thème: %s
Sujet: %s
Recommandation: %s

OBJECTIF
1. Rédiger un cas clinique (3 à 5 phrases) réaliste, pertinent, centré sur la recommandation.
2. Poser UNE seule question claire, directement liée au cas.
3. La réponse idéale DOIT correspondre exactement (ou strictement équivalente) à la recommandation fournie.

CONTRAINTES DE RÉDACTION
- Spécialité : anesthésie-réanimation, contexte hospitalier.
- 3 à 5 phrases maximum pour la vignette.
- Pas d'indices téléphonés ni de formulation révélant la recommandation.
- Une seule question fermée (attend une action précise), pas de QCM.
- Ne pas inclure la réponse dans la vignette ou la question.
- Style sobre, médical. Markdown simple.

FORMAT DE RÉPONSE:
VIGNETTE:
[Cas clinique ici]

QUESTION:
[Question ici]`, orUnspecified(rec.Theme), orUnspecified(rec.Topic), rec.Text)
}

func scoringPrompt(rec domain.Recommendation) string {
	return fmt.Sprintf(`Ta mission : noter la réponse d'un utilisateur sur une échelle ENTIER 0-5, en la comparant à la recommandation de référence.

RECOMMANDATION DE RÉFÉRENCE:
- Recommandation (gold standard) : %s
- Grade : %s
- Preuves (evidence) : %s

INSTRUCTIONS:
1. Compare la réponse de l'utilisateur avec la recommandation de référence.
2. N'attends pas de la réponse des éléments absents de la recommandation ou des preuves.
3. Attribue un score ENTIER de 0 à 5 (5 : réponse excellente et complète ; 3 : correcte mais incomplète ; 0 : incorrecte ou absente).
4. Fournis un feedback structuré et pédagogique (max. 150 mots), en vouvoiement, mentionnant le niveau GRADE et les preuves.

FORMAT DE RÉPONSE:
SCORE: [0-5]
FEEDBACK: [Feedback détaillé et pédagogique]`, rec.Text, orUnspecified(rec.Grade), rec.Evidence)
}

func educationalPrompt(rec domain.Recommendation, score int) string {
	return fmt.Sprintf(`Rédige un court paragraphe éducatif (max. 120 mots) destiné à un médecin ayant obtenu %d/20 sur cette question.

RECOMMANDATION: %s
GRADE: %s
PREUVES: %s
RÉFÉRENCES: %s

Explique la recommandation, le niveau de preuve et son application pratique. Ton professionnel et confraternel, en vouvoiement, Markdown simple.`,
		score, rec.Text, orUnspecified(rec.Grade), rec.Evidence, rec.References)
}

func orUnspecified(s string) string {
	if s == "" {
		return "Non spécifié"
	}
	return s
}
