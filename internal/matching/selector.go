package matching

import "github.com/lehigh-university-libraries/covermatch/internal/models"

// ScoredPair is the score of one rotation of the query against one candidate.
type ScoredPair struct {
	ID       models.BookID
	Rotation int
	Score    float64
}

// RotatedEmbedding is the embedding of the query at one rotation.
type RotatedEmbedding struct {
	Angle  int
	Vector models.Embedding
}

// Selection is the reduction of a full rotation x candidate scan.
type Selection struct {
	Best    ScoredPair
	HasBest bool
	// Scores holds every computed score, in scan order.
	Scores []float64
}

// SelectBest scores every query rotation against every candidate.
//
// Rotations are visited in the order given, candidates in store order, and
// the running best is only replaced by a strictly greater score, so the first
// maximal pair in scan order wins a tie. With no candidates the selection is
// empty and HasBest is false.
func SelectBest(queries []RotatedEmbedding, candidates []models.CandidateRecord, score ScoreFunc) Selection {
	sel := Selection{
		Scores: make([]float64, 0, len(queries)*len(candidates)),
	}

	for _, q := range queries {
		for _, c := range candidates {
			s := score(q.Vector, c.Vector)
			sel.Scores = append(sel.Scores, s)

			if !sel.HasBest || s > sel.Best.Score {
				sel.Best = ScoredPair{ID: c.ID, Rotation: q.Angle, Score: s}
				sel.HasBest = true
			}
		}
	}

	return sel
}
