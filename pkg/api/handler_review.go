package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alif-engine/core/pkg/dispatch"
	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/services"
)

const defaultSessionLimit = 20

func (s *Server) nextSentencesHandler(c *gin.Context) {
	s.buildSession(c, models.ReviewModeReading)
}

func (s *Server) nextListeningHandler(c *gin.Context) {
	s.buildSession(c, models.ReviewModeListening)
}

// buildSession implements next-sentences and next-listening, which differ
// only in the review mode they assemble a session for. prefetch is accepted
// for API-surface parity with the client's prefetching behavior but does
// not change server-side semantics: BuildSession always records provisional
// shown state for whatever it returns.
func (s *Server) buildSession(c *gin.Context, mode models.ReviewMode) {
	limit := defaultSessionLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	sess, err := s.selector.BuildSession(c.Request.Context(), limit, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

func (s *Server) submitSentenceHandler(c *gin.Context) {
	var req submitSentenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := s.dispatch.SubmitSentenceReview(c.Request.Context(), toReviewInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubmitSentenceResponse(out))
}

func toReviewInput(req submitSentenceRequest) dispatch.ReviewInput {
	return dispatch.ReviewInput{
		SentenceID:          req.SentenceID,
		PrimaryLemmaID:      req.PrimaryLemmaID,
		ComprehensionSignal: dispatch.ComprehensionSignal(req.ComprehensionSignal),
		MissedLemmaIDs:      req.MissedLemmaIDs,
		ConfusedFeatureIDs:  req.ConfusedLemmaIDs,
		ResponseMs:          req.ResponseMs,
		SessionID:           req.SessionID,
		ReviewMode:          models.ReviewMode(req.ReviewMode),
		ClientReviewID:      req.ClientReviewID,
	}
}

// syncHandler replays a batch of offline submit-sentence payloads. Each
// review is dispatched independently; a failure in one does not prevent
// the rest from applying, mirroring offline queues where reviews were
// recorded out of network order and must each resolve on their own merits.
func (s *Server) syncHandler(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := make([]SyncItemResult, 0, len(req.Reviews))
	for _, item := range req.Reviews {
		out, err := s.dispatch.SubmitSentenceReview(c.Request.Context(), toReviewInput(item))
		if err != nil {
			results = append(results, SyncItemResult{
				ClientReviewID: item.ClientReviewID,
				Status:         "error",
				Error:          err.Error(),
			})
			continue
		}
		results = append(results, SyncItemResult{
			ClientReviewID: item.ClientReviewID,
			Status:         "ok",
			Result:         toSubmitSentenceResponse(out),
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// reintroResultHandler records the outcome of a rich re-introduction card:
// "remember" rates the lemma a 3 (treated as understood), "show_again"
// rates it a 1, both routed through C3's scheduler since reintro cards are
// only ever offered for lemmas that have already graduated out of C2.
func (s *Server) reintroResultHandler(c *gin.Context) {
	var req reintroResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rating int
	switch req.Result {
	case "remember":
		rating = 3
	case "show_again":
		rating = 1
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "result must be \"remember\" or \"show_again\""})
		return
	}

	out, err := s.srs.SubmitReview(c.Request.Context(), srsReviewRequest(req, rating))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lemma_id":  out.LemmaID,
		"new_state": out.NewState,
		"next_due":  out.NextDue,
		"duplicate": out.Duplicate,
	})
}

func (s *Server) undoSentenceHandler(c *gin.Context) {
	var req undoSentenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	undone, err := s.srs.UndoSentenceReview(c.Request.Context(), req.ClientReviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews_undone": undone})
}

func srsReviewRequest(req reintroResultRequest, rating int) services.ReviewRequest {
	return services.ReviewRequest{
		LemmaID:        req.LemmaID,
		Rating:         rating,
		SessionID:      req.SessionID,
		ReviewMode:     models.ReviewModeReintro,
		CreditType:     models.CreditPrimary,
		ClientReviewID: req.ClientReviewID,
		Commit:         true,
	}
}

func respondError(c *gin.Context, err error) {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validErr.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
