package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// startAcquisitionHandler is an explicit trigger for C2's StartAcquisition,
// used by the client when a learner's initial vocabulary import seeds new
// words outside the normal due-review flow.
func (s *Server) startAcquisitionHandler(c *gin.Context) {
	lemmaID := c.Param("lemma_id")

	var req startAcquisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ulk, err := s.acquisition.StartAcquisition(c.Request.Context(), lemmaID, req.Source, req.DueImmediately)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, &StartAcquisitionResponse{
		LemmaID:        ulk.LemmaID,
		State:          string(ulk.State),
		AcquisitionBox: ulk.AcquisitionBox,
		NextDue:        ulk.AcquisitionNextDue,
	})
}
