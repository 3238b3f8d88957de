package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alif-engine/core/pkg/models"
)

// createFlagHandler implements C10's flag-raise surface. Submission is
// synchronous and cheap: the flag row is inserted and a flag_eval job is
// enqueued for the worker pool; judging the dispute happens asynchronously
// in pkg/flags.Evaluator.
func (s *Server) createFlagHandler(c *gin.Context) {
	var req createFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	flag := &models.ContentFlag{
		ID:            uuid.NewString(),
		ContentType:   models.ContentFlagType(req.ContentType),
		LemmaID:       req.LemmaID,
		SentenceID:    req.SentenceID,
		Status:        models.FlagStatusPending,
		OriginalValue: req.OriginalValue,
		CreatedAt:     now,
	}
	if err := s.store.InsertContentFlag(c.Request.Context(), flag); err != nil {
		respondError(c, err)
		return
	}

	job := &models.PipelineJob{
		ID:        uuid.NewString(),
		Kind:      models.PipelineJobFlagEval,
		FlagID:    &flag.ID,
		CreatedAt: now,
	}
	if err := s.store.EnqueuePipelineJob(c.Request.Context(), job); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toFlagResponse(flag))
}

// listFlagsHandler implements C10's triage surface, GET /api/flags?status=.
// status defaults to "pending"; other ContentFlagStatus values are also
// accepted (e.g. status=applied to review resolved flags).
func (s *Server) listFlagsHandler(c *gin.Context) {
	status := c.DefaultQuery("status", string(models.FlagStatusPending))

	flags, err := s.store.ContentFlagsByStatus(c.Request.Context(), models.ContentFlagStatus(status), 100)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]*FlagResponse, len(flags))
	for i := range flags {
		out[i] = toFlagResponse(&flags[i])
	}
	c.JSON(http.StatusOK, gin.H{"flags": out})
}

func toFlagResponse(f *models.ContentFlag) *FlagResponse {
	return &FlagResponse{
		ID:             f.ID,
		ContentType:    string(f.ContentType),
		LemmaID:        f.LemmaID,
		SentenceID:     f.SentenceID,
		Status:         string(f.Status),
		OriginalValue:  f.OriginalValue,
		ResolutionNote: f.ResolutionNote,
		ResolvedAt:     f.ResolvedAt,
		CreatedAt:      f.CreatedAt,
	}
}
