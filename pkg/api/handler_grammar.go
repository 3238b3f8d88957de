package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) getGrammarLessonHandler(c *gin.Context) {
	featureKey := c.Param("feature_key")

	view, err := s.grammar.GetLesson(c.Request.Context(), featureKey)
	if err != nil {
		respondError(c, err)
		return
	}
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "grammar feature not found"})
		return
	}
	c.JSON(http.StatusOK, &GrammarLessonResponse{LessonView: view})
}

func (s *Server) introduceGrammarFeatureHandler(c *gin.Context) {
	featureKey := c.Param("feature_key")

	introducedAt, err := s.grammar.IntroduceFeature(c.Request.Context(), featureKey)
	if err != nil {
		respondError(c, err)
		return
	}
	if introducedAt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "grammar feature not found"})
		return
	}
	c.JSON(http.StatusOK, &IntroduceFeatureResponse{FeatureKey: featureKey, IntroducedAt: introducedAt})
}
