package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patternlab/structmark/internal/core/diagram"
	"github.com/patternlab/structmark/internal/core/model"
	"github.com/patternlab/structmark/internal/core/source"
)

// The rubric is operator-authored: if it does not parse, that is the
// caller's error. The student payload is never an error; anything
// unrecognizable degrades to a partial or empty model that simply scores
// low, because a submission must always come back with feedback.

type GradeDiagramRequest struct {
	Diagram json.RawMessage `json:"diagram"`
	Rubric  json.RawMessage `json:"rubric" binding:"required"`
}

type GradeSourceRequest struct {
	Source string          `json:"source"`
	Rubric json.RawMessage `json:"rubric" binding:"required"`
}

func (s *Server) GradeDiagram(c *gin.Context) {
	var req GradeDiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	rubric, err := model.Decode(req.Rubric)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rubric: " + err.Error()})
		return
	}

	result := s.Marker.GradeDiagram(c.Request.Context(), req.Diagram, rubric)
	c.JSON(http.StatusOK, result)
}

func (s *Server) GradeSource(c *gin.Context) {
	var req GradeSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	rubric, err := model.Decode(req.Rubric)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rubric: " + err.Error()})
		return
	}

	result := s.Marker.GradeSource(c.Request.Context(), req.Source, rubric)
	c.JSON(http.StatusOK, result)
}

type CanonicalizeDiagramRequest struct {
	Diagram json.RawMessage `json:"diagram"`
}

type CanonicalizeSourceRequest struct {
	Source string `json:"source"`
}

func (s *Server) CanonicalizeDiagram(c *gin.Context) {
	var req CanonicalizeDiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"model": diagram.Canonicalize(req.Diagram)})
}

func (s *Server) CanonicalizeSource(c *gin.Context) {
	var req CanonicalizeSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"model": source.Canonicalize(req.Source)})
}

func (s *Server) GetSubmission(c *gin.Context) {
	if s.Marker.Driver == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Submission storage is not configured"})
		return
	}

	id := c.Param("id")
	stored, err := s.Marker.GetSubmission(c.Request.Context(), id)
	if err != nil {
		log.Printf("Failed to load submission %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submission"})
		return
	}
	if len(stored.Classes) == 0 && len(stored.Relationships) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown submission: " + id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"model": stored})
}
