package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patternlab/structmark/internal/llm"
)

type AIGradeRequest struct {
	Rubric          string `json:"rubric" binding:"required"`
	StudentText     string `json:"student_text"`
	StudentImageURL string `json:"student_image_url"`
	StudentImageB64 string `json:"student_image_b64"`
	MaxPoints       int    `json:"max_points"`
}

type AIGenerateRequest struct {
	Instruction string     `json:"instruction" binding:"required"`
	Parts       []llm.Part `json:"parts" binding:"required"`
}

func (s *Server) AIHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "llm_configured": s.Grader != nil})
}

// AIGrade marks a free-text or image submission against an operator-supplied
// rubric. Unlike the quiz path there is no offline fallback here: callers of
// this route want the model's judgement or an honest failure.
func (s *Server) AIGrade(c *gin.Context) {
	if s.Grader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No LLM provider configured"})
		return
	}

	var req AIGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.MaxPoints < 1 {
		req.MaxPoints = 1
	}

	result, err := s.Grader.Grade(c.Request.Context(), llm.GradeRequest{
		Rubric:          req.Rubric,
		StudentText:     req.StudentText,
		StudentImageURL: req.StudentImageURL,
		StudentImageB64: req.StudentImageB64,
		MaxPoints:       req.MaxPoints,
	})
	if err != nil {
		log.Printf("Failed to grade submission: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Grading failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"score":   result.Score,
		"reasons": result.Reasons,
		"advice":  result.Advice,
	})
}

// AIGenerate is the open-ended completion route: an instruction plus a list
// of text and image parts, answered with the model's raw text.
func (s *Server) AIGenerate(c *gin.Context) {
	if s.Grader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No LLM provider configured"})
		return
	}

	var req AIGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	for _, p := range req.Parts {
		if p.Text == "" && !p.IsImage() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported content part"})
			return
		}
	}

	text, err := s.Grader.Generate(c.Request.Context(), req.Instruction, req.Parts)
	if err != nil {
		log.Printf("Failed to generate completion: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "text": text})
}
