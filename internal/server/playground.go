package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patternlab/structmark/internal/sandbox"
)

func (s *Server) RunPlayground(c *gin.Context) {
	var files map[string]string
	if err := c.ShouldBindJSON(&files); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files submitted"})
		return
	}

	result, err := s.Runner.Run(c.Request.Context(), files)
	if err != nil {
		log.Printf("Playground run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run submission"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) PlaygroundFiles(c *gin.Context) {
	files, err := sandbox.ListAssets(s.AssetsDir)
	if err != nil {
		log.Printf("Failed to list playground files: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list files"})
		return
	}
	c.JSON(http.StatusOK, files)
}
