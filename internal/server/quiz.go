package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/patternlab/structmark/internal/quiz"
)

func (s *Server) ListQuizzes(c *gin.Context) {
	c.JSON(http.StatusOK, s.Bank.Metas())
}

func (s *Server) GetQuiz(c *gin.Context) {
	id := c.Param("id")

	shuffle := c.DefaultQuery("shuffle", "true") == "true"
	if !shuffle {
		mq, ok := s.Bank.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown MQ: " + id})
			return
		}
		c.JSON(http.StatusOK, mq)
		return
	}

	seed := time.Now().UnixNano()
	if v := c.Query("seed"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			seed = parsed
		}
	}

	mq, ok := s.Bank.Shuffled(id, seed)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown MQ: " + id})
		return
	}
	c.JSON(http.StatusOK, mq)
}

func (s *Server) SubmitQuiz(c *gin.Context) {
	var payload quiz.SubmitPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	mq, ok := s.Bank.Get(payload.MQID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown MQ: " + payload.MQID})
		return
	}

	byID := make(map[string]quiz.Item, len(mq.Items))
	for _, item := range mq.Items {
		byID[item.ID] = item
	}

	attemptNumber := payload.AttemptNumber
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	results := make([]quiz.ItemResult, 0, len(payload.Attempts))
	totalAwarded := 0
	for _, att := range payload.Attempts {
		item, ok := byID[att.ItemID]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Item not in MQ: " + att.ItemID})
			return
		}

		res := s.Scorer.ScoreItem(c.Request.Context(), item, att.Response)
		results = append(results, res)
		totalAwarded += res.MarksAwarded

		s.Analytics.Record(payload.SessionID, payload.MQID, attemptNumber, att, res)
	}

	c.JSON(http.StatusOK, quiz.SubmitResult{
		SessionID:     payload.SessionID,
		MQID:          payload.MQID,
		AttemptNumber: attemptNumber,
		Results:       results,
		TotalAwarded:  totalAwarded,
		TotalPossible: mq.TotalMarks,
	})
}

func (s *Server) NextQuiz(c *gin.Context) {
	next, ok := s.Bank.NextAfter(c.Query("last_mq_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No MQs available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mq_id": next})
}

func (s *Server) ExportAnalytics(c *gin.Context) {
	if c.DefaultQuery("format", "json") == "csv" {
		c.Header("Content-Type", "text/csv")
		if err := s.Analytics.WriteCSV(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export analytics"})
		}
		return
	}
	c.JSON(http.StatusOK, s.Analytics.Events())
}
