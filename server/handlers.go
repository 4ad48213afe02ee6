package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/pipeline"
)

type queryRequest struct {
	ID    *int64  `json:"id" binding:"required"`
	Query *string `json:"query" binding:"required"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRequest(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return
	}

	ctx := c.Request.Context()
	if timeout := s.config.RequestTimeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	q := api.Query{ID: *req.ID, Query: *req.Query}
	pipeline.LoggerFrom(ctx).Info("received request", "id", q.ID, "query", q.Query)

	a, err := s.answerer.Run(ctx, q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, a)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
