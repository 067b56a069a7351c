// internal/handlers/job/job_handler.go
package job

import (
	"net/http"
	"strconv"

	"jobboard-service/internal/domain/job"
	"jobboard-service/internal/middleware"
	"jobboard-service/internal/pkg/response"
	jobUsecase "jobboard-service/internal/service/job"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type JobHandler struct {
	jobService *jobUsecase.JobService
	logger     *zap.Logger
}

func NewJobHandler(jobService *jobUsecase.JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		logger:     logger,
	}
}

// Submit accepts an anonymous posting for moderation (public, rate-limited).
func (h *JobHandler) Submit(c *gin.Context) {
	var req job.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	j, err := h.jobService.Submit(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "job submitted for review", gin.H{"id": j.ID, "status": j.Status})
}

// GetJob returns a published job. Pending submissions are not public.
func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	j, err := h.jobService.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if j.Status != job.StatusPublished {
		response.NotFound(c, "resource not found")
		return
	}

	response.Success(c, http.StatusOK, "", j)
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	publisher := middleware.MustGetPrincipal(c)

	var req job.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	j, err := h.jobService.Create(c.Request.Context(), publisher, &req)
	if err != nil {
		h.logger.Warn("create job failed", zap.Int64("publisher_id", publisher.ID), zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "job created", j)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	var req job.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	j, err := h.jobService.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "job updated", j)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	actor := middleware.MustGetPrincipal(c)

	id, ok := jobID(c)
	if !ok {
		return
	}

	if err := h.jobService.Delete(c.Request.Context(), actor, id); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "job deleted", nil)
}

func jobID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ValidationError(c, "invalid job id", nil)
		return 0, false
	}
	return id, true
}
