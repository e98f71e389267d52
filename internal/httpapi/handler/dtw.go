// Package handler implements the read-only ops inspection surface over
// the DTW and cron trigger stores, translated from
// api/controllers/v2/delay_tolerant_workload.py's get/get_all into gin.
// It never accepts writes — creation remains the out-of-scope HTTP API
// layer's job; this exists purely so operators and the periodic runner
// share one observable view of store state.
package handler

import (
	"errors"
	"net/http"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/repository"
	"github.com/gin-gonic/gin"
)

type DTWHandler struct {
	dtws repository.DTWRepository
}

func NewDTWHandler(dtws repository.DTWRepository) *DTWHandler {
	return &DTWHandler{dtws: dtws}
}

func (h *DTWHandler) Get(c *gin.Context) {
	name := c.Param("name")
	projectID := c.Query("project_id")

	d, err := h.dtws.Get(c.Request.Context(), name, projectID, false)
	if err != nil {
		if errors.Is(err, domain.ErrDTWNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DTWHandler) List(c *gin.Context) {
	projectID := c.Query("project_id")

	dtws, err := h.dtws.List(c.Request.Context(), repository.ListDTWInput{ProjectID: projectID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"delay_tolerant_workloads": dtws})
}

type CronTriggerHandler struct {
	triggers repository.CronTriggerRepository
}

func NewCronTriggerHandler(triggers repository.CronTriggerRepository) *CronTriggerHandler {
	return &CronTriggerHandler{triggers: triggers}
}

func (h *CronTriggerHandler) Get(c *gin.Context) {
	name := c.Param("name")

	t, err := h.triggers.Get(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrCronTriggerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, t)
}
