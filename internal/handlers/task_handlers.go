package handlers

import (
	"net/http"

	"github.com/01moynul/retail-orders/internal/catalog"
	"github.com/01moynul/retail-orders/internal/middleware"
	"github.com/01moynul/retail-orders/internal/models"
	"github.com/01moynul/retail-orders/internal/tasks"
	"github.com/gin-gonic/gin"
)

// StartProductExport handles POST /v1/exports/products
func (h *Handlers) StartProductExport(c *gin.Context) {
	id, _ := middleware.Identity(c)
	taskID, err := h.Tasks.SubmitFor(c.Request.Context(), id.UserID, catalog.ExportTaskName, struct{}{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

// GetLatestProductExport handles GET /v1/exports/products/latest
func (h *Handlers) GetLatestProductExport(c *gin.Context) {
	taskID, err := h.Tasks.Latest(c.Request.Context(), catalog.ExportTaskName)
	if err != nil {
		respondError(c, err)
		return
	}
	status, ok := h.visibleTask(c, taskID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetTaskStatus handles GET /v1/tasks/:id
func (h *Handlers) GetTaskStatus(c *gin.Context) {
	status, ok := h.visibleTask(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, status)
}

// DownloadTaskResult handles GET /v1/tasks/:id/download
// Only finished catalog exports can be downloaded.
func (h *Handlers) DownloadTaskResult(c *gin.Context) {
	status, ok := h.visibleTask(c, c.Param("id"))
	if !ok {
		return
	}
	if status.Name != catalog.ExportTaskName {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task has no downloadable result", "code": "not_downloadable"})
		return
	}
	if status.State != tasks.StateSuccess {
		c.JSON(http.StatusConflict, gin.H{"error": "Export is not ready", "code": "task_" + string(status.State), "status": status.State})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+catalog.ExportFileName+`"`)
	c.Data(http.StatusOK, "application/json", status.Result)
}

// visibleTask polls a task the caller may see. Admins see every task, other
// callers only system tasks and their own; anything else reads as missing.
func (h *Handlers) visibleTask(c *gin.Context, taskID string) (*tasks.Status, bool) {
	status, err := h.Tasks.Poll(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	id, _ := middleware.Identity(c)
	if id.Role != models.RoleAdmin && status.Owner != 0 && status.Owner != id.UserID {
		respondError(c, tasks.ErrTaskNotFound)
		return nil, false
	}
	return status, true
}
