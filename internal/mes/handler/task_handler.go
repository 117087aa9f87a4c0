package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// TaskHandler 生产任务处理器
type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// Get GET /tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, task)
}

// List GET /tasks
func (h *TaskHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.TaskListParams{
		ProjectID: c.Query("project_id"),
		MachineID: c.Query("machine_id"),
		Status:    c.Query("status"),
		Page:      page,
		Size:      pageSize,
	}

	tasks, total, err := h.svc.List(params)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, ListResponse{
		Items:      tasks,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// Start POST /tasks/:id/start
func (h *TaskHandler) Start(c *gin.Context) {
	task, err := h.svc.Start(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, task)
}

// Pause POST /tasks/:id/pause
func (h *TaskHandler) Pause(c *gin.Context) {
	task, err := h.svc.Pause(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, task)
}

// Resume POST /tasks/:id/resume
func (h *TaskHandler) Resume(c *gin.Context) {
	task, err := h.svc.Resume(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, task)
}

// StartDowntime POST /tasks/:id/downtime/start
func (h *TaskHandler) StartDowntime(c *gin.Context) {
	task, err := h.svc.StartDowntime(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, task)
}

// EndDowntime POST /tasks/:id/downtime/end
func (h *TaskHandler) EndDowntime(c *gin.Context) {
	task, err := h.svc.EndDowntime(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, task)
}
