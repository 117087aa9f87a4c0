package handler

import (
	"strconv"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Auth        *AuthHandler
	User        *UserHandler
	Project     *ProjectHandler
	Item        *ItemHandler
	Workflow    *WorkflowHandler
	Bom         *BomHandler
	SubAssembly *SubAssemblyHandler
	Material    *MaterialHandler
	Machine     *MachineHandler
	Task        *TaskHandler
	Production  *ProductionHandler
	Stats       *StatsHandler
	Export      *ExportHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:        NewAuthHandler(svc.Auth, cfg),
		User:        NewUserHandler(svc.User),
		Project:     NewProjectHandler(svc.Project),
		Item:        NewItemHandler(svc.Item),
		Workflow:    NewWorkflowHandler(svc.Workflow),
		Bom:         NewBomHandler(svc.Bom),
		SubAssembly: NewSubAssemblyHandler(svc.SubAssembly, svc.Stats),
		Material:    NewMaterialHandler(svc.Material),
		Machine:     NewMachineHandler(svc.Machine),
		Task:        NewTaskHandler(svc.Task),
		Production:  NewProductionHandler(svc.Production),
		Stats:       NewStatsHandler(svc.Stats),
		Export:      NewExportHandler(svc.Export),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination 构造分页信息
func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      int(total),
		TotalPages: totalPages,
	}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// RespondError 按错误类别映射响应码
func RespondError(c *gin.Context, err error) {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		Error(c, 40400, err.Error())
	case errs.KindValidation:
		Error(c, 40000, err.Error())
	case errs.KindLocked:
		Error(c, 42300, err.Error())
	case errs.KindConflict:
		Error(c, 40900, err.Error())
	case errs.KindInvalidState:
		Error(c, 40902, err.Error())
	case errs.KindCollaborator:
		Error(c, 50300, err.Error())
	default:
		Error(c, 50000, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
