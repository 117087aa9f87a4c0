package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// uid maps readable fixture labels to deterministic UUIDs for uuid-typed columns.
var uid = testutil.UID

func setupProductionEnv(t *testing.T) (*testutil.TestEnv, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	taskSvc := service.NewTaskService(repos.Task, repos.Machine, db)
	prodSvc := service.NewProductionService(repos.Task, repos.Item, repos.Bom, repos.SubAssembly, repos.Material, repos.Machine, repos.Log, db)

	taskHandler := NewTaskHandler(taskSvc)
	prodHandler := NewProductionHandler(prodSvc)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	{
		api.GET("/tasks/:id", taskHandler.Get)
		api.POST("/tasks/:id/start", taskHandler.Start)
		api.POST("/tasks/:id/report", prodHandler.Report)
		api.POST("/tasks/:id/correction", prodHandler.Correction)
		api.GET("/tasks/:id/logs", prodHandler.TaskLogs)
		api.GET("/production/logs", prodHandler.ListLogs)
	}

	return &testutil.TestEnv{DB: db, Router: r, T: t}, db
}

func seedReportableTask(t *testing.T, db *gorm.DB, taskID string) {
	t.Helper()
	item := &entity.ProjectItem{
		ID:        uid("item-" + taskID),
		ProjectID: uid("prj-" + taskID),
		Name:      "机箱侧板",
		QtySet:    1,
		Quantity:  100,
		FlowType:  entity.FlowTypeDirect,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	step := &entity.ItemStepConfig{ID: uid(taskID + "-s1"), ItemID: item.ID, Step: "PACKING", Sequence: 1, MachineIDs: entity.StringList{uid("m-h")}}
	if err := db.Create(step).Error; err != nil {
		t.Fatalf("seed workflow: %v", err)
	}
	mat := testutil.SeedMaterial(t, db, uid("mat-"+taskID), 1000, 0)
	bom := &entity.BomItem{ID: uid("bom-" + taskID), ItemID: item.ID, MaterialID: mat.ID, QuantityPerUnit: 1}
	if err := db.Create(bom).Error; err != nil {
		t.Fatalf("seed bom: %v", err)
	}
	task := &entity.Task{
		ID:        taskID,
		ProjectID: item.ProjectID,
		ItemID:    item.ID,
		Step:      "PACKING",
		MachineID: uid("m-h"),
		TargetQty: 100,
		Status:    entity.TaskStatusInProgress,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
}

// TestReportEndpointRequiresAuth 无令牌访问报工接口返回 401
func TestReportEndpointRequiresAuth(t *testing.T) {
	env, _ := setupProductionEnv(t)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tasks/t-1/report", gin.H{"good_qty": 10, "shift": "SHIFT_1", "operator": "王强"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

// TestReportEndpoint 报工成功返回更新后的任务
func TestReportEndpoint(t *testing.T) {
	env, db := setupProductionEnv(t)
	seedReportableTask(t, db, uid("t-report"))
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tasks/"+uid("t-report")+"/report",
		gin.H{"good_qty": 30, "defect_qty": 2, "shift": "SHIFT_1", "operator": "王强"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 0 {
		t.Fatalf("expected code 0, got %v", resp["code"])
	}
	data := resp["data"].(map[string]interface{})
	if data["completed_qty"].(float64) != 30 || data["defect_qty"].(float64) != 2 {
		t.Fatalf("unexpected counters: %v", data)
	}

	// 流水可查
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/tasks/"+uid("t-report")+"/logs", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on logs, got %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 log, got %d", len(items))
	}
}

// TestReportEndpointValidation 非法报工按 Kind 映射为 400
func TestReportEndpointValidation(t *testing.T) {
	env, db := setupProductionEnv(t)
	seedReportableTask(t, db, uid("t-bad"))
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tasks/"+uid("t-bad")+"/report",
		gin.H{"good_qty": 0, "defect_qty": 0, "shift": "SHIFT_1", "operator": "王强"}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40000 {
		t.Fatalf("expected code 40000, got %v", resp["code"])
	}
}

// TestReportEndpointNotFound 不存在的任务返回 404
func TestReportEndpointNotFound(t *testing.T) {
	env, _ := setupProductionEnv(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tasks/"+uid("no-such-task")+"/report",
		gin.H{"good_qty": 10, "shift": "SHIFT_1", "operator": "王强"}, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40400 {
		t.Fatalf("expected code 40400, got %v", resp["code"])
	}
}

// TestReportEndpointCompletedTask 已完成任务报工映射为 409
func TestReportEndpointCompletedTask(t *testing.T) {
	env, db := setupProductionEnv(t)
	seedReportableTask(t, db, uid("t-done"))
	if err := db.Model(&entity.Task{}).Where("id = ?", uid("t-done")).
		Updates(map[string]interface{}{"status": entity.TaskStatusCompleted, "completed_qty": 100}).Error; err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tasks/"+uid("t-done")+"/report",
		gin.H{"good_qty": 1, "shift": "SHIFT_1", "operator": "王强"}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40902 {
		t.Fatalf("expected code 40902, got %v", resp["code"])
	}
}

// TestCorrectionEndpoint 冲正接口：正常冲正与超额拒绝
func TestCorrectionEndpoint(t *testing.T) {
	env, db := setupProductionEnv(t)
	seedReportableTask(t, db, uid("t-corr"))
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tasks/"+uid("t-corr")+"/report",
		gin.H{"good_qty": 20, "shift": "SHIFT_2", "operator": "李敏"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/tasks/"+uid("t-corr")+"/correction",
		gin.H{"good_qty": 5, "shift": "SHIFT_2", "operator": "李敏", "reason": "误报"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("correction: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["completed_qty"].(float64) != 15 {
		t.Fatalf("expected 15 after correction, got %v", data["completed_qty"])
	}

	// 超额冲正
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/tasks/"+uid("t-corr")+"/correction",
		gin.H{"good_qty": 99, "shift": "SHIFT_2", "operator": "李敏"}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on overdraw, got %d", w.Code)
	}
}

// TestProductionLogsEndpoint 流水分页查询
func TestProductionLogsEndpoint(t *testing.T) {
	env, db := setupProductionEnv(t)
	seedReportableTask(t, db, uid("t-logs"))
	token := testutil.DefaultTestToken()

	for i := 0; i < 3; i++ {
		w := testutil.DoRequest(env.Router, "POST", "/api/v1/tasks/"+uid("t-logs")+"/report",
			gin.H{"good_qty": 5, "shift": "SHIFT_1", "operator": "王强"}, token)
		if w.Code != http.StatusOK {
			t.Fatalf("report %d: expected 200, got %d", i, w.Code)
		}
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/production/logs?machine_id="+uid("m-h")+"&page=1&page_size=2", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected 2 items on page, got %d", len(items))
	}
	pagination := data["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 3 {
		t.Fatalf("expected total 3, got %v", pagination["total"])
	}
}
