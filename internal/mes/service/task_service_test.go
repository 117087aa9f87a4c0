package service

import (
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"gorm.io/gorm"
)

// uid maps readable fixture labels to deterministic UUIDs for uuid-typed columns.
var uid = testutil.UID

func setupTaskTest(t *testing.T) (*gorm.DB, *repository.Repositories, *TaskService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return db, repos, NewTaskService(repos.Task, repos.Machine, db)
}

func seedTask(t *testing.T, db *gorm.DB, id, machineID, status string, targetQty float64) *entity.Task {
	t.Helper()
	task := &entity.Task{
		ID:        id,
		ProjectID: uid("prj-task-test"),
		ItemID:    uid("item-task-test"),
		Step:      "POTONG",
		MachineID: machineID,
		TargetQty: targetQty,
		Status:    status,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

// TestTaskStartMirrorsMachine 启动任务后机台镜像为 RUNNING
func TestTaskStartMirrorsMachine(t *testing.T) {
	db, repos, svc := setupTaskTest(t)

	testutil.SeedMachine(t, db, uid("m-start"), "切割机")
	seedTask(t, db, uid("task-start"), uid("m-start"), entity.TaskStatusPending, 100)

	task, err := svc.Start(uid("task-start"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if task.Status != entity.TaskStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", task.Status)
	}

	machine, _ := repos.Machine.GetByID(uid("m-start"))
	if machine.Status != entity.MachineStatusRunning {
		t.Fatalf("expected machine RUNNING, got %s", machine.Status)
	}

	// 重复启动：InvalidState
	if _, err := svc.Start(uid("task-start")); !errs.Is(err, errs.KindInvalidState) {
		t.Fatalf("expected KindInvalidState on double start, got %v", err)
	}
}

// TestTaskMachineConflict 同一机台不允许两个活跃任务
func TestTaskMachineConflict(t *testing.T) {
	db, _, svc := setupTaskTest(t)

	testutil.SeedMachine(t, db, uid("m-conf"), "折弯机")
	seedTask(t, db, uid("task-a"), uid("m-conf"), entity.TaskStatusPending, 100)
	seedTask(t, db, uid("task-b"), uid("m-conf"), entity.TaskStatusPending, 100)

	if _, err := svc.Start(uid("task-a")); err != nil {
		t.Fatalf("start task-a: %v", err)
	}
	if _, err := svc.Start(uid("task-b")); !errs.Is(err, errs.KindConflict) {
		t.Fatalf("expected KindConflict, got %v", err)
	}

	// 暂停释放机台后即可启动
	if _, err := svc.Pause(uid("task-a")); err != nil {
		t.Fatalf("pause task-a: %v", err)
	}
	if _, err := svc.Start(uid("task-b")); err != nil {
		t.Fatalf("start task-b after pause: %v", err)
	}
}

// TestTaskPauseResume PAUSED 释放机台，恢复时重新竞争
func TestTaskPauseResume(t *testing.T) {
	db, repos, svc := setupTaskTest(t)

	testutil.SeedMachine(t, db, uid("m-pr"), "包装机")
	seedTask(t, db, uid("task-pr"), uid("m-pr"), entity.TaskStatusPending, 100)

	if _, err := svc.Start(uid("task-pr")); err != nil {
		t.Fatalf("start: %v", err)
	}
	paused, err := svc.Pause(uid("task-pr"))
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Status != entity.TaskStatusPaused {
		t.Fatalf("expected PAUSED, got %s", paused.Status)
	}
	machine, _ := repos.Machine.GetByID(uid("m-pr"))
	if machine.Status != entity.MachineStatusIdle {
		t.Fatalf("expected machine IDLE after pause, got %s", machine.Status)
	}

	resumed, err := svc.Resume(uid("task-pr"))
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != entity.TaskStatusInProgress {
		t.Fatalf("expected IN_PROGRESS after resume, got %s", resumed.Status)
	}
}

// TestTaskStartRejectsMaintenanceMachine 维护中的机台拒绝任务启动
func TestTaskStartRejectsMaintenanceMachine(t *testing.T) {
	db, _, svc := setupTaskTest(t)

	machine := testutil.SeedMachine(t, db, uid("m-maint"), "喷涂机")
	db.Model(machine).Updates(map[string]interface{}{
		"is_maintenance": true,
		"status":         entity.MachineStatusMaintenance,
	})
	seedTask(t, db, uid("task-maint"), uid("m-maint"), entity.TaskStatusPending, 100)

	if _, err := svc.Start(uid("task-maint")); !errs.Is(err, errs.KindConflict) {
		t.Fatalf("expected KindConflict for maintenance machine, got %v", err)
	}
}

// TestTaskDowntimeRoundTrip 停机往返：时长按整分钟累计，起始时刻清空
func TestTaskDowntimeRoundTrip(t *testing.T) {
	db, repos, svc := setupTaskTest(t)

	testutil.SeedMachine(t, db, uid("m-dt"), "切割机")
	seedTask(t, db, uid("task-dt"), uid("m-dt"), entity.TaskStatusPending, 100)

	base := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if _, err := svc.Start(uid("task-dt")); err != nil {
		t.Fatalf("start: %v", err)
	}

	down, err := svc.StartDowntime(uid("task-dt"))
	if err != nil {
		t.Fatalf("start downtime: %v", err)
	}
	if down.Status != entity.TaskStatusDowntime {
		t.Fatalf("expected DOWNTIME, got %s", down.Status)
	}
	if down.DowntimeStart == nil {
		t.Fatal("expected downtime_start to be set")
	}
	machine, _ := repos.Machine.GetByID(uid("m-dt"))
	if machine.Status != entity.MachineStatusDowntime {
		t.Fatalf("expected machine DOWNTIME, got %s", machine.Status)
	}

	// 停机47分钟后恢复
	svc.now = func() time.Time { return base.Add(47 * time.Minute) }
	up, err := svc.EndDowntime(uid("task-dt"))
	if err != nil {
		t.Fatalf("end downtime: %v", err)
	}
	if up.TotalDowntimeMinutes != 47 {
		t.Fatalf("expected 47 downtime minutes, got %d", up.TotalDowntimeMinutes)
	}
	if up.DowntimeStart != nil {
		t.Fatal("expected downtime_start cleared")
	}
	if up.Status != entity.TaskStatusInProgress {
		t.Fatalf("expected IN_PROGRESS after downtime, got %s", up.Status)
	}

	// 第二轮停机累计
	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := svc.StartDowntime(uid("task-dt")); err != nil {
		t.Fatalf("second downtime: %v", err)
	}
	svc.now = func() time.Time { return base.Add(2*time.Hour + 13*time.Minute) }
	up2, err := svc.EndDowntime(uid("task-dt"))
	if err != nil {
		t.Fatalf("second end downtime: %v", err)
	}
	if up2.TotalDowntimeMinutes != 60 {
		t.Fatalf("expected cumulative 60 minutes, got %d", up2.TotalDowntimeMinutes)
	}
}

// TestTaskEndDowntimeInvalidState 非停机状态结束停机被拒绝
func TestTaskEndDowntimeInvalidState(t *testing.T) {
	db, _, svc := setupTaskTest(t)

	testutil.SeedMachine(t, db, uid("m-ed"), "切割机")
	seedTask(t, db, uid("task-ed"), uid("m-ed"), entity.TaskStatusPending, 100)

	if _, err := svc.EndDowntime(uid("task-ed")); !errs.Is(err, errs.KindInvalidState) {
		t.Fatalf("expected KindInvalidState, got %v", err)
	}
}
