package service

import (
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"gorm.io/gorm"
)

func setupMachineTest(t *testing.T) (*gorm.DB, *repository.Repositories, *MachineService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return db, repos, NewMachineService(repos.Machine, repos.Task, db)
}

// TestMachineMaintenanceRoundTrip 维护模式开关与状态镜像
func TestMachineMaintenanceRoundTrip(t *testing.T) {
	db, _, svc := setupMachineTest(t)

	testutil.SeedMachine(t, db, uid("m-maint"), "折弯机")

	m, err := svc.SetMaintenance(uid("m-maint"), true)
	if err != nil {
		t.Fatalf("set maintenance: %v", err)
	}
	if !m.IsMaintenance || m.Status != entity.MachineStatusMaintenance {
		t.Fatalf("expected MAINTENANCE, got %+v", m)
	}

	m, err = svc.SetMaintenance(uid("m-maint"), false)
	if err != nil {
		t.Fatalf("unset maintenance: %v", err)
	}
	if m.IsMaintenance || m.Status != entity.MachineStatusIdle {
		t.Fatalf("expected IDLE, got %+v", m)
	}

	// 未在维护中时解除无意义
	if _, err := svc.SetMaintenance(uid("m-maint"), false); !errs.Is(err, errs.KindInvalidState) {
		t.Fatalf("expected KindInvalidState, got %v", err)
	}
}

// TestMachineMaintenanceBlockedByActiveTask 活跃任务占用的机台拒绝进维护
func TestMachineMaintenanceBlockedByActiveTask(t *testing.T) {
	db, repos, svc := setupMachineTest(t)

	testutil.SeedMachine(t, db, uid("m-busy"), "切割机")
	task := &entity.Task{
		ID:        uid("task-busy"),
		ProjectID: uid("prj-m"),
		ItemID:    uid("item-m"),
		Step:      "POTONG",
		MachineID: uid("m-busy"),
		TargetQty: 100,
		Status:    entity.TaskStatusInProgress,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	if _, err := svc.SetMaintenance(uid("m-busy"), true); !errs.Is(err, errs.KindConflict) {
		t.Fatalf("expected KindConflict, got %v", err)
	}

	// 停机中的任务同样占用机台
	if err := db.Model(&entity.Task{}).Where("id = ?", uid("task-busy")).
		Update("status", entity.TaskStatusDowntime).Error; err != nil {
		t.Fatalf("to downtime: %v", err)
	}
	if _, err := svc.SetMaintenance(uid("m-busy"), true); !errs.Is(err, errs.KindConflict) {
		t.Fatalf("expected KindConflict while DOWNTIME, got %v", err)
	}

	// 暂停释放机台后可以进维护
	if err := db.Model(&entity.Task{}).Where("id = ?", uid("task-busy")).
		Update("status", entity.TaskStatusPaused).Error; err != nil {
		t.Fatalf("to paused: %v", err)
	}
	if _, err := svc.SetMaintenance(uid("m-busy"), true); err != nil {
		t.Fatalf("set maintenance after pause: %v", err)
	}

	m, _ := repos.Machine.GetByID(uid("m-busy"))
	if m.Status != entity.MachineStatusMaintenance {
		t.Fatalf("expected MAINTENANCE, got %s", m.Status)
	}
}

// TestMachineDeleteBlockedByActiveTask 有活跃任务时拒绝删除
func TestMachineDeleteBlockedByActiveTask(t *testing.T) {
	db, repos, svc := setupMachineTest(t)

	testutil.SeedMachine(t, db, uid("m-del"), "包装台")
	task := &entity.Task{
		ID:        uid("task-del"),
		ProjectID: uid("prj-m"),
		ItemID:    uid("item-m"),
		Step:      "PACKING",
		MachineID: uid("m-del"),
		TargetQty: 100,
		Status:    entity.TaskStatusInProgress,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	if err := svc.Delete(uid("m-del")); !errs.Is(err, errs.KindConflict) {
		t.Fatalf("expected KindConflict, got %v", err)
	}

	if err := db.Model(&entity.Task{}).Where("id = ?", uid("task-del")).
		Update("status", entity.TaskStatusCompleted).Error; err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if err := svc.Delete(uid("m-del")); err != nil {
		t.Fatalf("delete after completion: %v", err)
	}
	if _, err := repos.Machine.GetByID(uid("m-del")); err == nil {
		t.Fatal("expected machine gone")
	}
}
