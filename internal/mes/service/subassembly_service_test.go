package service

import (
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"gorm.io/gorm"
)

func setupSubAssemblyTest(t *testing.T) (*gorm.DB, *repository.Repositories, *SubAssemblyService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewSubAssemblyService(repos.SubAssembly, repos.Item, repos.Task, repos.Log, db)
	return db, repos, svc
}

func seedAssemblyItem(t *testing.T, db *gorm.DB, id string, quantity float64) *entity.ProjectItem {
	t.Helper()
	item := &entity.ProjectItem{
		ID:        id,
		ProjectID: uid("prj-" + id),
		Name:      "配电柜",
		QtySet:    1,
		Quantity:  quantity,
		FlowType:  entity.FlowTypeAssembly,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

// TestSubAssemblyCreate 创建组件并按父产出物数量推算需求
func TestSubAssemblyCreate(t *testing.T) {
	db, _, svc := setupSubAssemblyTest(t)

	seedAssemblyItem(t, db, uid("item-asm"), 100)

	sub, err := svc.Create(uid("item-asm"), CreateSubAssemblyRequest{
		Name:         "框架组件",
		QtyPerParent: 2,
		Processes:    []string{"POTONG", "BENDING"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.TotalNeeded != 200 {
		t.Fatalf("expected TotalNeeded 200, got %v", sub.TotalNeeded)
	}

	// 空工序列表拒绝
	if _, err := svc.Create(uid("item-asm"), CreateSubAssemblyRequest{Name: "x", QtyPerParent: 1}); !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation on empty processes, got %v", err)
	}
}

// TestSubAssemblyCreateRejectsDirectFlow DIRECT流程不可拆分组件
func TestSubAssemblyCreateRejectsDirectFlow(t *testing.T) {
	db, _, svc := setupSubAssemblyTest(t)

	item := &entity.ProjectItem{ID: uid("item-direct"), ProjectID: uid("prj-d"), Name: "垫片", QtySet: 1, Quantity: 100, FlowType: entity.FlowTypeDirect}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	_, err := svc.Create(uid("item-direct"), CreateSubAssemblyRequest{Name: "x", QtyPerParent: 1, Processes: []string{"POTONG"}})
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

// TestSubAssemblyLockFreezesStructure 锁定后结构字段冻结，命名仍可改
func TestSubAssemblyLockFreezesStructure(t *testing.T) {
	db, _, svc := setupSubAssemblyTest(t)

	seedAssemblyItem(t, db, uid("item-lock"), 100)
	sub, err := svc.Create(uid("item-lock"), CreateSubAssemblyRequest{Name: "框架组件", QtyPerParent: 2, Processes: []string{"POTONG"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Lock(sub.ID); err != nil {
		t.Fatalf("lock: %v", err)
	}
	// 单向闩锁
	if _, err := svc.Lock(sub.ID); !errs.Is(err, errs.KindInvalidState) {
		t.Fatalf("expected KindInvalidState on double lock, got %v", err)
	}

	qty := 3.0
	if _, err := svc.Update(sub.ID, UpdateSubAssemblyRequest{QtyPerParent: &qty}); !errs.Is(err, errs.KindLocked) {
		t.Fatalf("expected KindLocked on structural update, got %v", err)
	}
	if _, err := svc.Update(sub.ID, UpdateSubAssemblyRequest{Processes: []string{"BENDING"}}); !errs.Is(err, errs.KindLocked) {
		t.Fatalf("expected KindLocked on processes update, got %v", err)
	}

	updated, err := svc.Update(sub.ID, UpdateSubAssemblyRequest{Name: "框架组件V2"})
	if err != nil {
		t.Fatalf("rename after lock: %v", err)
	}
	if updated.Name != "框架组件V2" {
		t.Fatalf("expected renamed, got %s", updated.Name)
	}

	// 锁定后不可删除
	if err := svc.Delete(sub.ID); !errs.Is(err, errs.KindLocked) {
		t.Fatalf("expected KindLocked on delete, got %v", err)
	}
}

// TestSubAssemblyDeleteBlockedByTasks 已有任务引用组件工序时拒绝删除
func TestSubAssemblyDeleteBlockedByTasks(t *testing.T) {
	db, _, svc := setupSubAssemblyTest(t)

	seedAssemblyItem(t, db, uid("item-del"), 100)
	sub, err := svc.Create(uid("item-del"), CreateSubAssemblyRequest{Name: "框架组件", QtyPerParent: 1, Processes: []string{"POTONG"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	task := &entity.Task{ID: uid("task-ref"), ProjectID: uid("prj-item-del"), ItemID: uid("item-del"), Step: "POTONG", MachineID: uid("m-x"), TargetQty: 100, Status: entity.TaskStatusPending}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	if err := svc.Delete(sub.ID); !errs.Is(err, errs.KindConflict) {
		t.Fatalf("expected KindConflict, got %v", err)
	}

	if err := db.Delete(task).Error; err != nil {
		t.Fatalf("remove task: %v", err)
	}
	if err := svc.Delete(sub.ID); err != nil {
		t.Fatalf("delete after task removed: %v", err)
	}
}

// TestSubAssemblyConsumeCap 累计消耗不得超过末道工序良品产出
func TestSubAssemblyConsumeCap(t *testing.T) {
	db, _, svc := setupSubAssemblyTest(t)

	seedAssemblyItem(t, db, uid("item-consume"), 100)
	sub, err := svc.Create(uid("item-consume"), CreateSubAssemblyRequest{Name: "框架组件", QtyPerParent: 1, Processes: []string{"POTONG", "BENDING"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 末道工序（BENDING）累计良品 40
	logs := []entity.ProductionLog{
		{ID: uid("log-1"), TaskID: uid("t1"), MachineID: uid("m-x"), ItemID: uid("item-consume"), ProjectID: uid("prj-item-consume"), Step: "BENDING", Shift: entity.Shift1, GoodQty: 25, Operator: "王强", Type: entity.LogTypeProduction},
		{ID: uid("log-2"), TaskID: uid("t1"), MachineID: uid("m-x"), ItemID: uid("item-consume"), ProjectID: uid("prj-item-consume"), Step: "BENDING", Shift: entity.Shift2, GoodQty: 15, Operator: "李敏", Type: entity.LogTypeProduction},
		// 中间工序产出不计入可领用量
		{ID: uid("log-3"), TaskID: uid("t2"), MachineID: uid("m-y"), ItemID: uid("item-consume"), ProjectID: uid("prj-item-consume"), Step: "POTONG", Shift: entity.Shift1, GoodQty: 100, Operator: "王强", Type: entity.LogTypeProduction},
	}
	if err := db.Create(&logs).Error; err != nil {
		t.Fatalf("seed logs: %v", err)
	}

	got, err := svc.Consume(sub.ID, ConsumeRequest{Qty: 30})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.ConsumedQty != 30 {
		t.Fatalf("expected consumed 30, got %v", got.ConsumedQty)
	}

	// 剩余可领 10，领 11 超量
	if _, err := svc.Consume(sub.ID, ConsumeRequest{Qty: 11}); !errs.Is(err, errs.KindConflict) {
		t.Fatalf("expected KindConflict on over-consume, got %v", err)
	}
	if got, err = svc.Consume(sub.ID, ConsumeRequest{Qty: 10}); err != nil {
		t.Fatalf("consume remainder: %v", err)
	}
	if got.ConsumedQty != 40 {
		t.Fatalf("expected consumed 40, got %v", got.ConsumedQty)
	}
}
