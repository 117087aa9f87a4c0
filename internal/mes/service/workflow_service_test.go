package service

import (
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"gorm.io/gorm"
)

func setupWorkflowTest(t *testing.T) (*gorm.DB, *repository.Repositories, *WorkflowService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return db, repos, NewWorkflowService(repos.Item, repos.Task, db)
}

func seedItemWithQuantity(t *testing.T, db *gorm.DB, itemID string, quantity float64) *entity.ProjectItem {
	t.Helper()
	project := &entity.Project{
		ID:             uid("prj-" + itemID),
		Code:           "PRJ-" + itemID,
		Name:           "项目",
		QtyPerUnit:     1,
		ProcurementQty: quantity,
		TotalQty:       quantity,
		Status:         entity.ProjectStatusPlanned,
		CreatedBy:      "test-user",
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	item := &entity.ProjectItem{
		ID:        itemID,
		ProjectID: project.ID,
		Name:      "产出物 " + itemID,
		QtySet:    1,
		Quantity:  quantity,
		FlowType:  entity.FlowTypeDirect,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

// TestWorkflowValidateGeneratesTasks 工序×机台 交叉生成任务，目标量为产出物数量
func TestWorkflowValidateGeneratesTasks(t *testing.T) {
	db, repos, svc := setupWorkflowTest(t)

	item := seedItemWithQuantity(t, db, uid("item-wf-001"), 100)
	testutil.SeedMachine(t, db, uid("m1"), "切割机")
	testutil.SeedMachine(t, db, uid("m2"), "包装机")

	tasks, err := svc.Validate(item.ID, []StepConfigInput{
		{Step: "POTONG", Sequence: 1, MachineIDs: []string{uid("m1")}},
		{Step: "PACKING", Sequence: 2, MachineIDs: []string{uid("m2")}},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.TargetQty != 100 {
			t.Fatalf("expected target_qty 100, got %v", task.TargetQty)
		}
		if task.Status != entity.TaskStatusPending {
			t.Fatalf("expected PENDING, got %s", task.Status)
		}
	}

	gotItem, _ := repos.Item.GetByID(item.ID)
	if !gotItem.IsWorkflowLocked {
		t.Fatal("expected workflow to be locked after validate")
	}
	if len(gotItem.Workflow) != 2 {
		t.Fatalf("expected 2 workflow steps, got %d", len(gotItem.Workflow))
	}
	if entity.FirstStep(gotItem.Workflow) != "POTONG" {
		t.Fatalf("expected first step POTONG, got %s", entity.FirstStep(gotItem.Workflow))
	}
	if entity.LastStep(gotItem.Workflow) != "PACKING" {
		t.Fatalf("expected last step PACKING, got %s", entity.LastStep(gotItem.Workflow))
	}
}

// TestWorkflowValidateRejectsBadConfig 空流程、空机台、重复序号均拒绝
func TestWorkflowValidateRejectsBadConfig(t *testing.T) {
	db, _, svc := setupWorkflowTest(t)
	item := seedItemWithQuantity(t, db, uid("item-wf-002"), 50)

	if _, err := svc.Validate(item.ID, nil); !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation for empty config, got %v", err)
	}

	_, err := svc.Validate(item.ID, []StepConfigInput{
		{Step: "POTONG", Sequence: 1, MachineIDs: []string{}},
	})
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation for empty machines, got %v", err)
	}

	_, err = svc.Validate(item.ID, []StepConfigInput{
		{Step: "POTONG", Sequence: 1, MachineIDs: []string{uid("m1")}},
		{Step: "PACKING", Sequence: 1, MachineIDs: []string{uid("m2")}},
	})
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation for duplicate sequence, got %v", err)
	}
}

// TestWorkflowRevalidationBlockedByProgress 任何任务已产出后禁止重配与解锁
func TestWorkflowRevalidationBlockedByProgress(t *testing.T) {
	db, _, svc := setupWorkflowTest(t)

	item := seedItemWithQuantity(t, db, uid("item-wf-003"), 100)
	testutil.SeedMachine(t, db, uid("m3"), "切割机")

	tasks, err := svc.Validate(item.ID, []StepConfigInput{
		{Step: "POTONG", Sequence: 1, MachineIDs: []string{uid("m3")}},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	// 锁定后直接重配：Locked
	_, err = svc.Validate(item.ID, []StepConfigInput{
		{Step: "POTONG", Sequence: 1, MachineIDs: []string{uid("m3")}},
	})
	if !errs.Is(err, errs.KindLocked) {
		t.Fatalf("expected KindLocked on revalidate, got %v", err)
	}

	// 产出后解锁：InvalidState
	db.Model(&entity.Task{}).Where("id = ?", tasks[0].ID).Update("completed_qty", 10)
	if _, err := svc.Unlock(item.ID); !errs.Is(err, errs.KindInvalidState) {
		t.Fatalf("expected KindInvalidState on unlock with progress, got %v", err)
	}
}

// TestWorkflowUnlockThenRevalidate 无产出时可解锁重配，旧任务整体废弃重建
func TestWorkflowUnlockThenRevalidate(t *testing.T) {
	db, repos, svc := setupWorkflowTest(t)

	item := seedItemWithQuantity(t, db, uid("item-wf-004"), 100)
	testutil.SeedMachine(t, db, uid("m4"), "切割机")
	testutil.SeedMachine(t, db, uid("m5"), "折弯机")

	if _, err := svc.Validate(item.ID, []StepConfigInput{
		{Step: "POTONG", Sequence: 1, MachineIDs: []string{uid("m4")}},
	}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	unlocked, err := svc.Unlock(item.ID)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if unlocked.IsWorkflowLocked {
		t.Fatal("expected workflow unlocked")
	}

	tasks, err := svc.Validate(item.ID, []StepConfigInput{
		{Step: "BENDING", Sequence: 2, MachineIDs: []string{uid("m4"), uid("m5")}},
		{Step: "PACKING", Sequence: 3, MachineIDs: []string{uid("m5")}},
	})
	if err != nil {
		t.Fatalf("revalidate: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks after revalidation, got %d", len(tasks))
	}

	all, err := repos.Task.ListByItem(item.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected old tasks replaced, got %d tasks", len(all))
	}

	// 旧工序配置必须彻底消失，不得随 Save 被重新插回
	configs, err := repos.Item.GetWorkflow(item.ID)
	if err != nil {
		t.Fatalf("get workflow: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 persisted configs, got %d", len(configs))
	}
	for _, c := range configs {
		if c.Step == "POTONG" {
			t.Fatal("stale config POTONG survived revalidation")
		}
	}
	if first := entity.FirstStep(configs); first != "BENDING" {
		t.Fatalf("expected first step BENDING, got %s", first)
	}
}
