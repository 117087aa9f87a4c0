package service

import (
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"gorm.io/gorm"
)

func setupProjectTest(t *testing.T) (*gorm.DB, *repository.Repositories, *ProjectService, *ItemService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	projectSvc := NewProjectService(repos.Project, repos.Item, repos.Bom, repos.SubAssembly, db)
	itemSvc := NewItemService(repos.Item, repos.Project, repos.Bom, repos.SubAssembly, repos.Task, db)
	return db, repos, projectSvc, itemSvc
}

// TestProjectTargetCascade 项目目标因子变更后整条数量层级联动重算
func TestProjectTargetCascade(t *testing.T) {
	db, repos, projectSvc, itemSvc := setupProjectTest(t)

	project, err := projectSvc.Create(CreateProjectRequest{
		Name:           "测试项目",
		QtyPerUnit:     2,
		ProcurementQty: 50,
	}, "test-user")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if project.TotalQty != 100 {
		t.Fatalf("expected total_qty 100, got %v", project.TotalQty)
	}

	item, err := itemSvc.Create(project.ID, CreateItemRequest{
		Name:   "外壳",
		QtySet: 1,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.Quantity != 100 {
		t.Fatalf("expected item quantity 100, got %v", item.Quantity)
	}

	// 挂一条BOM与一个组件，验证级联
	testutil.SeedMaterial(t, db, uid("mat-001"), 1000, 100)
	bom := &entity.BomItem{
		ID:              uid("bom-001"),
		ItemID:          item.ID,
		MaterialID:      uid("mat-001"),
		QuantityPerUnit: 0.5,
		TotalRequired:   50,
	}
	if err := db.Create(bom).Error; err != nil {
		t.Fatalf("seed bom: %v", err)
	}
	sub := &entity.SubAssembly{
		ID:           uid("sub-001"),
		ItemID:       item.ID,
		Name:         "左支架",
		QtyPerParent: 2,
		TotalNeeded:  200,
		Processes:    entity.StringList{"POTONG", "BENDING"},
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("seed sub: %v", err)
	}

	// 修改目标因子：2×50 → 3×40 = 120
	updated, err := projectSvc.UpdateTargets(project.ID, UpdateTargetsRequest{
		QtyPerUnit:     3,
		ProcurementQty: 40,
	})
	if err != nil {
		t.Fatalf("update targets: %v", err)
	}
	if updated.TotalQty != 120 {
		t.Fatalf("expected total_qty 120, got %v", updated.TotalQty)
	}

	gotItem, _ := repos.Item.GetByID(item.ID)
	if gotItem.Quantity != 120 {
		t.Fatalf("expected item quantity 120, got %v", gotItem.Quantity)
	}

	var gotBom entity.BomItem
	db.Where("id = ?", uid("bom-001")).First(&gotBom)
	if gotBom.TotalRequired != 60 {
		t.Fatalf("expected bom total_required 60, got %v", gotBom.TotalRequired)
	}

	var gotSub entity.SubAssembly
	db.Where("id = ?", uid("sub-001")).First(&gotSub)
	if gotSub.TotalNeeded != 240 {
		t.Fatalf("expected sub total_needed 240, got %v", gotSub.TotalNeeded)
	}
}

// TestProjectLockFreezesTargets 锁定后目标因子冻结
func TestProjectLockFreezesTargets(t *testing.T) {
	_, _, projectSvc, _ := setupProjectTest(t)

	project, err := projectSvc.Create(CreateProjectRequest{
		Name:           "锁定项目",
		QtyPerUnit:     1,
		ProcurementQty: 10,
	}, "test-user")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	locked, err := projectSvc.Lock(project.ID)
	if err != nil {
		t.Fatalf("lock project: %v", err)
	}
	if !locked.IsLocked {
		t.Fatal("expected project to be locked")
	}
	if locked.Status != entity.ProjectStatusInProgress {
		t.Fatalf("expected status IN_PROGRESS after lock, got %s", locked.Status)
	}

	_, err = projectSvc.UpdateTargets(project.ID, UpdateTargetsRequest{
		QtyPerUnit:     5,
		ProcurementQty: 5,
	})
	if !errs.Is(err, errs.KindLocked) {
		t.Fatalf("expected KindLocked, got %v", err)
	}

	// 已锁定项目不可删除
	if err := projectSvc.Delete(project.ID); !errs.Is(err, errs.KindLocked) {
		t.Fatalf("expected KindLocked on delete, got %v", err)
	}
}

// TestProjectCreateValidation 目标因子必须为正
func TestProjectCreateValidation(t *testing.T) {
	_, _, projectSvc, _ := setupProjectTest(t)

	_, err := projectSvc.Create(CreateProjectRequest{
		Name:           "非法项目",
		QtyPerUnit:     0,
		ProcurementQty: 10,
	}, "test-user")
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

// TestItemQtySetFrozenAfterWorkflowLock 工艺锁定后 QtySet 禁改
func TestItemQtySetFrozenAfterWorkflowLock(t *testing.T) {
	db, _, projectSvc, itemSvc := setupProjectTest(t)

	project, _ := projectSvc.Create(CreateProjectRequest{
		Name:           "项目",
		QtyPerUnit:     1,
		ProcurementQty: 100,
	}, "test-user")
	item, _ := itemSvc.Create(project.ID, CreateItemRequest{Name: "面板", QtySet: 1})

	db.Model(&entity.ProjectItem{}).Where("id = ?", item.ID).Update("is_workflow_locked", true)

	newQty := 2.0
	_, err := itemSvc.Update(item.ID, UpdateItemRequest{QtySet: &newQty})
	if !errs.Is(err, errs.KindLocked) {
		t.Fatalf("expected KindLocked, got %v", err)
	}

	// 名称类修改不受锁影响
	if _, err := itemSvc.Update(item.ID, UpdateItemRequest{Name: "前面板"}); err != nil {
		t.Fatalf("rename should pass: %v", err)
	}
}
