package service

import (
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductionService 报工引擎。
// 一次报工在单事务内完成：任务计数器 → 首工序BOM扣料 → 组件末工序滚存 → 追加报工记录，
// 全部成功或全部回滚，调用方永远看不到计数器与记录不一致的中间态。
// 报工不幂等：每次调用都是增量，重复上报即重复计数，去重属于调用方。
type ProductionService struct {
	taskRepo     *repository.TaskRepository
	itemRepo     *repository.ItemRepository
	bomRepo      *repository.BomRepository
	subRepo      *repository.SubAssemblyRepository
	materialRepo *repository.MaterialRepository
	machineRepo  *repository.MachineRepository
	logRepo      *repository.LogRepository
	db           *gorm.DB
	now          func() time.Time
}

func NewProductionService(taskRepo *repository.TaskRepository, itemRepo *repository.ItemRepository, bomRepo *repository.BomRepository, subRepo *repository.SubAssemblyRepository, materialRepo *repository.MaterialRepository, machineRepo *repository.MachineRepository, logRepo *repository.LogRepository, db *gorm.DB) *ProductionService {
	return &ProductionService{
		taskRepo:     taskRepo,
		itemRepo:     itemRepo,
		bomRepo:      bomRepo,
		subRepo:      subRepo,
		materialRepo: materialRepo,
		machineRepo:  machineRepo,
		logRepo:      logRepo,
		db:           db,
		now:          time.Now,
	}
}

type ReportRequest struct {
	GoodQty   float64 `json:"good_qty"`
	DefectQty float64 `json:"defect_qty"`
	Shift     string  `json:"shift" binding:"required"`
	Operator  string  `json:"operator" binding:"required"`
}

// Report 报工。
// 任务计满 targetQty 自动转 COMPLETED 并释放机台；COMPLETED 后拒绝再报。
// 首工序报工触发BOM扣料：realized 按 良品+不良品 累加，allocated 只按良品。
// 库存允许扣为负数——产线如实上报优先，缺料由低库存信号揭示。
func (s *ProductionService) Report(taskID string, req ReportRequest) (*entity.Task, error) {
	if req.GoodQty < 0 || req.DefectQty < 0 {
		return nil, errs.Validation("production.report", "报工数量不能为负数")
	}
	if req.GoodQty == 0 && req.DefectQty == 0 {
		return nil, errs.Validation("production.report", "良品与不良品数量不能同时为零")
	}
	if !entity.ValidShift(req.Shift) {
		return nil, errs.Validation("production.report", "非法班次: "+req.Shift)
	}
	if req.Operator == "" {
		return nil, errs.Validation("production.report", "操作工不能为空")
	}

	var result *entity.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		task, err := taskRepo.GetByIDForUpdate(taskID)
		if err != nil {
			return wrapRead(err, "production.report", "Task", taskID)
		}
		if task.Status == entity.TaskStatusCompleted {
			return errs.InvalidState("production.report", "Task", taskID, "任务已完成，不再接受报工")
		}

		wasActive := task.IsActive()
		task.CompletedQty += req.GoodQty
		task.DefectQty += req.DefectQty
		if task.CompletedQty >= task.TargetQty {
			task.Status = entity.TaskStatusCompleted
			// 停机中计满：先结清在途停机区间，任务不能带着停机标记终结
			if task.DowntimeStart != nil {
				task.TotalDowntimeMinutes += int(s.now().Sub(*task.DowntimeStart) / time.Minute)
				task.DowntimeStart = nil
			}
		}
		if err := taskRepo.Update(task); err != nil {
			return errs.Collaborator("production.report", err)
		}

		// 完工自动释放机台
		if task.Status == entity.TaskStatusCompleted && wasActive {
			if err := s.releaseMachine(tx, task.MachineID); err != nil {
				return err
			}
		}

		item, err := s.itemRepo.WithTx(tx).GetByID(task.ItemID)
		if err != nil {
			return wrapRead(err, "production.report", "ProjectItem", task.ItemID)
		}

		if task.Step == entity.FirstStep(item.Workflow) {
			if err := s.applyBomEffects(tx, item.ID, req.GoodQty, req.DefectQty); err != nil {
				return err
			}
		}

		if item.FlowType == entity.FlowTypeAssembly {
			if err := s.rollupSubAssemblies(tx, item.ID, task.Step, req.GoodQty); err != nil {
				return err
			}
		}

		log := &entity.ProductionLog{
			ID:        uuid.New().String(),
			TaskID:    task.ID,
			MachineID: task.MachineID,
			ItemID:    task.ItemID,
			ProjectID: task.ProjectID,
			Step:      task.Step,
			Shift:     req.Shift,
			GoodQty:   req.GoodQty,
			DefectQty: req.DefectQty,
			Operator:  req.Operator,
			Type:      entity.LogTypeProduction,
		}
		if err := s.logRepo.WithTx(tx).Create(log); err != nil {
			return errs.Collaborator("production.report", err)
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type CorrectionRequest struct {
	GoodQty   float64 `json:"good_qty"`
	DefectQty float64 `json:"defect_qty"`
	Shift     string  `json:"shift" binding:"required"`
	Operator  string  `json:"operator" binding:"required"`
	Reason    string  `json:"reason"`
}

// ReportCorrection 冲正误报。
// 数量为待冲销的幅度（正数），效果为负向增量：任务计数器回减、首工序BOM/库存
// 对称回退，并以 CORRECTION 类型追加一条负数量记录——原记录永不修改。
// 冲正后计满线以下的 COMPLETED 任务回到 PAUSED，不直接抢占机台。
func (s *ProductionService) ReportCorrection(taskID string, req CorrectionRequest) (*entity.Task, error) {
	if req.GoodQty < 0 || req.DefectQty < 0 {
		return nil, errs.Validation("production.correct", "冲正幅度不能为负数")
	}
	if req.GoodQty == 0 && req.DefectQty == 0 {
		return nil, errs.Validation("production.correct", "良品与不良品冲正幅度不能同时为零")
	}
	if !entity.ValidShift(req.Shift) {
		return nil, errs.Validation("production.correct", "非法班次: "+req.Shift)
	}
	if req.Operator == "" {
		return nil, errs.Validation("production.correct", "操作工不能为空")
	}

	var result *entity.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		task, err := taskRepo.GetByIDForUpdate(taskID)
		if err != nil {
			return wrapRead(err, "production.correct", "Task", taskID)
		}
		if req.GoodQty > task.CompletedQty || req.DefectQty > task.DefectQty {
			return errs.Validation("production.correct", "冲正幅度超过已报数量")
		}

		task.CompletedQty -= req.GoodQty
		task.DefectQty -= req.DefectQty
		if task.Status == entity.TaskStatusCompleted && task.CompletedQty < task.TargetQty {
			task.Status = entity.TaskStatusPaused
		}
		if err := taskRepo.Update(task); err != nil {
			return errs.Collaborator("production.correct", err)
		}

		item, err := s.itemRepo.WithTx(tx).GetByID(task.ItemID)
		if err != nil {
			return wrapRead(err, "production.correct", "ProjectItem", task.ItemID)
		}

		if task.Step == entity.FirstStep(item.Workflow) {
			if err := s.applyBomEffects(tx, item.ID, -req.GoodQty, -req.DefectQty); err != nil {
				return err
			}
		}

		if item.FlowType == entity.FlowTypeAssembly {
			if err := s.rollupSubAssemblies(tx, item.ID, task.Step, -req.GoodQty); err != nil {
				return err
			}
		}

		log := &entity.ProductionLog{
			ID:        uuid.New().String(),
			TaskID:    task.ID,
			MachineID: task.MachineID,
			ItemID:    task.ItemID,
			ProjectID: task.ProjectID,
			Step:      task.Step,
			Shift:     req.Shift,
			GoodQty:   -req.GoodQty,
			DefectQty: -req.DefectQty,
			Operator:  req.Operator,
			Type:      entity.LogTypeCorrection,
		}
		if err := s.logRepo.WithTx(tx).Create(log); err != nil {
			return errs.Collaborator("production.correct", err)
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyBomEffects 首工序投料效果：扣减原材料库存并累加BOM计数器。
// goodQty/defectQty 为负数时即冲正的对称回退。
func (s *ProductionService) applyBomEffects(tx *gorm.DB, itemID string, goodQty, defectQty float64) error {
	bomRepo := s.bomRepo.WithTx(tx)
	materialRepo := s.materialRepo.WithTx(tx)

	boms, err := bomRepo.ListByItemForUpdate(itemID)
	if err != nil {
		return errs.Collaborator("production.bomEffects", err)
	}
	processed := goodQty + defectQty
	for i := range boms {
		bom := &boms[i]
		material, err := materialRepo.GetByIDForUpdate(bom.MaterialID)
		if err != nil {
			return wrapRead(err, "production.bomEffects", "Material", bom.MaterialID)
		}

		material.CurrentStock -= processed * bom.QuantityPerUnit
		if err := materialRepo.Update(material); err != nil {
			return errs.Collaborator("production.bomEffects", err)
		}

		bom.Realized += processed * bom.QuantityPerUnit
		bom.Allocated += goodQty * bom.QuantityPerUnit
		if err := bomRepo.Update(bom); err != nil {
			return errs.Collaborator("production.bomEffects", err)
		}
	}
	return nil
}

// rollupSubAssemblies 组件末道工序报工时滚存成品数。
// 负向（冲正）时在组件行锁下校验：回退后的末道产出不得低于已领用量，
// 否则会悄悄打破 消耗 ≤ 产出 的不变式。
func (s *ProductionService) rollupSubAssemblies(tx *gorm.DB, itemID, step string, goodQty float64) error {
	if goodQty == 0 {
		return nil
	}
	subRepo := s.subRepo.WithTx(tx)
	subs, err := subRepo.ListByItem(itemID)
	if err != nil {
		return errs.Collaborator("production.rollup", err)
	}
	for i := range subs {
		if len(subs[i].Processes) == 0 || subs[i].Processes[len(subs[i].Processes)-1] != step {
			continue
		}
		sub, err := subRepo.GetByIDForUpdate(subs[i].ID)
		if err != nil {
			return wrapRead(err, "production.rollup", "SubAssembly", subs[i].ID)
		}
		if goodQty < 0 {
			produced, err := s.logRepo.WithTx(tx).SumGoodByItemStep(sub.ItemID, step)
			if err != nil {
				return errs.Collaborator("production.rollup", err)
			}
			if produced+goodQty < sub.ConsumedQty {
				return errs.Conflict("production.rollup", "SubAssembly", sub.ID, "冲正后末道产出将低于组件已领用量")
			}
		}
		sub.CompletedQty += goodQty
		if sub.CompletedQty < 0 {
			sub.CompletedQty = 0
		}
		if err := subRepo.Update(sub); err != nil {
			return errs.Collaborator("production.rollup", err)
		}
	}
	return nil
}

func (s *ProductionService) releaseMachine(tx *gorm.DB, machineID string) error {
	machineRepo := s.machineRepo.WithTx(tx)
	machine, err := machineRepo.GetByIDForUpdate(machineID)
	if err != nil {
		return wrapRead(err, "production.releaseMachine", "Machine", machineID)
	}
	machine.Status = entity.MachineStatusIdle
	if err := machineRepo.Update(machine); err != nil {
		return errs.Collaborator("production.releaseMachine", err)
	}
	return nil
}

// Logs 报工流水查询
func (s *ProductionService) Logs(params repository.LogListParams) ([]entity.ProductionLog, int64, error) {
	logs, total, err := s.logRepo.List(params)
	if err != nil {
		return nil, 0, errs.Collaborator("production.logs", err)
	}
	return logs, total, nil
}

// LogsByTask 单任务的报工记录
func (s *ProductionService) LogsByTask(taskID string) ([]entity.ProductionLog, error) {
	logs, err := s.logRepo.ListByTask(taskID)
	if err != nil {
		return nil, errs.Collaborator("production.logsByTask", err)
	}
	return logs, nil
}
