package service

import (
	"fmt"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkflowService 工艺流程验证与任务生成。
// 验证通过是任务创建的唯一入口：按 工序×机台 的笛卡尔积整体替换任务集，
// 并置位 isWorkflowLocked。锁定后重新验证必须先走显式解锁。
type WorkflowService struct {
	itemRepo *repository.ItemRepository
	taskRepo *repository.TaskRepository
	db       *gorm.DB
}

func NewWorkflowService(itemRepo *repository.ItemRepository, taskRepo *repository.TaskRepository, db *gorm.DB) *WorkflowService {
	return &WorkflowService{itemRepo: itemRepo, taskRepo: taskRepo, db: db}
}

type StepConfigInput struct {
	Step       string   `json:"step" binding:"required"`
	Sequence   int      `json:"sequence" binding:"required"`
	MachineIDs []string `json:"machine_ids" binding:"required"`
}

// Validate 验证工艺流程并生成任务。
// 每个 (工序, 机台) 对生成一个任务，targetQty = item.Quantity；
// 旧任务整体废弃替换，不做合并。
func (s *WorkflowService) Validate(itemID string, configs []StepConfigInput) ([]entity.Task, error) {
	if len(configs) == 0 {
		return nil, errs.Validation("workflow.validate", "工艺流程不能为空")
	}
	seqSeen := make(map[int]bool, len(configs))
	for _, c := range configs {
		if c.Step == "" {
			return nil, errs.Validation("workflow.validate", "工序名不能为空")
		}
		if len(c.MachineIDs) == 0 {
			return nil, errs.Validation("workflow.validate", fmt.Sprintf("工序 %s 未分配机台", c.Step))
		}
		if seqSeen[c.Sequence] {
			return nil, errs.Validation("workflow.validate", fmt.Sprintf("工序序号 %d 重复", c.Sequence))
		}
		seqSeen[c.Sequence] = true
	}

	var tasks []entity.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		itemRepo := s.itemRepo.WithTx(tx)
		taskRepo := s.taskRepo.WithTx(tx)

		item, err := itemRepo.GetByID(itemID)
		if err != nil {
			return wrapRead(err, "workflow.validate", "ProjectItem", itemID)
		}
		if item.IsWorkflowLocked {
			return errs.Locked("workflow.validate", "ProjectItem", itemID)
		}

		// 已有产出的任务禁止被替换废弃，必须先走解锁（解锁同样会拒绝）
		progressed, err := taskRepo.CountWithProgressByItem(itemID)
		if err != nil {
			return errs.Collaborator("workflow.validate", err)
		}
		if progressed > 0 {
			return errs.InvalidState("workflow.validate", "ProjectItem", itemID, "已有任务产出，禁止重配工艺")
		}

		stepConfigs := make([]entity.ItemStepConfig, 0, len(configs))
		for _, c := range configs {
			stepConfigs = append(stepConfigs, entity.ItemStepConfig{
				ID:         uuid.New().String(),
				ItemID:     item.ID,
				Step:       c.Step,
				Sequence:   c.Sequence,
				MachineIDs: entity.StringList(c.MachineIDs),
			})
		}
		if err := itemRepo.ReplaceWorkflow(item.ID, stepConfigs); err != nil {
			return errs.Collaborator("workflow.validate", err)
		}

		// 旧配置的任务全部不可达：整体删除后重建
		if err := taskRepo.DeleteByItem(item.ID); err != nil {
			return errs.Collaborator("workflow.validate", err)
		}

		tasks = tasks[:0]
		for _, c := range configs {
			for _, machineID := range c.MachineIDs {
				tasks = append(tasks, entity.Task{
					ID:        uuid.New().String(),
					ProjectID: item.ProjectID,
					ItemID:    item.ID,
					Step:      c.Step,
					MachineID: machineID,
					TargetQty: item.Quantity,
					Status:    entity.TaskStatusPending,
				})
			}
		}
		if err := taskRepo.BatchCreate(tasks); err != nil {
			return errs.Collaborator("workflow.validate", err)
		}

		item.IsWorkflowLocked = true
		if err := itemRepo.Update(item); err != nil {
			return errs.Collaborator("workflow.validate", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Unlock 管理性解锁，不是常规流转。
// 任何任务已有产出时拒绝，避免静默丢弃生产进度。
func (s *WorkflowService) Unlock(itemID string) (*entity.ProjectItem, error) {
	var item *entity.ProjectItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		itemRepo := s.itemRepo.WithTx(tx)
		var err error
		item, err = itemRepo.GetByID(itemID)
		if err != nil {
			return wrapRead(err, "workflow.unlock", "ProjectItem", itemID)
		}
		if !item.IsWorkflowLocked {
			return errs.InvalidState("workflow.unlock", "ProjectItem", itemID, "工艺未锁定")
		}
		progressed, err := s.taskRepo.WithTx(tx).CountWithProgressByItem(itemID)
		if err != nil {
			return errs.Collaborator("workflow.unlock", err)
		}
		if progressed > 0 {
			return errs.InvalidState("workflow.unlock", "ProjectItem", itemID, "已有任务产出，禁止解锁工艺")
		}
		item.IsWorkflowLocked = false
		if err := itemRepo.Update(item); err != nil {
			return errs.Collaborator("workflow.unlock", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}
