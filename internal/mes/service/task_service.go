package service

import (
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"gorm.io/gorm"
)

// TaskService 任务生命周期状态机。
// PENDING → IN_PROGRESS ⇄ PAUSED，IN_PROGRESS ⇄ DOWNTIME，完成由报工引擎隐式触发。
// 启动/恢复时的"机台无其它活跃任务"检查与状态写入在同一事务的机台行锁下完成。
// PAUSED 不占用机台；恢复时重新竞争机台。
type TaskService struct {
	taskRepo    *repository.TaskRepository
	machineRepo *repository.MachineRepository
	db          *gorm.DB

	now func() time.Time
}

func NewTaskService(taskRepo *repository.TaskRepository, machineRepo *repository.MachineRepository, db *gorm.DB) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		machineRepo: machineRepo,
		db:          db,
		now:         time.Now,
	}
}

func (s *TaskService) GetByID(id string) (*entity.Task, error) {
	t, err := s.taskRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "task.get", "Task", id)
	}
	return t, nil
}

func (s *TaskService) List(params repository.TaskListParams) ([]entity.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(params)
	if err != nil {
		return nil, 0, errs.Collaborator("task.list", err)
	}
	return tasks, total, nil
}

// Start 启动任务：PENDING → IN_PROGRESS，机台镜像为 RUNNING
func (s *TaskService) Start(id string) (*entity.Task, error) {
	return s.occupyMachine(id, "task.start", entity.TaskStatusPending)
}

// Resume 恢复暂停的任务：PAUSED → IN_PROGRESS，重新竞争机台
func (s *TaskService) Resume(id string) (*entity.Task, error) {
	return s.occupyMachine(id, "task.resume", entity.TaskStatusPaused)
}

// occupyMachine 检查再占用：机台行锁下确认无其它活跃任务后流转到 IN_PROGRESS
func (s *TaskService) occupyMachine(id, op, fromStatus string) (*entity.Task, error) {
	var result *entity.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		machineRepo := s.machineRepo.WithTx(tx)

		task, err := taskRepo.GetByIDForUpdate(id)
		if err != nil {
			return wrapRead(err, op, "Task", id)
		}
		if task.Status != fromStatus {
			return errs.InvalidState(op, "Task", id, "当前状态["+task.Status+"]不允许该操作")
		}

		machine, err := machineRepo.GetByIDForUpdate(task.MachineID)
		if err != nil {
			return wrapRead(err, op, "Machine", task.MachineID)
		}
		if machine.IsMaintenance {
			return errs.Conflict(op, "Machine", machine.ID, "机台维护中")
		}

		active, err := taskRepo.GetActiveByMachine(task.MachineID, task.ID)
		if err != nil {
			return errs.Collaborator(op, err)
		}
		if active != nil {
			return errs.Conflict(op, "Machine", machine.ID, "机台已有活跃任务 "+active.ID)
		}

		task.Status = entity.TaskStatusInProgress
		if err := taskRepo.Update(task); err != nil {
			return errs.Collaborator(op, err)
		}

		machine.Status = entity.MachineStatusRunning
		if err := machineRepo.Update(machine); err != nil {
			return errs.Collaborator(op, err)
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Pause 暂停任务：IN_PROGRESS → PAUSED，释放机台（镜像为 IDLE）
func (s *TaskService) Pause(id string) (*entity.Task, error) {
	var result *entity.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		task, err := taskRepo.GetByIDForUpdate(id)
		if err != nil {
			return wrapRead(err, "task.pause", "Task", id)
		}
		if task.Status != entity.TaskStatusInProgress {
			return errs.InvalidState("task.pause", "Task", id, "当前状态["+task.Status+"]不允许暂停")
		}
		task.Status = entity.TaskStatusPaused
		if err := taskRepo.Update(task); err != nil {
			return errs.Collaborator("task.pause", err)
		}
		if err := s.mirrorMachine(tx, task.MachineID, entity.MachineStatusIdle); err != nil {
			return err
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StartDowntime 进入停机：IN_PROGRESS → DOWNTIME，记录起始时刻，机台镜像为 DOWNTIME
func (s *TaskService) StartDowntime(id string) (*entity.Task, error) {
	var result *entity.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		task, err := taskRepo.GetByIDForUpdate(id)
		if err != nil {
			return wrapRead(err, "task.startDowntime", "Task", id)
		}
		if task.Status != entity.TaskStatusInProgress {
			return errs.InvalidState("task.startDowntime", "Task", id, "当前状态["+task.Status+"]不允许停机")
		}
		now := s.now()
		task.Status = entity.TaskStatusDowntime
		task.DowntimeStart = &now
		if err := taskRepo.Update(task); err != nil {
			return errs.Collaborator("task.startDowntime", err)
		}
		if err := s.mirrorMachine(tx, task.MachineID, entity.MachineStatusDowntime); err != nil {
			return err
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EndDowntime 结束停机：DOWNTIME → IN_PROGRESS，按整分钟累计停机时长
func (s *TaskService) EndDowntime(id string) (*entity.Task, error) {
	var result *entity.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		task, err := taskRepo.GetByIDForUpdate(id)
		if err != nil {
			return wrapRead(err, "task.endDowntime", "Task", id)
		}
		if task.Status != entity.TaskStatusDowntime {
			return errs.InvalidState("task.endDowntime", "Task", id, "当前状态["+task.Status+"]不是停机")
		}
		if task.DowntimeStart == nil {
			return errs.InvalidState("task.endDowntime", "Task", id, "停机起始时刻缺失")
		}

		elapsed := int(s.now().Sub(*task.DowntimeStart) / time.Minute)
		task.TotalDowntimeMinutes += elapsed
		task.DowntimeStart = nil
		task.Status = entity.TaskStatusInProgress
		if err := taskRepo.Update(task); err != nil {
			return errs.Collaborator("task.endDowntime", err)
		}
		if err := s.mirrorMachine(tx, task.MachineID, entity.MachineStatusRunning); err != nil {
			return err
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TaskService) mirrorMachine(tx *gorm.DB, machineID, status string) error {
	machineRepo := s.machineRepo.WithTx(tx)
	machine, err := machineRepo.GetByIDForUpdate(machineID)
	if err != nil {
		return wrapRead(err, "task.mirrorMachine", "Machine", machineID)
	}
	machine.Status = status
	if err := machineRepo.Update(machine); err != nil {
		return errs.Collaborator("task.mirrorMachine", err)
	}
	return nil
}
