package service

import (
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
)

// StatsService 读侧投影。
// 全部指标从任务表+报工记录实时推导，不落任何可变汇总字段，避免漂移。
type StatsService struct {
	itemRepo     *repository.ItemRepository
	subRepo      *repository.SubAssemblyRepository
	taskRepo     *repository.TaskRepository
	logRepo      *repository.LogRepository
	materialRepo *repository.MaterialRepository
}

func NewStatsService(itemRepo *repository.ItemRepository, subRepo *repository.SubAssemblyRepository, taskRepo *repository.TaskRepository, logRepo *repository.LogRepository, materialRepo *repository.MaterialRepository) *StatsService {
	return &StatsService{itemRepo: itemRepo, subRepo: subRepo, taskRepo: taskRepo, logRepo: logRepo, materialRepo: materialRepo}
}

// StepStat 单工序产量统计
type StepStat struct {
	Step      string  `json:"step"`
	Produced  float64 `json:"produced"`
	Available float64 `json:"available"`
}

// SubAssemblyStepStats 组件逐工序统计。
// produced = 该工序累计良品；中间工序的 available = 本工序产出 - 下道工序已投入，
// 末道工序的 available = 产出 - 显式消耗（consume 操作）。
func (s *StatsService) SubAssemblyStepStats(subAssemblyID string) ([]StepStat, error) {
	sub, err := s.subRepo.GetByID(subAssemblyID)
	if err != nil {
		return nil, wrapRead(err, "stats.subAssemblySteps", "SubAssembly", subAssemblyID)
	}

	produced := make([]float64, len(sub.Processes))
	for i, step := range sub.Processes {
		p, err := s.logRepo.SumGoodByItemStep(sub.ItemID, step)
		if err != nil {
			return nil, errs.Collaborator("stats.subAssemblySteps", err)
		}
		produced[i] = p
	}

	stats := make([]StepStat, len(sub.Processes))
	for i, step := range sub.Processes {
		available := produced[i]
		if i+1 < len(produced) {
			available -= produced[i+1]
		} else {
			available -= sub.ConsumedQty
		}
		if available < 0 {
			available = 0
		}
		stats[i] = StepStat{Step: step, Produced: produced[i], Available: available}
	}
	return stats, nil
}

// ItemStepStat 产出物某工序的产量
func (s *StatsService) ItemStepStat(itemID, step string) (*StepStat, error) {
	produced, err := s.logRepo.SumGoodByItemStep(itemID, step)
	if err != nil {
		return nil, errs.Collaborator("stats.itemStep", err)
	}
	return &StepStat{Step: step, Produced: produced, Available: produced}, nil
}

// ItemCompletion 产出物整体完成率：末道工序（包装）任务的累计良品 / 目标量，夹在 [0,100]
func (s *StatsService) ItemCompletion(itemID string) (float64, error) {
	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return 0, wrapRead(err, "stats.itemCompletion", "ProjectItem", itemID)
	}
	if item.Quantity <= 0 || len(item.Workflow) == 0 {
		return 0, nil
	}

	lastStep := entity.LastStep(item.Workflow)
	tasks, err := s.taskRepo.ListByItemStep(itemID, lastStep)
	if err != nil {
		return 0, errs.Collaborator("stats.itemCompletion", err)
	}
	var completed float64
	for _, t := range tasks {
		completed += t.CompletedQty
	}

	pct := completed / item.Quantity * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}

// ShiftSummary 某机台某班次当日良品/不良品合计
func (s *StatsService) ShiftSummary(machineID, shift string, day time.Time) (*repository.ShiftTotals, error) {
	if !entity.ValidShift(shift) {
		return nil, errs.Validation("stats.shiftSummary", "非法班次: "+shift)
	}
	totals, err := s.logRepo.SumByMachineShiftDate(machineID, shift, day)
	if err != nil {
		return nil, errs.Collaborator("stats.shiftSummary", err)
	}
	return totals, nil
}

// LowStockAlerts 低库存预警（currentStock < safetyStock 的原材料）
func (s *StatsService) LowStockAlerts() ([]entity.Material, error) {
	materials, err := s.materialRepo.ListLowStock()
	if err != nil {
		return nil, errs.Collaborator("stats.lowStock", err)
	}
	return materials, nil
}
