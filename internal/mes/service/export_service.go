package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService 生产报表导出（Excel）
type ExportService struct {
	machineRepo *repository.MachineRepository
	logRepo     *repository.LogRepository
	stats       *StatsService
}

func NewExportService(machineRepo *repository.MachineRepository, logRepo *repository.LogRepository, stats *StatsService) *ExportService {
	return &ExportService{machineRepo: machineRepo, logRepo: logRepo, stats: stats}
}

// ShiftSummaryWorkbook 当日全机台三班产量汇总表
func (s *ExportService) ShiftSummaryWorkbook(day time.Time) (*excelize.File, error) {
	machines, err := s.machineRepo.List()
	if err != nil {
		return nil, errs.Collaborator("export.shiftSummary", err)
	}

	f := excelize.NewFile()
	sheet := "班次汇总"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"机台编号", "机台名称", "班次", "良品", "不良品", "报工次数"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	row := 2
	shifts := []string{entity.Shift1, entity.Shift2, entity.Shift3}
	for _, m := range machines {
		for _, shift := range shifts {
			totals, err := s.logRepo.SumByMachineShiftDate(m.ID, shift, day)
			if err != nil {
				return nil, errs.Collaborator("export.shiftSummary", err)
			}
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), m.Code)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), m.Name)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), shift)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), totals.GoodQty)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), totals.DefectQty)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), totals.Reports)
			row++
		}
	}
	return f, nil
}

// ProductionLogWorkbook 报工流水导出
func (s *ExportService) ProductionLogWorkbook(params repository.LogListParams) (*excelize.File, error) {
	// 导出不分页，一次取全量
	params.Page = 1
	params.Size = 100000
	logs, _, err := s.logRepo.List(params)
	if err != nil {
		return nil, errs.Collaborator("export.productionLog", err)
	}

	f := excelize.NewFile()
	sheet := "报工流水"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"时间", "项目", "产出物", "工序", "机台", "班次", "良品", "不良品", "操作工", "类型"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, l := range logs {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), l.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), l.ProjectID)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), l.ItemID)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), l.Step)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), l.MachineID)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), l.Shift)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), l.GoodQty)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), l.DefectQty)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), l.Operator)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), l.Type)
	}
	return f, nil
}
