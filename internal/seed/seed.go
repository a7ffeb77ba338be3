package seed

import (
	"time"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/repository"
)

// SeedDemoData 插入一份固定的演示配置，方便本地开发时快速体验求解流程
func SeedDemoData(repo *repository.Repository) error {
	startDate := time.Now().AddDate(0, 0, 1)
	endDate := startDate.AddDate(0, 0, 6)

	cfg := &domain.PlanningConfig{
		Name:        "值班室",
		Description: "值班室一周排班的演示配置",
		StartDate:   startDate.Format(domain.DateLayout),
		EndDate:     endDate.Format(domain.DateLayout),
		Employees: []domain.Employee{
			{
				ID:               1,
				Name:             "张伟",
				MaxDaysInARow:    3,
				MaxHoursPerDay:   8,
				MaxHoursInPeriod: 30,
				WorkPercentage:   100,
				OffDays:          []string{startDate.AddDate(0, 0, 2).Format(domain.DateLayout)},
			},
			{
				ID:               2,
				Name:             "李娜",
				MaxDaysInARow:    4,
				MaxHoursPerDay:   8,
				MaxHoursInPeriod: 35,
				WorkPercentage:   100,
			},
			{
				ID:               3,
				Name:             "王磊",
				MaxDaysInARow:    3,
				MaxHoursPerDay:   6,
				MaxHoursInPeriod: 25,
				WorkPercentage:   80,
				OffDays: []string{
					startDate.AddDate(0, 0, 5).Format(domain.DateLayout),
					startDate.AddDate(0, 0, 6).Format(domain.DateLayout),
				},
			},
			{
				ID:               4,
				Name:             "陈静",
				MaxDaysInARow:    5,
				MaxHoursPerDay:   8,
				MaxHoursInPeriod: 40,
				WorkPercentage:   100,
			},
		},
		DutyTemplates: []domain.DutyTemplate{
			{Code: "早班", RequiredEmployees: 2, StartTime: "09:00", EndTime: "12:00"},
			{Code: "午班", RequiredEmployees: 2, StartTime: "13:30", EndTime: "18:00"},
			{Code: "晚班", RequiredEmployees: 1, StartTime: "19:00", EndTime: "22:00"},
		},
	}

	return repo.CreatePlanningConfig(cfg)
}
