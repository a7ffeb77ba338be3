package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateSlugFromChineseName 把中文名字转换成拼音加数字的 ASCII 标识
func GenerateSlugFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	slug := ""

	for _, p := range pinyinArray {
		slug += p
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		slug += string(digits[rand.Intn(len(digits))])
	}

	return slug
}

var dutyTemplatePool = []domain.DutyTemplate{
	{Code: "早班", RequiredEmployees: 2, StartTime: "09:00", EndTime: "12:00"},
	{Code: "午班", RequiredEmployees: 2, StartTime: "13:30", EndTime: "18:00"},
	{Code: "晚班", RequiredEmployees: 1, StartTime: "19:00", EndTime: "21:00"},
	{Code: "夜班", RequiredEmployees: 1, StartTime: "22:00", EndTime: "02:00"},
}

// GenerateRandomPlanningConfig 生成一个从明天开始、为期一周的随机排班配置
func GenerateRandomPlanningConfig(employeeCount int) *domain.PlanningConfig {
	startDate := time.Now().AddDate(0, 0, 1)
	endDate := startDate.AddDate(0, 0, 6)

	owner := GenerateRandomChineseName()
	cfg := &domain.PlanningConfig{
		Name:        GenerateSlugFromChineseName(owner) + "-roster",
		Description: fmt.Sprintf("%s 负责的随机排班配置", owner),
		StartDate:   startDate.Format(domain.DateLayout),
		EndDate:     endDate.Format(domain.DateLayout),
		Employees:   make([]domain.Employee, 0, employeeCount),
	}

	for i := 0; i < employeeCount; i++ {
		emp := domain.Employee{
			ID:               int64(i + 1),
			Name:             GenerateRandomChineseName(),
			MaxDaysInARow:    rand.Intn(4) + 3, // 3~6
			MaxHoursPerDay:   float64(rand.Intn(4) + 6),
			MaxHoursInPeriod: float64(rand.Intn(20) + 30),
			WorkPercentage:   100,
		}

		// 大约一半的员工有一个随机的休息日
		if rand.Intn(2) == 0 {
			offDay := startDate.AddDate(0, 0, rand.Intn(7))
			emp.OffDays = []string{offDay.Format(domain.DateLayout)}
		}

		cfg.Employees = append(cfg.Employees, emp)
	}

	templateCount := rand.Intn(len(dutyTemplatePool)) + 1
	cfg.DutyTemplates = append(cfg.DutyTemplates, dutyTemplatePool[:templateCount]...)

	return cfg
}
