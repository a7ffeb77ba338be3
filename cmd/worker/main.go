package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/planner"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/repository"
	"github.com/wneessen/go-mail"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// repoSource 直接从数据库读取配置，保证 worker 总是使用最新版本
type repoSource struct {
	repo *repository.Repository
}

func (s *repoSource) Names() []string {
	names, err := s.repo.GetPlanningConfigNames()
	if err != nil {
		slog.Error("无法获取配置名字", "error", err)
		return nil
	}
	return names
}

func (s *repoSource) Get(name string) (*domain.PlanningConfig, bool) {
	cfg, err := s.repo.GetPlanningConfigByName(name)
	if err != nil {
		return nil, false
	}
	return cfg, true
}

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", slog.String("error", err.Error()))
		return
	}
	defer dbpool.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", slog.String("error", err.Error()))
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 创建排班引擎
	 **********************************************/
	pl := planner.New(&repoSource{repo: repo}, planner.Parameters{
		TimeBudget: time.Duration(cfg.Solver.TimeBudget) * time.Second,
		Seed:       cfg.Solver.Seed,
	})

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 声明队列
	q, err := ch.QueueDeclare(
		"solve_queue", // 队列名称
		true,          // 是否持久化
		false,         // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
		false,         // 是否独占，即是否允许多个消费者访问这个队列
		false,         // 是否不等待，设置为 false，即等待 RabbitMQ 确认队列是否创建成功
		nil,           // 额外参数
	)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识，设置为空字符串，表示由 RabbitMQ 自动分配
		false,  // 是否自动确认消息
		false,  // 是否独占队列
		false,  // 是否禁止消费者接受自己发送的消息，必须设置为 false，因为 RabbitMQ 不支持这个参数
		false,  // 是否不等待，等待 RabbitMQ 响应
		nil,    // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("收到求解任务", slog.String("message", string(msg.Body)))

				job := domain.SolveJob{}
				if err := json.Unmarshal(msg.Body, &job); err != nil {
					logger.Error("求解任务反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				result := runJob(pl, cfg, job)

				if err := repo.InsertSolveResult(result); err != nil {
					logger.Error("无法保存求解结果", slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // 将消息重新入队
					continue
				}
				logger.Info("求解完成", "configName", result.ConfigName, "status", result.Status, "duration", result.DurationSeconds)

				if job.NotifyEmail != "" {
					if err := sendResultMail(client, cfg, job.NotifyEmail, result); err != nil {
						// 邮件失败不影响结果的保存，只记日志
						logger.Error("结果通知邮件发送失败", slog.String("error", err.Error()))
					}
				}

				_ = msg.Ack(false)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待求解任务...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	slog.Info("正在关闭 solve worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	slog.Info("solve worker 已成功关闭")
}

// runJob 执行一次求解，引擎内部错误会转换成 ERROR 状态的结果保存下来
func runJob(pl *planner.Planner, cfg *config.Config, job domain.SolveJob) *domain.SolveResult {
	params := planner.Parameters{
		TimeBudget: time.Duration(cfg.Solver.TimeBudget) * time.Second,
		Seed:       cfg.Solver.Seed,
	}
	if job.TimeBudget > 0 {
		params.TimeBudget = time.Duration(job.TimeBudget) * time.Second
	}
	if job.Seed != 0 {
		params.Seed = job.Seed
	}

	startedAt := time.Now()
	result, err := pl.Solve(planner.SolveRequest{
		ConfigName: job.ConfigName,
		Parameters: &params,
	})
	if err == nil {
		return result
	}

	finishedAt := time.Now()
	errResult := &domain.SolveResult{
		ConfigName:      job.ConfigName,
		Status:          domain.StatusError,
		Assignments:     []domain.DutyAssignment{},
		StartedAt:       startedAt,
		FinishedAt:      finishedAt,
		DurationSeconds: finishedAt.Sub(startedAt).Seconds(),
	}

	kind := domain.DiagnosticConfig
	var solverErr *planner.SolverError
	if errors.As(err, &solverErr) {
		kind = "solver"
	}
	errResult.Diagnostics = []domain.Diagnostic{{Kind: kind, Message: err.Error()}}

	return errResult
}

func sendResultMail(client *mail.Client, cfg *config.Config, to string, result *domain.SolveResult) error {
	msg := mail.NewMsg()
	if err := msg.From(cfg.Email.SMTP.Username); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}

	tmpl, err := template.ParseFiles("./templates/solve_result_email.html")
	if err != nil {
		return err
	}

	data := struct {
		ConfigName      string
		Status          string
		AssignmentCount int
		DurationSeconds float64
		FinishedAt      string
	}{
		ConfigName:      result.ConfigName,
		Status:          string(result.Status),
		AssignmentCount: len(result.Assignments),
		DurationSeconds: result.DurationSeconds,
		FinishedAt:      result.FinishedAt.Format("2006-01-02 15:04:05"),
	}
	if err := msg.SetBodyHTMLTemplate(tmpl, data); err != nil {
		return err
	}
	msg.Subject("排班系统 - 求解结果")

	return client.DialAndSend(msg)
}
