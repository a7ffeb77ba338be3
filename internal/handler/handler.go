package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/planner"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/registry"
	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/repository"
)

type Handler struct {
	validate     *validator.Validate
	config       *config.Config
	repository   *repository.Repository
	registry     *registry.Registry
	planner      *planner.Planner
	translator   ut.Translator
	solveChannel *amqp.Channel
	redisClient  *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, reg *registry.Registry, pl *planner.Planner, solveCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:     validate,
		config:       cfg,
		repository:   repo,
		registry:     reg,
		planner:      pl,
		translator:   trans,
		solveChannel: solveCh,
		redisClient:  rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/me", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/planning-configs", func(r chi.Router) {
			r.Get("/", h.GetAllPlanningConfigs)
			r.Post("/", h.CreatePlanningConfig)
			r.Get("/names", h.GetPlanningConfigNames)
			r.Post("/reload", h.ReloadPlanningConfigs)
			r.Route("/{name}", func(r chi.Router) {
				r.Use(h.planningConfig)
				r.Get("/", h.GetPlanningConfig)
				r.Patch("/", h.UpdatePlanningConfig)
				r.Delete("/", h.DeletePlanningConfig)
			})
		})

		r.Route("/solve", func(r chi.Router) {
			r.Post("/", h.Solve)
			r.Post("/async", h.SolveAsync)
		})

		r.Get("/solve-results/{name}", h.GetSolveResult)

		r.Post("/validate-config", h.ValidateAssignments)
	})
}
