package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/buildgrid/cpm"
)

const version = "1.0.0"

type config struct {
	DatabaseURL    string
	Addr           string
	LogLevel       string
	LogFormat      string
	Environment    string
	AllowedOrigins []string
}

func loadConfig() config {
	return config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Addr:           envOr("ADDR", ":3000"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFormat:      envOr("LOG_FORMAT", "text"),
		Environment:    envOr("ENVIRONMENT", "development"),
		AllowedOrigins: strings.Split(envOr("ALLOWED_ORIGINS", "*"), ","),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(level, format string, out io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// structValidator plugs go-playground/validator into Fiber's Bind pipeline,
// so c.Bind().JSON also enforces the validate tags on the domain types.
type structValidator struct {
	validate *validator.Validate
}

func (v *structValidator) Validate(out any) error {
	return v.validate.Struct(out)
}

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "cpm_http_request_duration_seconds",
	Help:    "HTTP request latency by method, route and status.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// timing adds the X-Process-Time header, records the request in the latency
// histogram and logs requests slower than one second.
func timing(logger *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		c.Set("X-Process-Time", strconv.FormatFloat(elapsed.Seconds(), 'f', 6, 64))
		httpRequestDuration.WithLabelValues(
			c.Method(), c.Route().Path, strconv.Itoa(c.Response().StatusCode()),
		).Observe(elapsed.Seconds())
		if elapsed > time.Second {
			logger.Warn("slow request",
				"method", c.Method(),
				"path", c.Path(),
				"duration_ms", elapsed.Milliseconds(),
				"client_ip", c.IP(),
			)
		}
		return err
	}
}

// planSummary is the effort roll-up shown in the planning view.
type planSummary struct {
	TotalTasks           int       `json:"total_tasks"`
	TotalEffortDays      int       `json:"total_effort_days"`
	SequentialEffortDays int       `json:"sequential_effort_days"`
	EarliestStart        *cpm.Date `json:"earliest_start"`
	LatestFinish         *cpm.Date `json:"latest_finish"`
	ParallelismFactor    float64   `json:"parallelism_factor"`
}

// summarizePlan totals task effort and, where planned dates exist, the span
// from the earliest planned start to the latest planned finish. The
// parallelism factor compares total effort against that span; 1 means fully
// sequential.
func summarizePlan(tasks []cpm.Task) planSummary {
	sum := planSummary{TotalTasks: len(tasks)}
	for _, t := range tasks {
		sum.TotalEffortDays += t.DurationDays
		if t.PlannedStart != nil && (sum.EarliestStart == nil || t.PlannedStart.Before(*sum.EarliestStart)) {
			sum.EarliestStart = t.PlannedStart
		}
		if t.PlannedFinish != nil && (sum.LatestFinish == nil || t.PlannedFinish.After(*sum.LatestFinish)) {
			sum.LatestFinish = t.PlannedFinish
		}
	}
	sum.ParallelismFactor = 1
	if sum.EarliestStart != nil && sum.LatestFinish != nil {
		sum.SequentialEffortDays = sum.EarliestStart.DaysUntil(*sum.LatestFinish)
		if sum.SequentialEffortDays > 0 {
			sum.ParallelismFactor = float64(sum.TotalEffortDays) / float64(sum.SequentialEffortDays)
		}
	}
	return sum
}

// newApp wires middleware and routes around a Store. The server binary backs
// it with postgres; tests back it with an in-memory store.
func newApp(store cpm.Store, logger *slog.Logger, cfg config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:         "cpm scheduling service",
		StructValidator: &structValidator{validate: validator.New()},
	})

	app.Use(recoverer.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
	}))
	app.Use(limiter.New(limiter.Config{Max: 100, Expiration: time.Minute}))
	app.Use(timing(logger))

	// ── Health and metrics ────────────────────────────────────────────
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"version":     version,
			"environment": cfg.Environment,
			"database":    "postgres",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Projects ──────────────────────────────────────────────────────
	app.Post("/projects", func(c fiber.Ctx) error {
		var project cpm.Project
		if err := c.Bind().JSON(&project); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body", "detail": err.Error()})
		}
		id, err := store.CreateProject(c.Context(), &project)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Info("project created", "project_id", id, "name", project.Name)
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/projects", func(c fiber.Ctx) error {
		projects, err := store.ListProjects(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(projects)
	})

	app.Get("/projects/:id", func(c fiber.Ctx) error {
		project, err := store.GetProject(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if project == nil {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		return c.JSON(project)
	})

	app.Put("/projects/:id", func(c fiber.Ctx) error {
		var project cpm.Project
		if err := c.Bind().JSON(&project); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body", "detail": err.Error()})
		}
		project.ID = c.Params("id")
		err := store.UpdateProject(c.Context(), &project)
		if errors.Is(err, cpm.ErrProjectNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Delete("/projects/:id", func(c fiber.Ctx) error {
		if err := store.DeleteProject(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Plans (bulk) ──────────────────────────────────────────────────
	app.Post("/projects/import", func(c fiber.Ctx) error {
		var plan cpm.ProjectPlan
		if err := c.Bind().JSON(&plan); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body", "detail": err.Error()})
		}
		result, err := store.ImportPlan(c.Context(), &plan)
		var cycleErr *cpm.CycleError
		if errors.As(err, &cycleErr) {
			return c.Status(422).JSON(fiber.Map{"error": "cycle detected", "unordered_task_ids": cycleErr.Unordered})
		}
		if errors.Is(err, cpm.ErrInvalidInput) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Info("plan imported", "project_id", result.Project.ID, "tasks", len(result.Tasks))
		return c.Status(201).JSON(result)
	})

	// ── Tasks ─────────────────────────────────────────────────────────
	app.Post("/projects/:id/tasks", func(c fiber.Ctx) error {
		projectID := c.Params("id")
		project, err := store.GetProject(c.Context(), projectID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if project == nil {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		var task cpm.Task
		if err := c.Bind().JSON(&task); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body", "detail": err.Error()})
		}
		id, err := store.AddTask(c.Context(), projectID, &task)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/projects/:id/tasks", func(c fiber.Ctx) error {
		tasks, err := store.ListTasks(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(tasks)
	})

	app.Get("/tasks/:id", func(c fiber.Ctx) error {
		task, err := store.GetTask(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if task == nil {
			return c.Status(404).JSON(fiber.Map{"error": "task not found"})
		}
		return c.JSON(task)
	})

	app.Put("/tasks/:id", func(c fiber.Ctx) error {
		var task cpm.Task
		if err := c.Bind().JSON(&task); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body", "detail": err.Error()})
		}
		task.ID = c.Params("id")
		err := store.UpdateTask(c.Context(), &task)
		if errors.Is(err, cpm.ErrTaskNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "task not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Delete("/tasks/:id", func(c fiber.Ctx) error {
		if err := store.DeleteTask(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Dependencies ──────────────────────────────────────────────────
	app.Post("/projects/:id/dependencies", func(c fiber.Ctx) error {
		projectID := c.Params("id")
		project, err := store.GetProject(c.Context(), projectID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if project == nil {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		var dep cpm.Dependency
		if err := c.Bind().JSON(&dep); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body", "detail": err.Error()})
		}
		id, err := store.AddDependency(c.Context(), projectID, &dep)
		var cycleErr *cpm.CycleError
		if errors.As(err, &cycleErr) {
			return c.Status(422).JSON(fiber.Map{"error": "cycle detected", "unordered_task_ids": cycleErr.Unordered})
		}
		if errors.Is(err, cpm.ErrInvalidInput) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/projects/:id/dependencies", func(c fiber.Ctx) error {
		deps, err := store.ListDependencies(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(deps)
	})

	app.Delete("/dependencies/:id", func(c fiber.Ctx) error {
		if err := store.DeleteDependency(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Scheduling ────────────────────────────────────────────────────
	app.Post("/projects/:id/schedule", func(c fiber.Ctx) error {
		projectID := c.Params("id")
		plan, err := store.GetPlan(c.Context(), projectID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if plan == nil {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}

		projectSched, taskScheds, err := cpm.Compute(plan.Project, plan.Tasks, plan.Dependencies)
		var cycleErr *cpm.CycleError
		if errors.As(err, &cycleErr) {
			return c.Status(422).JSON(fiber.Map{"error": "cycle detected", "unordered_task_ids": cycleErr.Unordered})
		}
		if errors.Is(err, cpm.ErrInvalidInput) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		if err := store.SavePlannedDates(c.Context(), projectID, taskScheds); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		logger.Info("schedule computed",
			"project_id", projectID,
			"tasks", len(taskScheds),
			"finish_date", projectSched.FinishDate.String(),
			"critical_tasks", len(projectSched.CriticalPathTaskIDs),
		)
		return c.JSON(fiber.Map{
			"project_schedule": projectSched,
			"task_schedules":   taskScheds,
		})
	})

	app.Get("/projects/:id/planning", func(c fiber.Ctx) error {
		plan, err := store.GetPlan(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if plan == nil {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		return c.JSON(fiber.Map{
			"project":  plan.Project,
			"planning": summarizePlan(plan.Tasks),
			"tasks":    plan.Tasks,
		})
	})

	// ── Costs and alerts ──────────────────────────────────────────────
	app.Get("/projects/:id/costs", func(c fiber.Ctx) error {
		projectID := c.Params("id")
		project, err := store.GetProject(c.Context(), projectID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if project == nil {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		tasks, err := store.ListTasks(c.Context(), projectID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(cpm.ProjectCosts(projectID, tasks))
	})

	app.Get("/projects/:id/alerts", func(c fiber.Ctx) error {
		projectID := c.Params("id")
		project, err := store.GetProject(c.Context(), projectID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if project == nil {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		tasks, err := store.ListTasks(c.Context(), projectID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(cpm.ScheduleAlerts(tasks, cpm.DateOf(time.Now())))
	})

	// ── Demo ──────────────────────────────────────────────────────────
	app.Post("/demo/setup", func(c fiber.Ctx) error {
		plan, err := store.ImportPlan(c.Context(), demoPlan())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		projectSched, taskScheds, err := cpm.Compute(plan.Project, plan.Tasks, plan.Dependencies)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if err := store.SavePlannedDates(c.Context(), plan.Project.ID, taskScheds); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Info("demo project created", "project_id", plan.Project.ID)
		return c.Status(201).JSON(fiber.Map{
			"message":    "demo project created and scheduled",
			"project_id": plan.Project.ID,
			"schedule":   projectSched,
		})
	})

	return app
}
