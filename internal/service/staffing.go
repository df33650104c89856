package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"carewise-staffing/internal/config"
	"carewise-staffing/internal/consumer"
	"carewise-staffing/internal/database"
	"carewise-staffing/internal/domain"
	"carewise-staffing/internal/engine"
	"carewise-staffing/internal/metrics"
	"carewise-staffing/internal/repository"
	"carewise-staffing/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Repository 排班数据持久层接口（单元测试中可替换）
type Repository interface {
	LoadSnapshot(facilityID string) (*domain.Snapshot, error)
	ApplySchedule(snap *domain.Snapshot, week *domain.WeekSchedule) error
}

// RunResult 单次排班运行的完整输出（缓存到 Redis 供外围服务读取）
type RunResult struct {
	RunID                 string                            `json:"run_id"`
	FacilityID            string                            `json:"facility_id"`
	SectionID             string                            `json:"section_id,omitempty"`
	GeneratedAt           time.Time                         `json:"generated_at"`
	Requirements          map[string]*domain.ShiftStaffing  `json:"shift_requirements"`
	SkillMix              domain.SkillMix                   `json:"skill_mix"`
	Schedule              *domain.WeekSchedule              `json:"schedule"`
	WeeklyRecommendations []domain.WeeklyRecommendation     `json:"weekly_recommendations"`
	ShiftRecommendations  []domain.ShiftRecommendation      `json:"shift_recommendations"`
	Insights              *domain.FacilityInsights          `json:"insights"`
}

// StaffingService 人力推荐服务
type StaffingService struct {
	config        *config.Config
	logger        *zap.Logger
	db            *sql.DB
	redisClient   *redis.Client
	repo          Repository
	engine        *engine.Engine
	kv            store.KVStore
	publisher     store.StreamPublisher
	eventConsumer *consumer.EventConsumer
}

// RunCompletedEvent 运行完成通知（发布到结果流，供下游服务消费）
type RunCompletedEvent struct {
	EventType       string `json:"event_type"`
	FacilityID      string `json:"facility_id"`
	SectionID       string `json:"section_id,omitempty"`
	RunID           string `json:"run_id"`
	WeekStart       string `json:"week_start"`
	ConfidenceScore int    `json:"confidence_score"`
	Timestamp       int64  `json:"timestamp"`
}

// NewStaffingService 创建人力推荐服务
func NewStaffingService(cfg *config.Config, logger *zap.Logger) (*StaffingService, error) {
	// 初始化数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 初始化 Redis（用于事件驱动模式和结果缓存）
	redisClient := store.NewRedisClient(&cfg.Redis)
	if err := store.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	repo := repository.NewStaffingRepository(db, logger)
	kv := store.NewRedisKVStore(redisClient)

	svc := newService(cfg, logger, repo, kv)
	svc.db = db
	svc.redisClient = redisClient
	svc.publisher = store.NewRedisStreamPublisher(redisClient)

	// 创建事件消费者（如果使用事件驱动模式）
	if cfg.Staffing.TriggerMode == "events" {
		svc.eventConsumer = consumer.NewEventConsumer(
			redisClient,
			svc,
			logger,
			cfg.Staffing.EventStream,
			cfg.Staffing.ConsumerGroup,
			cfg.Staffing.ConsumerName,
			int64(cfg.Staffing.BatchSize),
		)
	}

	return svc, nil
}

// newService 组装服务核心（外部连接由调用方注入，便于单元测试）
func newService(cfg *config.Config, logger *zap.Logger, repo Repository, kv store.KVStore) *StaffingService {
	params := engine.DefaultParams()
	if cfg.Staffing.HoursPerStaff > 0 {
		params.HoursPerStaff = cfg.Staffing.HoursPerStaff
	}
	return &StaffingService{
		config: cfg,
		logger: logger,
		repo:   repo,
		engine: engine.New(params, logger),
		kv:     kv,
	}
}

// Start 启动服务
func (s *StaffingService) Start(ctx context.Context) error {
	s.logger.Info("Starting staffing service",
		zap.String("trigger_mode", s.config.Staffing.TriggerMode),
		zap.Bool("apply_schedule", s.config.Staffing.ApplySchedule),
	)

	// 启动指标服务
	if s.config.Metrics.Addr != "" {
		go s.serveMetrics(ctx)
	}

	switch s.config.Staffing.TriggerMode {
	case "polling":
		return s.startPollingMode(ctx)
	case "events":
		return s.eventConsumer.Start(ctx)
	default:
		return fmt.Errorf("unsupported trigger mode: %s", s.config.Staffing.TriggerMode)
	}
}

// Stop 停止服务并释放连接
func (s *StaffingService) Stop(ctx context.Context) error {
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	return database.Close(s.db)
}

// serveMetrics 暴露 Prometheus 指标
func (s *StaffingService) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{Addr: s.config.Metrics.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Metrics server listening", zap.String("addr", s.config.Metrics.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Metrics server error", zap.Error(err))
	}
}

// startPollingMode 启动轮询模式
func (s *StaffingService) startPollingMode(ctx context.Context) error {
	if s.config.Staffing.FacilityID == "" {
		return fmt.Errorf("facility_id is required, please set FACILITY_ID environment variable")
	}

	interval := time.Duration(s.config.Staffing.Polling.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting polling mode",
		zap.Duration("interval", interval),
	)

	// 首次立即执行一次
	if err := s.RunFacility(ctx, s.config.Staffing.FacilityID, s.config.Staffing.SectionID, time.Now()); err != nil {
		s.logger.Error("Failed to run staffing on startup", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.RunFacility(ctx, s.config.Staffing.FacilityID, s.config.Staffing.SectionID, time.Now()); err != nil {
				s.logger.Error("Failed to run staffing", zap.Error(err))
			}
		}
	}
}

// RunFacility 执行一次完整的排班推荐运行：
// 装载快照 → 护理分析 → 人力需求 → 周排班 → 推荐与洞察 → 缓存结果。
// sectionID 非空时护理分析与人力测算只覆盖该分区的住户。
func (s *StaffingService) RunFacility(ctx context.Context, facilityID, sectionID string, target time.Time) error {
	start := time.Now()
	metrics.RunsTotal.Inc()

	snap, err := s.repo.LoadSnapshot(facilityID)
	if err != nil {
		metrics.RunErrorsTotal.Inc()
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	analyses := s.engine.AnalyzeResidents(snap, sectionID)
	requirements := s.engine.StaffingRequirements(snap, analyses, sectionID)
	week := s.engine.BuildWeekSchedule(snap, target)

	result := &RunResult{
		RunID:                 week.RunID,
		FacilityID:            facilityID,
		SectionID:             sectionID,
		GeneratedAt:           time.Now().UTC(),
		Requirements:          make(map[string]*domain.ShiftStaffing, len(requirements)),
		Schedule:              week,
		WeeklyRecommendations: s.engine.WeeklyRecommendations(analyses),
		ShiftRecommendations:  s.engine.OptimalShiftRecommendations(snap, requirements),
		Insights:              s.engine.FacilityInsights(snap, analyses),
	}

	peakStaff := 0
	for slot, req := range requirements {
		result.Requirements[slot.String()] = req
		if req.TotalStaffRecommended > peakStaff {
			peakStaff = req.TotalStaffRecommended
		}
	}
	result.SkillMix = s.engine.SkillMix(peakStaff)

	if err := s.cacheResult(ctx, result); err != nil {
		metrics.RunErrorsTotal.Inc()
		return err
	}

	if s.config.Staffing.ApplySchedule {
		if err := s.repo.ApplySchedule(snap, week); err != nil {
			metrics.RunErrorsTotal.Inc()
			return fmt.Errorf("failed to apply schedule: %w", err)
		}
	}

	s.publishRunCompleted(ctx, facilityID, sectionID, week)

	s.recordRunMetrics(week, len(analyses))
	metrics.RunDurationSeconds.Observe(time.Since(start).Seconds())

	s.logger.Info("Completed staffing run",
		zap.String("facility_id", facilityID),
		zap.String("section_id", sectionID),
		zap.String("run_id", week.RunID),
		zap.Int("residents_analyzed", len(analyses)),
		zap.Int("confidence_score", week.ConfidenceScore),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// cacheResult 把运行结果缓存到 Redis（键按周一日期区分）
func (s *StaffingService) cacheResult(ctx context.Context, result *RunResult) error {
	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}

	weekStart := ""
	if len(result.Schedule.WeekDates) > 0 {
		weekStart = result.Schedule.WeekDates[0]
	}
	key := fmt.Sprintf("staffing:%s:week:%s", result.FacilityID, weekStart)
	if result.SectionID != "" {
		// 分区过滤的运行不覆盖整设施的缓存
		key = fmt.Sprintf("staffing:%s:section:%s:week:%s", result.FacilityID, result.SectionID, weekStart)
	}

	ttl := time.Duration(s.config.Staffing.CacheTTL) * time.Second
	if err := s.kv.Set(ctx, key, string(jsonData), ttl); err != nil {
		return fmt.Errorf("failed to cache run result: %w", err)
	}

	s.logger.Debug("Cached staffing run result",
		zap.String("key", key),
		zap.Int("bytes", len(jsonData)),
	)
	return nil
}

// publishRunCompleted 发布运行完成通知。通知是尽力而为的，失败只记日志，
// 不影响本次运行的结果。
func (s *StaffingService) publishRunCompleted(ctx context.Context, facilityID, sectionID string, week *domain.WeekSchedule) {
	stream := s.config.Staffing.ResultStream
	if s.publisher == nil || stream == "" {
		return
	}

	weekStart := ""
	if len(week.WeekDates) > 0 {
		weekStart = week.WeekDates[0]
	}
	event := RunCompletedEvent{
		EventType:       "staffing.run_completed",
		FacilityID:      facilityID,
		SectionID:       sectionID,
		RunID:           week.RunID,
		WeekStart:       weekStart,
		ConfidenceScore: week.ConfidenceScore,
		Timestamp:       time.Now().Unix(),
	}
	if _, err := s.publisher.Publish(ctx, stream, event); err != nil {
		s.logger.Warn("Failed to publish run completed event",
			zap.String("stream", stream),
			zap.Error(err),
		)
	}
}

// recordRunMetrics 更新最近一次运行的指标
func (s *StaffingService) recordRunMetrics(week *domain.WeekSchedule, residents int) {
	totalShifts := 0
	fullyCovered := 0
	unmet := 0
	for _, day := range week.Days {
		for _, shift := range day.Shifts {
			if shift.Status != domain.StatusOptimized {
				continue
			}
			totalShifts++
			if len(shift.AssignedStaff) >= shift.RequiredStaff {
				fullyCovered++
			} else {
				unmet += shift.RequiredStaff - len(shift.AssignedStaff)
			}
		}
	}

	metrics.ShiftsGenerated.Set(float64(totalShifts))
	metrics.ShiftsFullyCovered.Set(float64(fullyCovered))
	metrics.UnmetStaffingDemand.Set(float64(unmet))
	metrics.LastConfidenceScore.Set(float64(week.ConfidenceScore))
	metrics.ResidentsAnalyzed.Set(float64(residents))
}
