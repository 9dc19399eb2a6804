package game

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// FrameSystem интерфейс для всех систем кадра
type FrameSystem interface {
	Update(deltaTime time.Duration) error
	GetName() string
	GetPriority() int // Приоритет выполнения (меньше = раньше)
}

// FrameLoop однопоточный цикл кадра клиента.
// Все системы выполняются последовательно в одной горутине, поэтому
// состояние сцены, физики и реестра аватаров меняется только здесь.
type FrameLoop struct {
	// Конфигурация
	targetFPS     int
	frameDuration time.Duration
	maxFrameTime  time.Duration

	// Состояние
	isRunning     bool
	frameCount    uint64
	startTime     time.Time
	lastFrameTime time.Time

	// Системы
	systems      []FrameSystem
	systemsMutex sync.RWMutex

	perfMonitor *PerformanceMonitor

	// Метрики
	averageFrameTime time.Duration
	maxObservedFrame time.Duration
	skippedFrames    uint64
	statsMutex       sync.RWMutex

	logger           *log.Logger
	warningThreshold time.Duration
}

// SystemMetrics метрики производительности системы
type SystemMetrics struct {
	Name              string
	LastExecutionTime time.Duration
	AverageTime       time.Duration
	MaxTime           time.Duration
	TotalExecutions   uint64
	Errors            uint64

	// Скользящее окно для вычисления среднего
	recentTimes  []time.Duration
	recentIndex  int
	windowFilled bool
}

// PerformanceMonitor отслеживает производительность каждой системы
type PerformanceMonitor struct {
	systemMetrics map[string]*SystemMetrics
	mutex         sync.RWMutex

	metricsWindow     int
	warningThreshold  time.Duration
	criticalThreshold time.Duration
}

// NewFrameLoop создает цикл кадра; warningRatio - доля длительности кадра,
// после которой кадр считается медленным
func NewFrameLoop(targetFPS int, warningRatio float64, logger *log.Logger) *FrameLoop {
	if targetFPS <= 0 {
		targetFPS = 60
	}
	if warningRatio <= 0 || warningRatio > 1 {
		warningRatio = 0.8
	}
	if logger == nil {
		logger = log.Default()
	}

	frameDuration := time.Second / time.Duration(targetFPS)

	return &FrameLoop{
		targetFPS:        targetFPS,
		frameDuration:    frameDuration,
		maxFrameTime:     frameDuration * 2,
		systems:          make([]FrameSystem, 0),
		perfMonitor:      NewPerformanceMonitor(50, frameDuration/4),
		logger:           logger,
		warningThreshold: time.Duration(float64(frameDuration) * warningRatio),
	}
}

// NewPerformanceMonitor создает новый монитор производительности
func NewPerformanceMonitor(windowSize int, warningThreshold time.Duration) *PerformanceMonitor {
	if windowSize <= 0 {
		windowSize = 50
	}
	return &PerformanceMonitor{
		systemMetrics:     make(map[string]*SystemMetrics),
		metricsWindow:     windowSize,
		warningThreshold:  warningThreshold,
		criticalThreshold: warningThreshold * 2,
	}
}

// FrameDuration целевая длительность кадра
func (fl *FrameLoop) FrameDuration() time.Duration { return fl.frameDuration }

// RegisterSystem добавляет систему в цикл
func (fl *FrameLoop) RegisterSystem(system FrameSystem) {
	fl.systemsMutex.Lock()
	defer fl.systemsMutex.Unlock()

	fl.systems = append(fl.systems, system)

	// Сортируем по приоритету (меньше = выше приоритет)
	for i := len(fl.systems) - 1; i > 0; i-- {
		if fl.systems[i].GetPriority() < fl.systems[i-1].GetPriority() {
			fl.systems[i], fl.systems[i-1] = fl.systems[i-1], fl.systems[i]
		} else {
			break
		}
	}

	fl.perfMonitor.initSystemMetrics(system.GetName())

	fl.logger.Printf("[FrameLoop] Зарегистрирована система: %s (приоритет: %d)",
		system.GetName(), system.GetPriority())
}

// SystemNames имена систем в порядке выполнения
func (fl *FrameLoop) SystemNames() []string {
	fl.systemsMutex.RLock()
	defer fl.systemsMutex.RUnlock()

	names := make([]string, len(fl.systems))
	for i, s := range fl.systems {
		names[i] = s.GetName()
	}
	return names
}

// Run выполняет кадры в вызывающей горутине до отмены ctx
func (fl *FrameLoop) Run(ctx context.Context) error {
	fl.statsMutex.Lock()
	fl.isRunning = true
	fl.startTime = time.Now()
	fl.statsMutex.Unlock()
	fl.lastFrameTime = fl.startTime

	fl.logger.Printf("[FrameLoop] Запуск цикла кадра: %d FPS (кадр каждые %v)",
		fl.targetFPS, fl.frameDuration)

	ticker := time.NewTicker(fl.frameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fl.statsMutex.Lock()
			fl.isRunning = false
			fl.statsMutex.Unlock()
			fl.logger.Printf("[FrameLoop] Остановка цикла кадра (выполнено кадров: %d)", fl.FrameCount())
			fl.LogSummary()
			return nil
		case frameTime := <-ticker.C:
			deltaTime := frameTime.Sub(fl.lastFrameTime)
			if deltaTime > fl.frameDuration*2 {
				fl.logger.Printf("[FrameLoop] ПРЕДУПРЕЖДЕНИЕ: Большая задержка между кадрами: %v (ожидалось: %v)",
					deltaTime, fl.frameDuration)
				fl.statsMutex.Lock()
				fl.skippedFrames++
				fl.statsMutex.Unlock()
			}
			fl.lastFrameTime = frameTime
			fl.Step(deltaTime)
		}
	}
}

// Step выполняет один кадр: все системы по порядку приоритета.
// Ошибка или паника системы не прерывает кадр и следующие кадры.
func (fl *FrameLoop) Step(deltaTime time.Duration) {
	frameStart := time.Now()

	fl.statsMutex.Lock()
	fl.frameCount++
	fl.statsMutex.Unlock()

	fl.systemsMutex.RLock()
	systems := make([]FrameSystem, len(fl.systems))
	copy(systems, fl.systems)
	fl.systemsMutex.RUnlock()

	for _, system := range systems {
		fl.executeSystem(system, deltaTime)
	}

	total := time.Since(frameStart)
	fl.updateFrameMetrics(total)
	fl.checkPerformance(total)
}

// executeSystem выполняет одну систему с замером времени
func (fl *FrameLoop) executeSystem(system FrameSystem, deltaTime time.Duration) {
	systemStart := time.Now()
	systemName := system.GetName()

	defer func() {
		if r := recover(); r != nil {
			fl.logger.Printf("[FrameLoop] КРИТИЧЕСКАЯ ОШИБКА в системе %s: %v", systemName, r)
			fl.perfMonitor.recordError(systemName)
		}
	}()

	err := system.Update(deltaTime)

	executionTime := time.Since(systemStart)
	fl.perfMonitor.recordExecution(systemName, executionTime)

	if err != nil {
		fl.logger.Printf("[FrameLoop] Ошибка в системе %s: %v", systemName, err)
		fl.perfMonitor.recordError(systemName)
	}
}

// FrameCount количество выполненных кадров
func (fl *FrameLoop) FrameCount() uint64 {
	fl.statsMutex.RLock()
	defer fl.statsMutex.RUnlock()
	return fl.frameCount
}

// PerfMonitor монитор производительности систем
func (fl *FrameLoop) PerfMonitor() *PerformanceMonitor { return fl.perfMonitor }

// GetStats возвращает статистику цикла кадра
func (fl *FrameLoop) GetStats() map[string]interface{} {
	fl.statsMutex.RLock()
	defer fl.statsMutex.RUnlock()

	uptime := time.Since(fl.startTime)
	actualFPS := 0.0
	if !fl.startTime.IsZero() && uptime > 0 {
		actualFPS = float64(fl.frameCount) / uptime.Seconds()
	}

	return map[string]interface{}{
		"target_fps":         fl.targetFPS,
		"actual_fps":         actualFPS,
		"frame_count":        fl.frameCount,
		"average_frame_time": fl.averageFrameTime,
		"max_observed_frame": fl.maxObservedFrame,
		"skipped_frames":     fl.skippedFrames,
		"is_running":         fl.isRunning,
		"systems_count":      len(fl.systems),
	}
}

// LogSummary выводит итоговую статистику цикла, время каждой системы и медленные системы
func (fl *FrameLoop) LogSummary() {
	stats := fl.GetStats()
	fl.logger.Printf("[FrameLoop] Итог: кадров %v, FPS %.1f, среднее время кадра %v, максимум %v, пропущено %v",
		stats["frame_count"], stats["actual_fps"], stats["average_frame_time"],
		stats["max_observed_frame"], stats["skipped_frames"])

	systems := fl.perfMonitor.GetSystemsStats()
	names := make([]string, 0, len(systems))
	for name := range systems {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := systems[name].(map[string]interface{})
		fl.logger.Printf("[FrameLoop]   %s: среднее %v, максимум %v, вызовов %v, ошибок %v",
			name, s["average_time"], s["max_time"], s["total_executions"], s["errors"])
	}

	if slow := fl.perfMonitor.SlowSystems(); len(slow) > 0 {
		sort.Strings(slow)
		fl.logger.Printf("[FrameLoop] ПРЕДУПРЕЖДЕНИЕ: Медленные системы: %v", slow)
	}
}

func (fl *FrameLoop) updateFrameMetrics(frameTime time.Duration) {
	fl.statsMutex.Lock()
	defer fl.statsMutex.Unlock()

	if frameTime > fl.maxObservedFrame {
		fl.maxObservedFrame = frameTime
	}

	// Простое скользящее среднее
	if fl.averageFrameTime == 0 {
		fl.averageFrameTime = frameTime
	} else {
		fl.averageFrameTime = (fl.averageFrameTime*9 + frameTime) / 10
	}
}

func (fl *FrameLoop) checkPerformance(frameTime time.Duration) {
	if frameTime > fl.maxFrameTime {
		fl.logger.Printf("[FrameLoop] КРИТИЧЕСКОЕ ПРЕДУПРЕЖДЕНИЕ: Кадр превысил максимальное время! %v > %v (цель: %v)",
			frameTime, fl.maxFrameTime, fl.frameDuration)
	} else if frameTime > fl.warningThreshold {
		fl.logger.Printf("[FrameLoop] ПРЕДУПРЕЖДЕНИЕ: Медленный кадр: %v (цель: %v)",
			frameTime, fl.frameDuration)
	}
}

func (pm *PerformanceMonitor) initSystemMetrics(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.systemMetrics[systemName] = &SystemMetrics{
		Name:        systemName,
		recentTimes: make([]time.Duration, pm.metricsWindow),
	}
}

func (pm *PerformanceMonitor) recordExecution(systemName string, executionTime time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	metrics, exists := pm.systemMetrics[systemName]
	if !exists {
		return
	}

	metrics.LastExecutionTime = executionTime
	metrics.TotalExecutions++

	if executionTime > metrics.MaxTime {
		metrics.MaxTime = executionTime
	}

	metrics.recentTimes[metrics.recentIndex] = executionTime
	metrics.recentIndex = (metrics.recentIndex + 1) % pm.metricsWindow

	if !metrics.windowFilled && metrics.recentIndex == 0 {
		metrics.windowFilled = true
	}

	pm.recalculateAverage(metrics)
}

func (pm *PerformanceMonitor) recordError(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if metrics, exists := pm.systemMetrics[systemName]; exists {
		metrics.Errors++
	}
}

func (pm *PerformanceMonitor) recalculateAverage(metrics *SystemMetrics) {
	var total time.Duration
	var count int

	limit := pm.metricsWindow
	if !metrics.windowFilled {
		limit = metrics.recentIndex
	}

	for i := 0; i < limit; i++ {
		total += metrics.recentTimes[i]
		count++
	}

	if count > 0 {
		metrics.AverageTime = total / time.Duration(count)
	}
}

// Metrics копия метрик системы
func (pm *PerformanceMonitor) Metrics(systemName string) (SystemMetrics, bool) {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	m, ok := pm.systemMetrics[systemName]
	if !ok {
		return SystemMetrics{}, false
	}
	out := *m
	out.recentTimes = nil
	return out, true
}

// SlowSystems системы, среднее время которых превышает порог предупреждения
func (pm *PerformanceMonitor) SlowSystems() []string {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	var slow []string
	for name, m := range pm.systemMetrics {
		if m.AverageTime > pm.warningThreshold {
			slow = append(slow, name)
		}
	}
	return slow
}

func (pm *PerformanceMonitor) GetSystemsStats() map[string]interface{} {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	systemsStats := make(map[string]interface{})

	for name, metrics := range pm.systemMetrics {
		systemsStats[name] = map[string]interface{}{
			"last_execution_time": metrics.LastExecutionTime,
			"average_time":        metrics.AverageTime,
			"max_time":            metrics.MaxTime,
			"total_executions":    metrics.TotalExecutions,
			"errors":              metrics.Errors,
			"critical":            metrics.MaxTime > pm.criticalThreshold,
		}
	}

	return systemsStats
}
