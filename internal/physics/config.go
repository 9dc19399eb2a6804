package physics

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Config содержит настройки встроенного физического мира
type Config struct {
	// Gravity - ускорение свободного падения
	Gravity mgl64.Vec3

	// GroundHeight - высота плоскости земли
	GroundHeight float64

	// LinearDamping - затухание линейного движения в секунду
	LinearDamping float64

	// AngularDamping - затухание углового движения в секунду
	AngularDamping float64

	// Restitution - коэффициент отскока от земли
	Restitution float64

	// ContactTipping - сила опрокидывающего момента при боковом контакте
	ContactTipping float64

	// StepRate - частота шага симуляции
	StepRate int
}

var (
	globalConfig *Config
	configMutex  sync.RWMutex
)

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Gravity:        mgl64.Vec3{0, -9.81, 0},
		GroundHeight:   0,
		LinearDamping:  0.05,
		AngularDamping: 0.3,
		Restitution:    0.1,
		ContactTipping: 2.0,
		StepRate:       60,
	}
}

// GetConfig возвращает копию текущей конфигурации
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Создаем копию, чтобы избежать гонок данных
	config := *globalConfig
	return &config
}

// SetConfig устанавливает новую конфигурацию
func SetConfig(config *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()

	newConfig := *config
	globalConfig = &newConfig
}
