package physics

import (
	"io"
	"log"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
	"x-avatar/internal/locomotion"
)

func testWorld() *World {
	return NewWorld(DefaultConfig(), log.New(io.Discard, "", 0))
}

func TestWorld_BodyFallsAndRestsOnGround(t *testing.T) {
	w := testWorld()
	capsule := entity.Capsule(0.5, 2)
	body := w.CreateBody("player", capsule, mgl64.Vec3{0, 5, 0}, 1)

	for i := 0; i < 300; i++ {
		w.Step(1.0 / 60)
	}

	pos := body.CenterWorld()
	if math.Abs(pos.Y()-1) > 1e-6 {
		t.Errorf("капсула должна стоять на земле (y=1), y=%f", pos.Y())
	}
	if !body.(*Body).Grounded() {
		t.Error("тело на земле должно сообщать о контакте")
	}
}

func TestWorld_OrientationUninitializedUntilFirstStep(t *testing.T) {
	w := testWorld()
	body := w.CreateBody("player", entity.Capsule(0.5, 2), mgl64.Vec3{0, 1, 0}, 1)
	if _, ok := body.Orientation(); ok {
		t.Fatal("ориентация не должна быть готова до первого шага")
	}
	w.Step(1.0 / 60)
	if _, ok := body.Orientation(); !ok {
		t.Fatal("после шага ориентация должна быть инициализирована")
	}
}

func TestWorld_HooksRunBeforeIntegration(t *testing.T) {
	w := testWorld()
	body := w.CreateBody("player", entity.Capsule(0.5, 2), mgl64.Vec3{0, 1, 0}, 1)
	var seen mgl64.Vec3
	body.OnBeforeStep(func() { seen = body.CenterWorld() })
	body.SetLinearVelocity(mgl64.Vec3{6, 0, 0})

	w.Step(0.5)
	if seen != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("обработчик должен видеть состояние до шага, видел %v", seen)
	}
}

func TestWorld_ContactTipsBodyWithoutUprightConstraint(t *testing.T) {
	w := testWorld()
	capsule := entity.Capsule(0.5, 2)
	free := w.CreateBody("free", capsule, mgl64.Vec3{0, 1, 0}, 1)
	w.CreateBody("wall", capsule, mgl64.Vec3{0.6, 1, 0}, 0)

	for i := 0; i < 30; i++ {
		w.Step(1.0 / 60)
	}
	q, _ := free.Orientation()
	up := q.Rotate(mgl64.Vec3{0, 1, 0})
	if up.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-3) {
		t.Error("без коррекции тело должно наклониться от бокового контакта")
	}
}

func TestWorld_UprightConstraintPreventsTipping(t *testing.T) {
	w := testWorld()
	capsule := entity.Capsule(0.5, 2)
	body := w.CreateBody("player", capsule, mgl64.Vec3{0, 1, 0}, 1)
	w.CreateBody("wall", capsule, mgl64.Vec3{0.6, 1, 0}, 0)
	locomotion.NewController(locomotion.DefaultConfig(), body)

	for i := 0; i < 120; i++ {
		w.Step(1.0 / 60)
	}
	q, _ := body.Orientation()
	up := q.Rotate(mgl64.Vec3{0, 1, 0})
	if !up.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("капсула с коррекцией должна стоять вертикально, вверх = %v", up)
	}
	// тела разведены на сумму радиусов
	if d := body.CenterWorld().Sub(mgl64.Vec3{0.6, 1, 0}).Len(); d < 1-1e-6 {
		t.Errorf("тела должны быть разведены, расстояние %f", d)
	}
}

func TestWorld_RemoveBody(t *testing.T) {
	w := testWorld()
	a := w.CreateBody("a", entity.Capsule(0.5, 2), mgl64.Vec3{}, 1)
	w.CreateBody("b", entity.Capsule(0.5, 2), mgl64.Vec3{}, 1)
	w.RemoveBody(a)
	if w.Bodies() != 1 {
		t.Errorf("ожидали 1 тело, осталось %d", w.Bodies())
	}
}

func TestConfig_GetReturnsCopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepRate = 30
	SetConfig(cfg)
	defer SetConfig(DefaultConfig())

	got := GetConfig()
	got.StepRate = 1
	if GetConfig().StepRate != 30 {
		t.Error("GetConfig должен возвращать копию")
	}
}
