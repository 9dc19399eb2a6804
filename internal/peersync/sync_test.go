package peersync

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-avatar/internal/core/domain/entity"
	"x-avatar/internal/physics"
	"x-avatar/internal/scene/headless"
	"x-avatar/internal/telemetry"
)

// recordingPublisher запоминает отправленные сообщения
type recordingPublisher struct {
	sent []interface{}
	err  error
}

func (p *recordingPublisher) Send(v interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, v)
	return nil
}

type fixture struct {
	sync  *Sync
	scene *headless.Scene
	world *physics.World
	out   *recordingPublisher
	stats *telemetry.Manager
	clock time.Time
}

func newFixture(t *testing.T, staleAfter time.Duration) *fixture {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	f := &fixture{
		scene: headless.New(),
		world: physics.NewWorld(physics.DefaultConfig(), logger),
		out:   &recordingPublisher{},
		stats: telemetry.NewManager(true, time.Minute, logger),
		clock: time.Unix(1000, 0),
	}
	factory := NewFactory(f.scene, f.world, entity.Capsule(0.5, 2))
	f.sync = NewSync("Player42", factory, f.out, Options{
		StaleAfter: staleAfter,
		Stats:      f.stats,
		Logger:     logger,
		Now:        func() time.Time { return f.clock },
	})
	return f
}

func TestSync_FirstSightingCreatesAvatarOnce(t *testing.T) {
	f := newFixture(t, 0)

	if err := f.sync.HandleMessage([]byte(`{"type":"update","name":"Player7","position":[1,2,3],"rotation":[0,1,0]}`)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if f.sync.Registry().Len() != 1 {
		t.Fatalf("ожидали 1 аватар, получили %d", f.sync.Registry().Len())
	}
	a, ok := f.sync.Registry().Get("Player7")
	if !ok {
		t.Fatal("аватар Player7 не создан")
	}
	if a.Color != entity.ColorForID(7) {
		t.Errorf("цвет должен вычисляться из id 7: %v", a.Color)
	}
	mesh, ok := f.scene.Mesh("Player7")
	if !ok || mesh.Color != a.Color || mesh.Position != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("меш должен получить цвет и позу: %+v", mesh)
	}
	if a.Body.CenterWorld() != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("тело должно переместиться: %v", a.Body.CenterWorld())
	}

	f.sync.HandleMessage([]byte(`{"type":"update","name":"Player7","position":[4,5,6]}`))
	if f.sync.Registry().Len() != 1 || f.scene.MeshCount() != 1 || f.world.Bodies() != 1 {
		t.Fatalf("повторное обновление не должно создавать дубликат")
	}
	again, _ := f.sync.Registry().Get("Player7")
	if again != a || a.Position != (mgl64.Vec3{4, 5, 6}) {
		t.Errorf("обновление должно менять ту же запись: %+v", again)
	}
	if f.stats.Total(telemetry.CounterSpawned) != 1 {
		t.Errorf("ожидали 1 создание, получили %d", f.stats.Total(telemetry.CounterSpawned))
	}
}

func TestSync_MissingRotationKeepsPrevious(t *testing.T) {
	f := newFixture(t, 0)
	f.sync.HandleMessage([]byte(`{"type":"update","name":"Player7","position":[0,0,0],"rotation":[0.1,0.2,0.3]}`))
	f.sync.HandleMessage([]byte(`{"type":"update","name":"Player7","position":[1,0,0]}`))

	a, _ := f.sync.Registry().Get("Player7")
	if !a.HasRotation || a.Rotation != (mgl64.Vec3{0.1, 0.2, 0.3}) {
		t.Errorf("ориентация должна сохраниться: %v", a.Rotation)
	}
	mesh, _ := f.scene.Mesh("Player7")
	if mesh.Rotation != (mgl64.Vec3{0.1, 0.2, 0.3}) {
		t.Errorf("ориентация меша не должна сбрасываться: %v", mesh.Rotation)
	}
}

func TestSync_BatchBeforeFirstSighting(t *testing.T) {
	f := newFixture(t, 0)
	err := f.sync.HandleMessage([]byte(`{"type":"update","players":[{"name":"Player9","position":[5,1,5]}]}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	a, ok := f.sync.Registry().Get("Player9")
	if !ok || f.sync.Registry().Len() != 1 {
		t.Fatal("ожидали ровно один новый аватар Player9")
	}
	if a.Position != (mgl64.Vec3{5, 1, 5}) {
		t.Errorf("ожидали позицию (5,1,5), получили %v", a.Position)
	}
	if a.HasRotation || a.Rotation != (mgl64.Vec3{}) {
		t.Errorf("ориентация должна остаться незаданной: %v", a.Rotation)
	}
}

func TestSync_SelfUpdatesIgnored(t *testing.T) {
	f := newFixture(t, 0)
	f.sync.HandleMessage([]byte(`{"type":"update","name":"Player42","position":[1,2,3],"rotation":[0,0,0]}`))
	f.sync.HandleMessage([]byte(`{"type":"update","players":[{"name":"Player42","position":[9,9,9]},{"name":"Player1","position":[0,1,0]}]}`))
	if _, ok := f.sync.Registry().Get("Player42"); ok {
		t.Error("собственные обновления не должны попадать в реестр")
	}
	if f.sync.Registry().Len() != 1 {
		t.Errorf("ожидали только Player1, получили %v", f.sync.Registry().Names())
	}
}

func TestSync_MalformedMessageDiscarded(t *testing.T) {
	f := newFixture(t, 0)
	err := f.sync.HandleMessage([]byte(`{"type":"update","name":"Player7"}`))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("ожидали ErrMalformed, получили %v", err)
	}
	if f.sync.Registry().Len() != 0 {
		t.Error("некорректное сообщение не должно создавать аватар")
	}
	if f.stats.Total(telemetry.CounterMalformed) != 1 {
		t.Error("некорректное сообщение должно учитываться")
	}
}

func TestSync_DrainAppliesInArrivalOrder(t *testing.T) {
	f := newFixture(t, 0)
	ch := make(chan []byte, 4)
	ch <- []byte(`{"type":"update","name":"Player7","position":[1,0,0]}`)
	ch <- []byte(`garbage`)
	ch <- []byte(`{"type":"update","name":"Player7","position":[2,0,0]}`)

	if n := f.sync.Drain(ch); n != 3 {
		t.Errorf("ожидали 3 сообщения, получили %d", n)
	}
	a, _ := f.sync.Registry().Get("Player7")
	if a.Position != (mgl64.Vec3{2, 0, 0}) {
		t.Errorf("последнее по порядку прихода должно победить: %v", a.Position)
	}
	if n := f.sync.Drain(ch); n != 0 {
		t.Errorf("пустой канал не должен блокировать: %d", n)
	}
}

func TestSync_Publish(t *testing.T) {
	f := newFixture(t, 0)
	pose := entity.NewPose(mgl64.Vec3{1, 2, 3}).WithRotation(mgl64.Vec3{0, 0.5, 0})
	if err := f.sync.Publish(pose); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(f.out.sent) != 1 {
		t.Fatalf("ожидали 1 сообщение, получили %d", len(f.out.sent))
	}
	msg := f.out.sent[0].(UpdateMessage)
	if msg.Name != "Player42" || msg.Position != [3]float64{1, 2, 3} || *msg.Rotation != [3]float64{0, 0.5, 0} {
		t.Errorf("неверное сообщение: %+v", msg)
	}

	if join := f.sync.Join(); join.Type != MessageTypeJoin || join.Name != "Player42" {
		t.Errorf("неверный join: %+v", join)
	}

	// без соединения кадр теряется молча
	f.out.err = ErrNotConnected
	if err := f.sync.Publish(pose); err != nil {
		t.Errorf("отсутствие соединения не ошибка: %v", err)
	}
	f.out.err = errors.New("boom")
	if err := f.sync.Publish(pose); err == nil {
		t.Error("ошибка записи должна возвращаться")
	}
	if f.stats.Total(telemetry.CounterDropped) != 2 {
		t.Errorf("ожидали 2 потерянных кадра, получили %d", f.stats.Total(telemetry.CounterDropped))
	}
}

func TestSync_EvictStale(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	f.sync.HandleMessage([]byte(`{"type":"update","name":"Player1","position":[0,0,0]}`))
	f.clock = f.clock.Add(time.Second)
	f.sync.HandleMessage([]byte(`{"type":"update","name":"Player2","position":[0,0,0]}`))

	f.clock = f.clock.Add(1500 * time.Millisecond)
	if n := f.sync.EvictStale(); n != 1 {
		t.Fatalf("ожидали удаление одного аватара, получили %d", n)
	}
	if _, ok := f.sync.Registry().Get("Player1"); ok {
		t.Error("Player1 должен быть удален")
	}
	if _, ok := f.scene.Mesh("Player1"); ok || f.world.Bodies() != 1 {
		t.Error("меш и тело удаленного аватара должны быть удалены")
	}
}

func TestSync_NoEvictionByDefault(t *testing.T) {
	f := newFixture(t, 0)
	f.sync.HandleMessage([]byte(`{"type":"update","name":"Player1","position":[0,0,0]}`))
	f.clock = f.clock.Add(24 * time.Hour)
	if n := f.sync.EvictStale(); n != 0 || f.sync.Registry().Len() != 1 {
		t.Error("без stale_after аватары не удаляются")
	}
}
