package entity

import (
	"fmt"
	"math/rand"
)

// NamePrefix префикс имени игрока; числовой суффикс задает цвет аватара
const NamePrefix = "Player"

// RandomPlayerName генерирует имя игрока на сессию: Player0..Player999
func RandomPlayerName(r *rand.Rand) string {
	var n int
	if r != nil {
		n = r.Intn(1000)
	} else {
		n = rand.Intn(1000)
	}
	return fmt.Sprintf("%s%d", NamePrefix, n)
}
