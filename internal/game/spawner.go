package game

// EnemySpawner decides when and what to add to the enemy pool.
type EnemySpawner struct {
	intervalMs float64
	timer      float64
	spawns     uint64
}

// NewEnemySpawner creates a spawner that fires once the accumulated time
// exceeds intervalMs.
func NewEnemySpawner(intervalMs float64) *EnemySpawner {
	return &EnemySpawner{intervalMs: intervalMs}
}

// Update accumulates deltaMs and reports whether a spawn decision is due.
// The timer resets to zero rather than carrying the remainder, so a long
// frame yields a single spawn.
func (s *EnemySpawner) Update(deltaMs float64) bool {
	s.timer += deltaMs
	if s.timer > s.intervalMs {
		s.timer = 0
		s.spawns++
		return true
	}
	return false
}

// Timer returns the accumulated time since the last spawn.
func (s *EnemySpawner) Timer() float64 { return s.timer }

// Spawns returns the number of spawn decisions made so far.
func (s *EnemySpawner) Spawns() uint64 { return s.spawns }

// SpawnEnemies builds the enemies for one spawn decision. A stationary world
// only gets a flyer; a scrolling one gets a ground or climbing enemy (even
// odds) plus a flyer.
func SpawnEnemies(w World) []*Enemy {
	out := make([]*Enemy, 0, 2)
	if w.Speed() > 0 {
		if w.Rand() < 0.5 {
			out = append(out, NewGroundEnemy(w))
		} else {
			out = append(out, NewClimbingEnemy(w))
		}
	}
	return append(out, NewFlyingEnemy(w))
}
