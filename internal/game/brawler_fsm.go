package game

const (
	// CooldownDuration пауза регенерации после урона, секунды
	CooldownDuration = 3.0
	// PACooldownDuration перезарядка основной атаки, секунды
	PACooldownDuration = 0.2
)

// === Автомат здоровья ===

type hpRegenerating struct{}

func (s *hpRegenerating) Enter(b *Brawler) {}
func (s *hpRegenerating) Exit(b *Brawler)  {}

func (s *hpRegenerating) Update(b *Brawler, dt float64) State[*Brawler] {
	b.Regenerate(dt)
	return s
}

func (s *hpRegenerating) OnHealthChanged(b *Brawler, prev, cur float64) State[*Brawler] {
	if cur <= 0 {
		return &hpDead{}
	}
	if cur < prev {
		return &hpCoolDown{}
	}
	return s
}

func (s *hpRegenerating) String() string { return "regenerating" }

type hpCoolDown struct {
	timer float64
}

func (s *hpCoolDown) Enter(b *Brawler) { s.timer = 0 }
func (s *hpCoolDown) Exit(b *Brawler)  {}

func (s *hpCoolDown) Update(b *Brawler, dt float64) State[*Brawler] {
	s.timer += dt
	if s.timer >= CooldownDuration {
		return &hpRegenerating{}
	}
	return s
}

// OnHealthChanged повторный урон перезапускает таймер
func (s *hpCoolDown) OnHealthChanged(b *Brawler, prev, cur float64) State[*Brawler] {
	if cur <= 0 {
		return &hpDead{}
	}
	if cur < prev {
		s.timer = 0
	}
	return s
}

func (s *hpCoolDown) String() string { return "cooldown" }

type hpDead struct{}

func (s *hpDead) Enter(b *Brawler) {}
func (s *hpDead) Exit(b *Brawler)  {}

func (s *hpDead) Update(b *Brawler, dt float64) State[*Brawler] { return s }

func (s *hpDead) String() string { return "dead" }

// === Автомат основной атаки ===

type paReady struct{}

func (s *paReady) Enter(b *Brawler) { b.paProgress = 1 }
func (s *paReady) Exit(b *Brawler)  {}

func (s *paReady) Update(b *Brawler, dt float64) State[*Brawler] { return s }

func (s *paReady) OnHealthChanged(b *Brawler, prev, cur float64) State[*Brawler] {
	if cur <= 0 {
		return &paDisabled{}
	}
	return s
}

func (s *paReady) String() string { return "ready" }

type paCooldown struct {
	timer float64
}

func (s *paCooldown) Enter(b *Brawler) {
	s.timer = 0
	b.paProgress = 0
}

func (s *paCooldown) Exit(b *Brawler) {}

func (s *paCooldown) Update(b *Brawler, dt float64) State[*Brawler] {
	s.timer += dt
	b.paProgress = clamp01(s.timer / PACooldownDuration)
	if s.timer >= PACooldownDuration {
		return &paReady{}
	}
	return s
}

// OnHealthChanged урон не влияет на перезарядку
func (s *paCooldown) OnHealthChanged(b *Brawler, prev, cur float64) State[*Brawler] {
	if cur <= 0 {
		return &paDisabled{}
	}
	return s
}

func (s *paCooldown) String() string { return "cooldown" }

type paDisabled struct{}

func (s *paDisabled) Enter(b *Brawler) { b.paProgress = 0 }
func (s *paDisabled) Exit(b *Brawler)  {}

func (s *paDisabled) Update(b *Brawler, dt float64) State[*Brawler] { return s }

func (s *paDisabled) String() string { return "disabled" }
