package env

// SurferView is the rendering view of the surfer.
type SurferView struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Yaw        float64 `json:"yaw"`
	Roll       float64 `json:"roll"`
	Pitch      float64 `json:"pitch"`
	Speed      float64 `json:"speed"`
	Mode       string  `json:"mode"`
	DuckDiving bool    `json:"duck_diving"`
}

// WaveView is the rendering view of one wave front.
type WaveView struct {
	ID     uint64        `json:"id"`
	Phase  string        `json:"phase"`
	Height float64       `json:"height"`
	Angle  float64       `json:"angle"`
	Center [2]float64    `json:"center"`
	Ends   [2][2]float64 `json:"ends"`
}

// ObstacleView is the rendering view of one obstacle.
type ObstacleView struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Depth  float64 `json:"depth"`
	Radius float64 `json:"radius"`
}

// Snapshot is a read-only copy of the visible state after a step.
type Snapshot struct {
	Episode   string         `json:"episode"`
	Step      int            `json:"step"`
	Time      float64        `json:"time"`
	Reward    float64        `json:"reward"`
	Surfer    SurferView     `json:"surfer"`
	Waves     []WaveView     `json:"waves"`
	Obstacles []ObstacleView `json:"obstacles"`
	Summary   Summary        `json:"summary"`
}

// Snapshot copies the current state. reward is the last step's reward.
func (e *Env) Snapshot(reward float64) Snapshot {
	s := e.body.State()
	snap := Snapshot{
		Episode: e.summary.Episode,
		Step:    e.steps,
		Time:    e.waves.Time(),
		Reward:  reward,
		Surfer: SurferView{
			X:          s.X,
			Y:          s.Y,
			Z:          s.Z,
			Yaw:        s.Yaw,
			Roll:       s.Roll,
			Pitch:      s.Pitch,
			Speed:      s.Speed(),
			Mode:       s.Mode.String(),
			DuckDiving: s.DuckDiving,
		},
		Summary: e.summary,
	}

	for _, w := range e.waves.Waves() {
		a, b := w.Endpoints()
		snap.Waves = append(snap.Waves, WaveView{
			ID:     uint64(w.ID),
			Phase:  w.Phase.String(),
			Height: w.Height,
			Angle:  w.Angle,
			Center: [2]float64{w.Center.X(), w.Center.Y()},
			Ends:   [2][2]float64{{a.X(), a.Y()}, {b.X(), b.Y()}},
		})
	}
	for _, o := range e.obstacles.Obstacles() {
		snap.Obstacles = append(snap.Obstacles, ObstacleView{X: o.X, Y: o.Y, Depth: o.Depth, Radius: o.Radius})
	}
	return snap
}
