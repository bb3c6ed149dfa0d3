package tui

import (
	"time"

	"github.com/haskel/powermon/internal/server"
)

// historySize is the number of power samples kept for the sparkline.
const historySize = 60

type Config struct {
	ServerURL       string
	RefreshInterval time.Duration
	User            string
	Password        string
}

type Model struct {
	config Config

	status *server.StatusResponse

	// power holds one entry per new record seen, oldest first.
	power      []float64
	lastRecord float64

	width       int
	height      int
	loading     bool
	err         error
	lastUpdated time.Time
}

func NewModel(cfg Config) Model {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Second
	}
	return Model{
		config:     cfg,
		loading:    true,
		lastRecord: -1,
	}
}

// observe records the latest power draw if the status carries a record not
// seen before.
func (m *Model) observe(st *server.StatusResponse) {
	latest := st.Run.Latest
	if latest == nil || latest.Timestamp == m.lastRecord {
		return
	}
	m.lastRecord = latest.Timestamp

	m.power = append(m.power, latest.PowerDraw)
	if len(m.power) > historySize {
		m.power = m.power[len(m.power)-historySize:]
	}
}
