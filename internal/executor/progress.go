package executor

import (
	"strconv"
	"strings"
	"time"
)

// Progress is one ffmpeg progress report.
type Progress struct {
	// Percent is in [0,100], or -1 when the source duration is unknown.
	Percent float64
	OutTime time.Duration
	Frame   int64
	FPS     float64
	Speed   string
	Done    bool
}

// progressParser accumulates key=value lines until a progress= marker
// completes a block.
type progressParser struct {
	duration time.Duration
	current  Progress
}

func newProgressParser(duration time.Duration) *progressParser {
	return &progressParser{duration: duration}
}

// feed consumes one line and returns a report when a block completes.
func (p *progressParser) feed(line string) (Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false
	}
	value = strings.TrimSpace(value)
	switch key {
	case "frame":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.current.Frame = n
		}
	case "fps":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			p.current.FPS = f
		}
	case "out_time_us", "out_time_ms":
		// ffmpeg reports microseconds under both keys.
		if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
			p.current.OutTime = time.Duration(us) * time.Microsecond
		}
	case "speed":
		p.current.Speed = value
	case "progress":
		report := p.current
		report.Done = value == "end"
		report.Percent = p.percent(report)
		return report, true
	}
	return Progress{}, false
}

func (p *progressParser) percent(report Progress) float64 {
	if report.Done {
		return 100
	}
	if p.duration <= 0 {
		return -1
	}
	pct := float64(report.OutTime) / float64(p.duration) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
