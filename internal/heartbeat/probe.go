package heartbeat

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemProbe reads host and process facts through gopsutil. Static facts
// are read once on construction; memory and uptime are read on every beat.
type SystemProbe struct {
	log       zerolog.Logger
	pid       int32
	hostname  string
	platform  string
	bootTime  time.Time
	createdAt time.Time
	proc      *process.Process
}

// NewSystemProbe inspects the current process and host.
func NewSystemProbe(ctx context.Context, log zerolog.Logger) *SystemProbe {
	p := &SystemProbe{
		log: log,
		pid: int32(os.Getpid()),
	}

	if info, err := host.InfoWithContext(ctx); err != nil {
		log.Debug().Err(err).Msg("Host info unavailable")
	} else {
		p.hostname = info.Hostname
		p.platform = info.Platform + " " + info.PlatformVersion
		p.bootTime = time.Unix(int64(info.BootTime), 0)
	}
	if p.hostname == "" {
		p.hostname, _ = os.Hostname()
	}
	if name, err := platformName(); err != nil {
		log.Debug().Err(err).Msg("Platform name unavailable")
	} else if name != "" {
		p.platform = name
	}

	proc, err := process.NewProcessWithContext(ctx, p.pid)
	if err != nil {
		log.Debug().Err(err).Msg("Process handle unavailable")
		return p
	}
	p.proc = proc
	if ms, err := proc.CreateTimeWithContext(ctx); err == nil {
		p.createdAt = time.UnixMilli(ms)
	}
	return p
}

// Fill implements Probe.
func (p *SystemProbe) Fill(ctx context.Context, beat *Beat) {
	beat.PID = p.pid
	beat.Hostname = p.hostname
	beat.Platform = p.platform
	beat.BootTime = p.bootTime

	if p.proc == nil {
		return
	}
	if mem, err := p.proc.MemoryInfoWithContext(ctx); err != nil {
		p.log.Debug().Err(err).Msg("Process memory unavailable")
	} else {
		beat.ProcessRSSBytes = mem.RSS
	}
	if !p.createdAt.IsZero() {
		beat.ProcessUptimeSec = beat.Timestamp.Sub(p.createdAt).Seconds()
	}
}
