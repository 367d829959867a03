package idgen

import (
	"sync"
	"time"
)

const (
	// 纪元 2026-01-01 00:00:00 UTC，毫秒
	customEpochMs = 1767225600000

	// 每毫秒最多 1024 个 ID
	seqBits = 10
	seqMask = (1 << seqBits) - 1
)

// Generator 按时间递增的诊断 ID：毫秒时间戳 << 10 | 序列号
type Generator struct {
	mu     sync.Mutex
	lastMs int64
	seq    int64
	now    func() time.Time
}

func New() *Generator {
	return &Generator{now: time.Now}
}

func (g *Generator) NextID() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli() - customEpochMs
	if ms < g.lastMs {
		// 时钟回拨时沿用上次时间戳
		ms = g.lastMs
	}
	if ms == g.lastMs {
		g.seq = (g.seq + 1) & seqMask
		if g.seq == 0 {
			for ms <= g.lastMs {
				time.Sleep(100 * time.Microsecond)
				ms = g.now().UnixMilli() - customEpochMs
			}
		}
	} else {
		g.seq = 0
	}
	g.lastMs = ms
	return uint64(ms)<<seqBits | uint64(g.seq)
}

// Timestamp 还原 ID 的生成时间
func Timestamp(id uint64) time.Time {
	return time.UnixMilli(int64(id>>seqBits) + customEpochMs)
}
