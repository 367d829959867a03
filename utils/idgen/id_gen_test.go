package idgen

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator_NextID(t *testing.T) {
	Convey("TestGenerator_NextID", t, func() {
		Convey("单协程严格递增", func() {
			gen := New()
			prev := gen.NextID()
			for i := 0; i < 2000; i++ {
				id := gen.NextID()
				So(id, ShouldBeGreaterThan, prev)
				prev = id
			}
		})

		Convey("并发不重复", func() {
			gen := New()
			const goroutines, perG = 8, 500

			var (
				mu  sync.Mutex
				wg  sync.WaitGroup
				ids = make(map[uint64]struct{}, goroutines*perG)
			)
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perG; j++ {
						id := gen.NextID()
						mu.Lock()
						ids[id] = struct{}{}
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			So(len(ids), ShouldEqual, goroutines*perG)
		})

		Convey("时钟回拨仍然递增", func() {
			base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			current := base
			gen := &Generator{now: func() time.Time { return current }}

			first := gen.NextID()
			current = base.Add(-time.Second)
			second := gen.NextID()
			So(second, ShouldBeGreaterThan, first)
		})

		Convey("可还原生成时间", func() {
			at := time.Date(2026, 10, 15, 9, 30, 0, 123000000, time.UTC)
			gen := &Generator{now: func() time.Time { return at }}

			So(Timestamp(gen.NextID()).Equal(at), ShouldBeTrue)
		})
	})
}
