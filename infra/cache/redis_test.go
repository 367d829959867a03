package cache

import (
	"context"
	"testing"
	"time"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	. "github.com/smartystreets/goconvey/convey"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/config"
)

func TestRedisConfigFor(t *testing.T) {
	Convey("TestRedisConfigFor", t, func() {
		Convey("单机模式", func() {
			cfg := RedisConfigFor(config.DepRedisConfig{
				ConnectType: "standalone",
				ConnectInfo: config.RedisConnectInfo{Host: "redis", Port: 6380, Password: "pwd"},
			})
			So(cfg.Host, ShouldEqual, "redis:6380")
			So(cfg.Password, ShouldEqual, "pwd")
			So(cfg.MasterName, ShouldEqual, "")
		})

		Convey("单机模式端口缺省", func() {
			cfg := RedisConfigFor(config.DepRedisConfig{ConnectInfo: config.RedisConnectInfo{Host: "redis"}})
			So(cfg.Host, ShouldEqual, "redis:6379")
		})

		Convey("Sentinel 模式", func() {
			cfg := RedisConfigFor(config.DepRedisConfig{
				ConnectType: "sentinel",
				ConnectInfo: config.RedisConnectInfo{
					MasterGroupName:  "mymaster",
					SentinelHost:     "redis-sentinel",
					SentinelUsername: "root",
					SentinelPassword: "spwd",
				},
			})
			So(cfg.MasterName, ShouldEqual, "mymaster")
			So(cfg.SentinelAddrs, ShouldResemble, []string{"redis-sentinel:26379"})
			So(cfg.SentinelUsername, ShouldEqual, "root")
			So(cfg.SentinelPassword, ShouldEqual, "spwd")
		})
	})
}

func TestNewReportCache(t *testing.T) {
	Convey("TestNewReportCache", t, func() {
		Convey("Standalone 模式创建成功", func() {
			db, mock := redismock.NewClientMock()
			mock.ExpectPing().SetVal("PONG")
			patches := gomonkey.ApplyFunc(newStandaloneClient, func(cfg RedisConfig) *redis.Client {
				return db
			})
			defer patches.Reset()

			c, err := NewReportCache(RedisConfig{Host: "localhost:6379"})
			So(err, ShouldBeNil)
			So(c, ShouldNotBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Sentinel 模式 Ping 失败", func() {
			db, mock := redismock.NewClientMock()
			mock.ExpectPing().SetErr(redis.ErrClosed)
			patches := gomonkey.ApplyFunc(newSentinelClient, func(cfg RedisConfig) redis.UniversalClient {
				return db
			})
			defer patches.Reset()

			c, err := NewReportCache(RedisConfig{
				MasterName:    "mymaster",
				SentinelAddrs: []string{"localhost:26379"},
			})
			So(err, ShouldNotBeNil)
			So(c, ShouldBeNil)
			So(err.Error(), ShouldContainSubstring, "连接 redis 失败")
		})
	})
}

func TestReportCache_GetReport(t *testing.T) {
	Convey("TestReportCache_GetReport", t, func() {
		db, mock := redismock.NewClientMock()
		c := &ReportCache{client: db}
		ctx := context.Background()

		Convey("命中", func() {
			mock.ExpectGet("itops_pump_diagnosis:report:7:text").SetVal("PUMP DIAGNOSIS")

			body, ok, err := c.GetReport(ctx, 7, "text")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(string(body), ShouldEqual, "PUMP DIAGNOSIS")
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("未命中", func() {
			mock.ExpectGet("itops_pump_diagnosis:report:7:json").RedisNil()

			body, ok, err := c.GetReport(ctx, 7, "json")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			So(body, ShouldBeNil)
		})

		Convey("Redis 错误", func() {
			mock.ExpectGet("itops_pump_diagnosis:report:7:text").SetErr(redis.ErrClosed)

			_, ok, err := c.GetReport(ctx, 7, "text")
			So(ok, ShouldBeFalse)
			So(err.Error(), ShouldContainSubstring, "redis get")
		})
	})
}

func TestReportCache_SetReport(t *testing.T) {
	Convey("TestReportCache_SetReport", t, func() {
		db, mock := redismock.NewClientMock()
		c := &ReportCache{client: db}
		ctx := context.Background()
		body := []byte(`{"report_type":"ROUTINE_MONITORING"}`)

		Convey("写入成功", func() {
			mock.ExpectSet("itops_pump_diagnosis:report:9:json", body, 10*time.Minute).SetVal("OK")

			err := c.SetReport(ctx, 9, "json", body, 10*time.Minute)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("ttl 为 0 不写入", func() {
			err := c.SetReport(ctx, 9, "json", body, 0)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("写入失败", func() {
			mock.ExpectSet("itops_pump_diagnosis:report:9:json", body, time.Minute).SetErr(redis.ErrClosed)

			err := c.SetReport(ctx, 9, "json", body, time.Minute)
			So(err.Error(), ShouldContainSubstring, "redis set")
		})
	})
}

func TestReportCache_Close(t *testing.T) {
	Convey("TestReportCache_Close", t, func() {
		db, _ := redismock.NewClientMock()
		So((&ReportCache{client: db}).Close(), ShouldBeNil)
	})
}
