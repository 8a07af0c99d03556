package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Mode: "release"},
		Sync:   SyncConfig{Method: "hybrid", SimilarityThreshold: 0.6},
		Segmentation: SegmentationConfig{
			MaxSegmentDuration:       3,
			MinSegmentDuration:       2,
			PreferEqualSegments:      true,
			MinimumDurationToSegment: 4,
		},
		Storage: StorageConfig{Type: "local", Local: &LocalConfig{BasePath: "VideoProduction"}},
	}
}

func TestConfig_Validate(t *testing.T) {
	Convey("Config.Validate", t, func() {
		cfg := validConfig()

		Convey("默认配置合法", func() {
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("端口越界", func() {
			cfg.Server.Port = 70000
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("未知运行模式", func() {
			cfg.Server.Mode = "prod"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("未知同步方法", func() {
			cfg.Sync.Method = "fuzzy"
			So(cfg.Validate().Error(), ShouldContainSubstring, "invalid sync method")
		})

		Convey("阈值超出 [0, 1]", func() {
			cfg.Sync.SimilarityThreshold = 1.5
			So(cfg.Validate(), ShouldNotBeNil)
			cfg.Sync.SimilarityThreshold = 0
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("最小分段时长大于最大分段时长", func() {
			cfg.Segmentation.MinSegmentDuration = 5
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("分段时长必须为正", func() {
			cfg.Segmentation.MaxSegmentDuration = 0
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("本地存储缺少路径", func() {
			cfg.Storage.Local = nil
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("OSS 存储缺少配置", func() {
			cfg.Storage = StorageConfig{Type: "oss"}
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("未知存储类型", func() {
			cfg.Storage.Type = "s3"
			So(cfg.Validate().Error(), ShouldContainSubstring, "unsupported storage type")
		})
	})
}
