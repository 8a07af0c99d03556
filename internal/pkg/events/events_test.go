package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"reelforge/internal/model/script"
)

// mockConn 记录发布的消息
type mockConn struct {
	sync.Mutex
	published  map[string][][]byte
	publishErr error
	flushes    int
	drained    bool
}

func newMockConn() *mockConn {
	return &mockConn{published: make(map[string][][]byte)}
}

func (m *mockConn) Publish(subj string, data []byte) error {
	m.Lock()
	defer m.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published[subj] = append(m.published[subj], data)
	return nil
}

func (m *mockConn) FlushWithContext(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()
	m.flushes++
	return nil
}

func (m *mockConn) Drain() error {
	m.drained = true
	return nil
}

func TestNewSubjects(t *testing.T) {
	Convey("NewSubjects 生成事件主题", t, func() {
		s := NewSubjects("studio")
		So(s.VideoJobs, ShouldEqual, "studio.video.jobs")
		So(s.SegmentationCompleted, ShouldEqual, "studio.segmentation.completed")

		So(NewSubjects("").VideoJobs, ShouldEqual, "reelforge.video.jobs")
	})
}

func TestNATSPublisher(t *testing.T) {
	Convey("NATSPublisher 发布事件", t, func() {
		ctx := context.Background()
		mc := newMockConn()
		p := newPublisher(mc, NewSubjects("test"))

		Convey("每个视频任务发布一条消息", func() {
			jobs := []script.VideoJob{
				{ScriptID: 1, PhraseNumber: 2, Prompt: "a"},
				{ScriptID: 1, PhraseNumber: 3, SegmentNumber: 1, Prompt: "b", IsSegmented: true},
			}
			So(p.PublishVideoJobs(ctx, jobs), ShouldBeNil)

			msgs := mc.published["test.video.jobs"]
			So(msgs, ShouldHaveLength, 2)
			var job script.VideoJob
			So(json.Unmarshal(msgs[1], &job), ShouldBeNil)
			So(job.Prompt, ShouldEqual, "b")
			So(job.IsSegmented, ShouldBeTrue)
			So(mc.flushes, ShouldEqual, 1)
		})

		Convey("发布完成事件", func() {
			So(p.PublishSegmentationCompleted(ctx, SegmentationCompleted{ScriptID: 1, SegmentsCreated: 4}), ShouldBeNil)
			msgs := mc.published["test.segmentation.completed"]
			So(msgs, ShouldHaveLength, 1)
			So(string(msgs[0]), ShouldContainSubstring, `"segments_created":4`)
		})

		Convey("发布失败时返回错误", func() {
			mc.publishErr = errors.New("connection closed")
			err := p.PublishVideoJobs(ctx, []script.VideoJob{{ScriptID: 1}})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "test.video.jobs")
		})

		Convey("Close 会 Drain 连接", func() {
			So(p.Close(), ShouldBeNil)
			So(mc.drained, ShouldBeTrue)
		})
	})

	Convey("NoopPublisher 不做任何事", t, func() {
		var p Publisher = NoopPublisher{}
		So(p.PublishVideoJobs(context.Background(), []script.VideoJob{{}}), ShouldBeNil)
		So(p.Close(), ShouldBeNil)
	})
}
