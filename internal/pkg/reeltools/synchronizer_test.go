package reeltools

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"reelforge/internal/model/script"
)

func phrases(texts ...string) []*script.Phrase {
	out := make([]*script.Phrase, 0, len(texts))
	for i, text := range texts {
		out = append(out, &script.Phrase{
			PhraseNumber:      i + 1,
			Text:              text,
			EditingSuggestion: script.EditingVideoOnly,
		})
	}
	return out
}

func spoken(items ...script.SpokenSegment) []script.SpokenSegment {
	return items
}

func seg(start, end float64, text string) script.SpokenSegment {
	return script.SpokenSegment{Start: start, End: end, Text: text}
}

func mustSynchronizer(method script.SyncMethod, threshold float64) *Synchronizer {
	s, err := NewSynchronizer(method, threshold)
	So(err, ShouldBeNil)
	return s
}

func TestNewSynchronizer(t *testing.T) {
	Convey("NewSynchronizer 校验参数", t, func() {
		Convey("未知方法返回 ErrUnknownSyncMethod", func() {
			_, err := NewSynchronizer(script.SyncMethod("fuzzy"), 0.6)
			So(errors.Is(err, ErrUnknownSyncMethod), ShouldBeTrue)
		})

		Convey("阈值超出 [0, 1] 返回 ErrInvalidThreshold", func() {
			_, err := NewSynchronizer(script.SyncMethodHybrid, 1.5)
			So(errors.Is(err, ErrInvalidThreshold), ShouldBeTrue)
			_, err = NewSynchronizer(script.SyncMethodHybrid, -0.1)
			So(errors.Is(err, ErrInvalidThreshold), ShouldBeTrue)
		})

		Convey("合法参数", func() {
			s, err := NewSynchronizer(script.SyncMethodOrder, 0)
			So(err, ShouldBeNil)
			So(s.Method(), ShouldEqual, script.SyncMethodOrder)
			So(s.Threshold(), ShouldEqual, 0)
		})
	})
}

func TestSynchronizer_Similarity(t *testing.T) {
	Convey("similarity 方法", t, func() {
		s := mustSynchronizer(script.SyncMethodSimilarity, 0.6)

		Convey("相似度达到阈值时匹配", func() {
			result, err := s.Synchronize(
				phrases("Hola amigos"),
				spoken(seg(0.0, 2.0, "hola amigos como estan")),
			)
			So(err, ShouldBeNil)
			So(result, ShouldHaveLength, 1)

			timing := result[0].Timing
			So(timing.Method, ShouldEqual, script.MatchMethodSimilarity)
			So(*timing.StartTime, ShouldEqual, 0.0)
			So(*timing.EndTime, ShouldEqual, 2.0)
			So(*timing.Duration, ShouldEqual, 2.0)
			So(*timing.MatchedText, ShouldEqual, "hola amigos como estan")
			So(timing.SimilarityScore, ShouldBeGreaterThanOrEqualTo, 0.6)
		})

		Convey("未达到阈值时不匹配，时间字段为空", func() {
			result, err := s.Synchronize(
				phrases("xyz unrelated"),
				spoken(seg(5.0, 7.0, "totally different text")),
			)
			So(err, ShouldBeNil)

			timing := result[0].Timing
			So(timing.Method, ShouldEqual, script.MatchMethodNone)
			So(timing.Status, ShouldEqual, script.TimingStatusNoMatch)
			So(timing.StartTime, ShouldBeNil)
			So(timing.EndTime, ShouldBeNil)
			So(timing.Duration, ShouldBeNil)
			So(timing.MatchedText, ShouldBeNil)
			So(timing.SimilarityScore, ShouldEqual, 0)
		})

		Convey("相似度恰好等于阈值时接受", func() {
			// 2*11/33 = 0.666...
			exact := Similarity("Hola amigos", "hola amigos como estan")
			s := mustSynchronizer(script.SyncMethodSimilarity, exact)
			result, err := s.Synchronize(
				phrases("Hola amigos"),
				spoken(seg(0.0, 2.0, "hola amigos como estan")),
			)
			So(err, ShouldBeNil)
			So(result[0].Timing.Method, ShouldEqual, script.MatchMethodSimilarity)
		})

		Convey("阈值为 0 时零分片段也会被匹配", func() {
			s := mustSynchronizer(script.SyncMethodSimilarity, 0)
			result, err := s.Synchronize(
				phrases("abc"),
				spoken(seg(0, 1, "xyz")),
			)
			So(err, ShouldBeNil)
			So(result[0].Timing.Method, ShouldEqual, script.MatchMethodSimilarity)
			So(result[0].Timing.SimilarityScore, ShouldEqual, 0)
			So(*result[0].Timing.StartTime, ShouldEqual, 0)
		})

		Convey("已占用的片段不会再次匹配，先到先得", func() {
			result, err := s.Synchronize(
				phrases("hola amigos", "hola amigos"),
				spoken(seg(0, 1, "hola amigos"), seg(1, 2, "adios")),
			)
			So(err, ShouldBeNil)
			So(result[0].Timing.Method, ShouldEqual, script.MatchMethodSimilarity)
			So(*result[0].Timing.StartTime, ShouldEqual, 0)
			So(result[1].Timing.Method, ShouldEqual, script.MatchMethodNone)
		})

		Convey("同分时选择时间靠前的片段", func() {
			result, err := s.Synchronize(
				phrases("repite esto"),
				spoken(seg(0, 1, "repite esto"), seg(1, 2, "repite esto")),
			)
			So(err, ShouldBeNil)
			So(*result[0].Timing.StartTime, ShouldEqual, 0)
		})

		Convey("按内容匹配而不是位置", func() {
			result, err := s.Synchronize(
				phrases("el ahorro es clave", "bienvenidos al curso"),
				spoken(seg(0, 2, "bienvenidos al curso"), seg(2, 4, "el ahorro es clave")),
			)
			So(err, ShouldBeNil)
			So(*result[0].Timing.StartTime, ShouldEqual, 2)
			So(*result[1].Timing.StartTime, ShouldEqual, 0)
		})

		Convey("没有口播片段时全部未匹配", func() {
			result, err := s.Synchronize(phrases("a", "b"), nil)
			So(err, ShouldBeNil)
			So(result, ShouldHaveLength, 2)
			for _, p := range result {
				So(p.Timing.Method, ShouldEqual, script.MatchMethodNone)
			}
		})
	})
}

func TestSynchronizer_Order(t *testing.T) {
	Convey("order 方法", t, func() {
		s := mustSynchronizer(script.SyncMethodOrder, 0.99)

		Convey("第 i 个短语对应第 i 个片段，忽略阈值", func() {
			result, err := s.Synchronize(
				phrases("nada que ver", "otra cosa"),
				spoken(seg(0, 1, "texto uno"), seg(1, 3, "texto dos")),
			)
			So(err, ShouldBeNil)
			So(result[0].Timing.Method, ShouldEqual, script.MatchMethodOrder)
			So(*result[0].Timing.StartTime, ShouldEqual, 0)
			So(*result[0].Timing.MatchedText, ShouldEqual, "texto uno")
			So(result[1].Timing.Method, ShouldEqual, script.MatchMethodOrder)
			So(*result[1].Timing.EndTime, ShouldEqual, 3)
			So(result[1].Timing.SimilarityScore, ShouldBeLessThan, 0.99)
		})

		Convey("片段不足时多出的短语标记为 no_segment", func() {
			result, err := s.Synchronize(
				phrases("a", "b", "c"),
				spoken(seg(0, 1, "a")),
			)
			So(err, ShouldBeNil)
			So(result[0].Timing.Method, ShouldEqual, script.MatchMethodOrder)
			So(result[1].Timing.Method, ShouldEqual, script.MatchMethodNone)
			So(result[1].Timing.Status, ShouldEqual, script.TimingStatusNoSegment)
			So(result[2].Timing.Status, ShouldEqual, script.TimingStatusNoSegment)
		})
	})
}

func TestSynchronizer_Hybrid(t *testing.T) {
	Convey("hybrid 方法", t, func() {
		s := mustSynchronizer(script.SyncMethodHybrid, 0.6)

		Convey("相似度失败后使用剩余片段补位", func() {
			result, err := s.Synchronize(
				phrases("xyz unrelated"),
				spoken(seg(5.0, 7.0, "totally different text")),
			)
			So(err, ShouldBeNil)

			timing := result[0].Timing
			So(timing.Method, ShouldEqual, script.MatchMethodHybridOrder)
			So(*timing.StartTime, ShouldEqual, 5.0)
			So(*timing.EndTime, ShouldEqual, 7.0)
			So(timing.SimilarityScore, ShouldBeLessThan, 0.6)
		})

		Convey("补位按短语顺序使用时间顺序上的剩余片段", func() {
			result, err := s.Synchronize(
				phrases("zzz", "bienvenidos al curso", "qqq"),
				spoken(
					seg(0, 1, "bienvenidos al curso"),
					seg(1, 2, "primero"),
					seg(2, 3, "segundo"),
				),
			)
			So(err, ShouldBeNil)
			So(result[1].Timing.Method, ShouldEqual, script.MatchMethodSimilarity)
			So(*result[1].Timing.StartTime, ShouldEqual, 0)
			So(result[0].Timing.Method, ShouldEqual, script.MatchMethodHybridOrder)
			So(*result[0].Timing.MatchedText, ShouldEqual, "primero")
			So(result[2].Timing.Method, ShouldEqual, script.MatchMethodHybridOrder)
			So(*result[2].Timing.MatchedText, ShouldEqual, "segundo")
		})

		Convey("文本相同的片段按下标区分，不会重复分配", func() {
			result, err := s.Synchronize(
				phrases("hola", "zzz"),
				spoken(seg(0, 1, "hola"), seg(1, 2, "hola")),
			)
			So(err, ShouldBeNil)
			So(*result[0].Timing.StartTime, ShouldEqual, 0)
			So(result[1].Timing.Method, ShouldEqual, script.MatchMethodHybridOrder)
			So(*result[1].Timing.StartTime, ShouldEqual, 1)
		})

		Convey("片段数不少于短语数时全部匹配", func() {
			ps := phrases("uno", "dos", "tres", "cuatro")
			sp := spoken(seg(0, 1, "w"), seg(1, 2, "x"), seg(2, 3, "cuatro"), seg(3, 4, "y"), seg(4, 5, "z"))
			result, err := s.Synchronize(ps, sp)
			So(err, ShouldBeNil)
			for _, p := range result {
				So(p.Timing.Method, ShouldNotEqual, script.MatchMethodNone)
			}
		})

		Convey("片段不足时末尾短语未匹配", func() {
			result, err := s.Synchronize(phrases("a", "b"), spoken(seg(0, 1, "x")))
			So(err, ShouldBeNil)
			So(result[0].Timing.Method, ShouldEqual, script.MatchMethodHybridOrder)
			So(result[1].Timing.Method, ShouldEqual, script.MatchMethodNone)
			So(result[1].Timing.Status, ShouldEqual, script.TimingStatusNoMatch)
		})
	})
}

func TestSynchronizer_Inputs(t *testing.T) {
	Convey("Synchronize 输入处理", t, func() {
		s := mustSynchronizer(script.SyncMethodHybrid, 0.6)

		Convey("空短语返回空结果", func() {
			result, err := s.Synchronize(nil, spoken(seg(0, 1, "x")))
			So(err, ShouldBeNil)
			So(result, ShouldBeEmpty)
		})

		Convey("不修改入参", func() {
			in := phrases("hola")
			_, err := s.Synchronize(in, spoken(seg(0, 1, "hola")))
			So(err, ShouldBeNil)
			So(in[0].Timing, ShouldBeNil)
		})

		Convey("片段时间无效时返回 ValidationError", func() {
			_, err := s.Synchronize(phrases("a"), spoken(seg(2, 1, "x")))
			var verr *ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)

			_, err = s.Synchronize(phrases("a"), spoken(seg(-1, 1, "x")))
			So(errors.As(err, &verr), ShouldBeTrue)
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Summarize 统计匹配结果", t, func() {
		s := mustSynchronizer(script.SyncMethodSimilarity, 0.6)
		result, err := s.Synchronize(
			phrases("hola amigos", "zzz"),
			spoken(seg(0, 1, "hola amigos"), seg(1, 2, "otra cosa")),
		)
		So(err, ShouldBeNil)

		now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		summary := Summarize(result, s.Method(), s.Threshold(), now)

		So(summary.SynchronizedAt, ShouldEqual, now)
		So(summary.Method, ShouldEqual, script.SyncMethodSimilarity)
		So(summary.SimilarityThreshold, ShouldEqual, 0.6)
		So(summary.TotalPhrases, ShouldEqual, 2)
		So(summary.MatchedPhrases, ShouldEqual, 1)
		So(summary.UnmatchedPhrases, ShouldEqual, 1)
	})
}
