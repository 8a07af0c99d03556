package script

import (
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const nestedDocument = `{
  "topic": "Finanzas personales",
  "script_id": 7,
  "analysis": {
    "total_phrases": 2,
    "phrases_with_video_prompts": [
      {"phrase_number": 1, "phrase": "Hola amigos", "category": "hook",
       "editing_suggestion": "Narrator only on screen", "video_prompt": null, "emotion": "happy"},
      {"phrase_number": 2, "phrase": "Ahorra cada mes", "category": "tip",
       "editing_suggestion": "Video only on screen", "video_prompt": "Coins in a jar"}
    ]
  }
}`

func TestParseDocument(t *testing.T) {
	Convey("ParseDocument 解析脚本文档", t, func() {
		Convey("短语位于 analysis 下", func() {
			doc, err := ParseDocument([]byte(nestedDocument))
			So(err, ShouldBeNil)
			So(doc.Phrases, ShouldHaveLength, 2)
			So(doc.Phrases[0].Text, ShouldEqual, "Hola amigos")
			So(doc.Phrases[0].EditingSuggestion, ShouldEqual, EditingNarratorOnly)
			So(doc.Phrases[0].VideoPrompt, ShouldBeNil)
			So(doc.Phrases[1].Prompt(), ShouldEqual, "Coins in a jar")

			var topic string
			ok, err := doc.Get("topic", &topic)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(topic, ShouldEqual, "Finanzas personales")
		})

		Convey("短语位于顶层", func() {
			doc, err := ParseDocument([]byte(`{"phrases_with_video_prompts": [{"phrase_number": 1, "phrase": "x"}]}`))
			So(err, ShouldBeNil)
			So(doc.Phrases, ShouldHaveLength, 1)
		})

		Convey("没有短语列表时返回 ErrNoPhrases", func() {
			_, err := ParseDocument([]byte(`{"analysis": {}}`))
			So(errors.Is(err, ErrNoPhrases), ShouldBeTrue)
		})

		Convey("不是 JSON 时返回错误", func() {
			_, err := ParseDocument([]byte(`not json`))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDocument_Marshal(t *testing.T) {
	Convey("Document.Marshal 保留未知字段并写回原位置", t, func() {
		doc, err := ParseDocument([]byte(nestedDocument))
		So(err, ShouldBeNil)

		start, end := 0.0, 2.0
		doc.Phrases[0].Timing = &TimingAnnotation{StartTime: &start, EndTime: &end, Method: MatchMethodSimilarity}
		So(doc.Set(FieldSynchronization, map[string]any{"method": "hybrid"}), ShouldBeNil)

		data, err := doc.Marshal()
		So(err, ShouldBeNil)
		So(string(data), ShouldContainSubstring, "\n  \"analysis\"")

		var out map[string]any
		So(json.Unmarshal(data, &out), ShouldBeNil)
		So(out["topic"], ShouldEqual, "Finanzas personales")
		So(out, ShouldContainKey, FieldSynchronization)
		So(out, ShouldNotContainKey, FieldPhrases)

		analysis := out["analysis"].(map[string]any)
		So(analysis["total_phrases"], ShouldEqual, 2.0)
		phrases := analysis[FieldPhrases].([]any)
		So(phrases, ShouldHaveLength, 2)

		first := phrases[0].(map[string]any)
		So(first["emotion"], ShouldEqual, "happy")
		So(first["video_prompt"], ShouldBeNil)
		So(first, ShouldContainKey, "video_prompt")
		timing := first["timing"].(map[string]any)
		So(timing["method"], ShouldEqual, "similarity")
		So(timing["end_time"], ShouldEqual, 2.0)

		Convey("重新解析后内容一致", func() {
			again, err := ParseDocument(data)
			So(err, ShouldBeNil)
			So(again.Phrases[0].Timing.Matched(), ShouldBeTrue)
			So(again.Has(FieldSynchronization), ShouldBeTrue)
		})
	})

	Convey("NewDocument 构造顶层文档", t, func() {
		doc := NewDocument(nil)
		data, err := doc.Marshal()
		So(err, ShouldBeNil)
		So(string(data), ShouldContainSubstring, `"phrases_with_video_prompts": []`)
	})
}

func TestParseSyncMethod(t *testing.T) {
	Convey("ParseSyncMethod 解析同步方法", t, func() {
		m, err := ParseSyncMethod(" Hybrid ")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, SyncMethodHybrid)

		_, err = ParseSyncMethod("fuzzy")
		So(errors.Is(err, ErrUnknownSyncMethod), ShouldBeTrue)
	})
}

func TestParseNarrativeFocus(t *testing.T) {
	Convey("ParseNarrativeFocus 兼容西语标签", t, func() {
		f, ok := ParseNarrativeFocus("inicio")
		So(ok, ShouldBeTrue)
		So(f, ShouldEqual, FocusOpening)

		f, ok = ParseNarrativeFocus("Desarrollo")
		So(ok, ShouldBeTrue)
		So(f, ShouldEqual, FocusDevelopment)

		f, ok = ParseNarrativeFocus("cierre")
		So(ok, ShouldBeTrue)
		So(f, ShouldEqual, FocusClosing)

		_, ok = ParseNarrativeFocus("climax")
		So(ok, ShouldBeFalse)
	})
}
