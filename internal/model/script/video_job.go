package script

// VideoJob 交给下游视频生成的单个镜头任务
type VideoJob struct {
	ScriptID       int            `json:"script_id"`
	PhraseNumber   int            `json:"phrase_number"`
	SegmentNumber  int            `json:"segment_number"`
	Prompt         string         `json:"prompt"`
	Duration       float64        `json:"duration"`
	NarrativeFocus NarrativeFocus `json:"narrative_focus"`
	IsSegmented    bool           `json:"is_segmented"`
}
