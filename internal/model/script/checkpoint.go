package script

import "time"

// 流水线步骤编号，与制作目录的阶段编号一致
const (
	StepSynchronize = 4
	StepSegment     = 5
)

// StepName 返回步骤名称
func StepName(step int) string {
	switch step {
	case StepSynchronize:
		return "synchronize_script"
	case StepSegment:
		return "generate_segmented_prompts"
	default:
		return "unknown"
	}
}

// Checkpoint 单个脚本的流水线检查点
type Checkpoint struct {
	ScriptID          int            `json:"script_id"`
	LastCompletedStep int            `json:"last_completed_step"`
	StepName          string         `json:"step_name"`
	CompletedSteps    []int          `json:"completed_steps"`
	Timestamp         time.Time      `json:"timestamp"`
	Parameters        map[string]any `json:"parameters"`
}

// NewCheckpoint 创建完成到 step 的检查点（1..step 均视为已完成）
func NewCheckpoint(scriptID, step int, parameters map[string]any, now time.Time) *Checkpoint {
	completed := make([]int, 0, step)
	for i := 1; i <= step; i++ {
		completed = append(completed, i)
	}
	if parameters == nil {
		parameters = map[string]any{}
	}
	return &Checkpoint{
		ScriptID:          scriptID,
		LastCompletedStep: step,
		StepName:          StepName(step),
		CompletedSteps:    completed,
		Timestamp:         now,
		Parameters:        parameters,
	}
}

// Completed 判断步骤是否已完成，nil 检查点视为未完成
func (c *Checkpoint) Completed(step int) bool {
	if c == nil {
		return false
	}
	return step <= c.LastCompletedStep
}

// ResumeStep 返回下一个需要执行的步骤
func (c *Checkpoint) ResumeStep() int {
	if c == nil {
		return 1
	}
	return c.LastCompletedStep + 1
}
