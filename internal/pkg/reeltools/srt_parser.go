package reeltools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"reelforge/internal/model/script"
	"reelforge/internal/pkg/storage"
)

var (
	blockSeparator = regexp.MustCompile(`\n\s*\n`)
	srtTimestamp   = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})$`)
)

// ParseSRT 解析 SRT 字幕文本为按开始时间升序的口播片段
// 格式错误或时间无效的字幕块会被跳过并记录警告，空结果不是错误
func ParseSRT(raw string) []script.SpokenSegment {
	segments, _ := parseSRT(raw, false)
	return segments
}

// ParseSRTStrict 与 ParseSRT 相同，但遇到时间无效的字幕块时返回 ValidationError
func ParseSRTStrict(raw string) ([]script.SpokenSegment, error) {
	return parseSRT(raw, true)
}

func parseSRT(raw string, strict bool) ([]script.SpokenSegment, error) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []script.SpokenSegment{}, nil
	}

	blocks := blockSeparator.Split(raw, -1)
	segments := make([]script.SpokenSegment, 0, len(blocks))

	for i, block := range blocks {
		blockNum := i + 1
		seg, err := parseBlock(block)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				verr.Block = blockNum
				if strict {
					return nil, verr
				}
			}
			log.Warn().
				Int("block", blockNum).
				Err(err).
				Msg("跳过无效字幕块")
			continue
		}
		segments = append(segments, seg)
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	return segments, nil
}

// parseBlock 解析单个字幕块：序号行、时间行、一行或多行文本
func parseBlock(block string) (script.SpokenSegment, error) {
	lines := make([]string, 0, 4)
	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	if len(lines) < 3 {
		return script.SpokenSegment{}, fmt.Errorf("expected at least 3 lines, got %d", len(lines))
	}

	index, err := strconv.Atoi(lines[0])
	if err != nil {
		return script.SpokenSegment{}, fmt.Errorf("invalid index line %q", lines[0])
	}

	parts := strings.Split(lines[1], "-->")
	if len(parts) != 2 {
		return script.SpokenSegment{}, fmt.Errorf("missing timestamp arrow in %q", lines[1])
	}
	start, err := parseSRTTime(parts[0])
	if err != nil {
		return script.SpokenSegment{}, err
	}
	end, err := parseSRTTime(parts[1])
	if err != nil {
		return script.SpokenSegment{}, err
	}
	if end <= start {
		return script.SpokenSegment{}, &ValidationError{
			Reason: fmt.Sprintf("end %.3f is not after start %.3f", end, start),
		}
	}

	text := strings.Join(strings.Fields(strings.Join(lines[2:], " ")), " ")
	return script.SpokenSegment{
		Index: index,
		Start: start,
		End:   end,
		Text:  text,
	}, nil
}

// parseSRTTime 解析 HH:MM:SS,mmm 为秒
func parseSRTTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	m := srtTimestamp.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	if mm > 59 || sec > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	// 毫秒位数不足 3 位时按小数处理（,5 即 500ms）
	ms, _ := strconv.Atoi((m[4] + "00")[:3])
	return float64(h*3600+mm*60+sec) + float64(ms)/1000, nil
}

// ValidateSpokenSegments 校验片段时间：开始时间非负且结束晚于开始
func ValidateSpokenSegments(segments []script.SpokenSegment) error {
	for i, seg := range segments {
		if seg.Start < 0 {
			return &ValidationError{Reason: fmt.Sprintf("segment %d has negative start %.3f", i+1, seg.Start)}
		}
		if seg.End <= seg.Start {
			return &ValidationError{Reason: fmt.Sprintf("segment %d end %.3f is not after start %.3f", i+1, seg.End, seg.Start)}
		}
	}
	return nil
}

// SRTParser 从存储读取并解析字幕文件
type SRTParser struct {
	storage storage.Storage
}

// NewSRTParser 创建字幕解析器
func NewSRTParser(s storage.Storage) *SRTParser {
	return &SRTParser{storage: s}
}

// ParseFile 读取并解析存储中的字幕文件
// 文件不存在时返回包装了 ErrSubtitleNotFound 的 ParseError
func (p *SRTParser) ParseFile(ctx context.Context, key string) ([]script.SpokenSegment, error) {
	exists, err := p.storage.Exists(ctx, key)
	if err != nil {
		return nil, &ParseError{Source: key, Err: err}
	}
	if !exists {
		return nil, &ParseError{Source: key, Err: ErrSubtitleNotFound}
	}

	rc, err := p.storage.Download(ctx, key)
	if err != nil {
		return nil, &ParseError{Source: key, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &ParseError{Source: key, Err: err}
	}

	if !utf8.Valid(data) {
		return nil, &ParseError{Source: key, Err: errors.New("subtitle is not valid UTF-8")}
	}

	segments := ParseSRT(string(data))
	log.Info().
		Str("key", key).
		Int("segments", len(segments)).
		Msg("字幕解析完成")
	return segments, nil
}
