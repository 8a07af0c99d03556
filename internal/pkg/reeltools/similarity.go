package reeltools

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText 归一化文本用于相似度比较
// NFC 归一化、转小写、标点和符号替换为空格、合并空白
func NormalizeText(s string) string {
	s = cases.Lower(language.Und).String(norm.NFC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isWordRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Similarity 计算两段文本归一化后的相似度，取值 [0, 1]
// 基于最长匹配块递归查找（Ratcliff/Obershelp）：2*M / T
func Similarity(a, b string) float64 {
	ra := []rune(NormalizeText(a))
	rb := []rune(NormalizeText(b))

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	// 匹配块的选取与参数顺序有关，取两个方向的较大值保证对称
	m := matchingRunes(ra, rb)
	if n := matchingRunes(rb, ra); n > m {
		m = n
	}
	return 2.0 * float64(m) / float64(total)
}

// matchingRunes 返回 a、b 之间所有匹配块的总长度
func matchingRunes(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	var count func(alo, ahi, blo, bhi int) int
	count = func(alo, ahi, blo, bhi int) int {
		i, j, k := longestMatch(a, b2j, alo, ahi, blo, bhi)
		if k == 0 {
			return 0
		}
		n := k
		if alo < i && blo < j {
			n += count(alo, i, blo, j)
		}
		if i+k < ahi && j+k < bhi {
			n += count(i+k, ahi, j+k, bhi)
		}
		return n
	}
	return count(0, len(a), 0, len(b))
}

// longestMatch 在 a[alo:ahi] 与 b[blo:bhi] 中查找最长公共子串
// 长度相同时取 a 中最靠前的，其次是 b 中最靠前的
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestk int) {
	besti, bestj = alo, blo
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestk
}
