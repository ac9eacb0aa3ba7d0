// Package text 实现内容推荐使用的 TF-IDF 向量化。
package text

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// tokenPattern 匹配长度 >= 2 的单词字符序列
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize 小写化后切词，并去掉英文停用词。
func Tokenize(doc string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if IsStopWord(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Vectorizer 是拟合后的 TF-IDF 词表。
//
// 权重：tf(t, d) * idf(t)，idf(t) = ln((1+n)/(1+df(t))) + 1；每行做 L2 归一化，
// 因此行向量的点积即余弦相似度。全空文本得到零向量。
type Vectorizer struct {
	Vocabulary map[string]int
	IDF        []float64
}

// Fit 在语料上拟合词表与 idf。
func Fit(docs []string) *Vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for i, t := range terms {
		v.Vocabulary[t] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return v
}

// Transform 把文档转成 len(docs) x |vocab| 的 L2 归一化矩阵。
// 词表为空时返回 nil。
func (v *Vectorizer) Transform(docs []string) *mat.Dense {
	if len(v.Vocabulary) == 0 || len(docs) == 0 {
		return nil
	}
	m := mat.NewDense(len(docs), len(v.Vocabulary), nil)
	for i, doc := range docs {
		for _, tok := range Tokenize(doc) {
			if j, ok := v.Vocabulary[tok]; ok {
				m.Set(i, j, m.At(i, j)+1)
			}
		}
		row := m.RawRowView(i)
		var norm float64
		for j := range row {
			row[j] *= v.IDF[j]
			norm += row[j] * row[j]
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for j := range row {
			row[j] /= norm
		}
	}
	return m
}

// FitTransform 等价于 Fit(docs).Transform(docs)。
func FitTransform(docs []string) (*Vectorizer, *mat.Dense) {
	v := Fit(docs)
	return v, v.Transform(docs)
}
