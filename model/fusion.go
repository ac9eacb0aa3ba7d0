package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/feature"
)

// FusionModel 是离线训练得到的融合产物：特征归一化器 + 二分类器。
// 加载后不可变，可在并发请求间共享。
type FusionModel struct {
	Features   []string              `json:"features" yaml:"features"`
	Scaler     *feature.MinMaxScaler `json:"scaler" yaml:"scaler"`
	Classifier *LRModel              `json:"classifier" yaml:"classifier"`
}

func missingArtifact(format string, args ...any) error {
	return core.NewDomainError(core.ModuleModel, core.ErrorCodeMissingArtifact, fmt.Sprintf(format, args...))
}

// LoadFusionModel 读取融合产物文件；.yaml / .yml 按 YAML 解析，其余按 JSON。
// 文件缺失、解析失败或内容不完整都返回 MISSING_ARTIFACT。
func LoadFusionModel(path string) (*FusionModel, error) {
	if path == "" {
		return nil, missingArtifact("model: fusion artifact path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeMissingArtifact,
			fmt.Sprintf("model: read fusion artifact %s", path), err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return DecodeFusionModel(data, format)
}

// DecodeFusionModel 从字节解析融合产物，format 为 "json" 或 "yaml"。
func DecodeFusionModel(data []byte, format string) (*FusionModel, error) {
	var m FusionModel
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &m)
	case "json":
		err = json.Unmarshal(data, &m)
	default:
		return nil, missingArtifact("model: unknown artifact format %q", format)
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeMissingArtifact, "model: parse fusion artifact", err)
	}
	if len(m.Features) == 0 {
		m.Features = append([]string(nil), core.FusionFeatures...)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate 检查归一化器与分类器覆盖全部输入特征。
func (m *FusionModel) Validate() error {
	if m.Scaler == nil {
		return missingArtifact("model: fusion artifact has no scaler")
	}
	if m.Classifier == nil {
		return missingArtifact("model: fusion artifact has no classifier")
	}
	if err := m.Scaler.Validate(m.Features); err != nil {
		return missingArtifact("model: %v", err)
	}
	if math.IsNaN(m.Classifier.Bias) || math.IsInf(m.Classifier.Bias, 0) {
		return missingArtifact("model: classifier bias is not finite")
	}
	for _, f := range m.Features {
		w, ok := m.Classifier.Weights[f]
		if !ok {
			return missingArtifact("model: classifier has no weight for feature %q", f)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return missingArtifact("model: classifier weight for %q is not finite", f)
		}
	}
	return nil
}

func (m *FusionModel) Name() string { return "fusion" }

// Predict 先按训练集范围归一化各特征，再输出分类器的 "喜欢" 概率。
// 缺失的输入特征按 0 处理。
func (m *FusionModel) Predict(features map[string]float64) (float64, error) {
	scaled := make(map[string]float64, len(m.Features))
	for _, f := range m.Features {
		scaled[f] = m.Scaler.Transform(f, features[f])
	}
	return m.Classifier.Predict(scaled)
}

// PopularityModel 只看 popularity_score，用于融合产物缺失时的降级排序。
type PopularityModel struct{}

func (PopularityModel) Name() string { return "popularity" }

func (PopularityModel) Predict(features map[string]float64) (float64, error) {
	return features[core.FeaturePopularity], nil
}

var (
	_ RankModel = (*FusionModel)(nil)
	_ RankModel = (*LRModel)(nil)
	_ RankModel = PopularityModel{}
)
