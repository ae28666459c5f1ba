package card

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ExtraCardInfo 是人工维护的卡牌评分信息（AERC各项）
type ExtraCardInfo struct {
	CardTitle          string  `yaml:"cardTitle" json:"cardTitle"`
	Rating             float64 `yaml:"rating" json:"rating"`
	ExpectedAmber      float64 `yaml:"expectedAmber" json:"expectedAmber"`
	AmberControl       float64 `yaml:"amberControl" json:"amberControl"`
	CreatureControl    float64 `yaml:"creatureControl" json:"creatureControl"`
	ArtifactControl    float64 `yaml:"artifactControl" json:"artifactControl"`
	Efficiency         float64 `yaml:"efficiency" json:"efficiency"`
	Recursion          float64 `yaml:"recursion" json:"recursion"`
	Disruption         float64 `yaml:"disruption" json:"disruption"`
	CreatureProtection float64 `yaml:"creatureProtection" json:"creatureProtection"`
	Other              float64 `yaml:"other" json:"other"`
	EffectivePower     int     `yaml:"effectivePower" json:"effectivePower"`
}

// extraInfoStore 以卡名（小写）为键缓存附加信息，启动后只读
type extraInfoStore struct {
	mu      sync.RWMutex
	byTitle map[string]ExtraCardInfo
}

var extraInfo = &extraInfoStore{byTitle: map[string]ExtraCardInfo{}}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// ParseExtraInfo 解析YAML格式的附加信息列表
func ParseExtraInfo(data []byte) (map[string]ExtraCardInfo, error) {
	var infos []ExtraCardInfo
	if err := yaml.Unmarshal(data, &infos); err != nil {
		return nil, fmt.Errorf("无法解析卡牌附加信息: %w", err)
	}
	out := make(map[string]ExtraCardInfo, len(infos))
	for _, info := range infos {
		if info.CardTitle == "" {
			return nil, fmt.Errorf("卡牌附加信息缺少 cardTitle")
		}
		out[titleKey(info.CardTitle)] = info
	}
	return out, nil
}

// LoadExtraInfo 从文件加载附加信息。文件不存在时保留空表。
func LoadExtraInfo(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("无法读取卡牌附加信息文件: %w", err)
	}
	parsed, err := ParseExtraInfo(data)
	if err != nil {
		return 0, err
	}
	SetExtraInfo(parsed)
	return len(parsed), nil
}

// SetExtraInfo 替换当前的附加信息表
func SetExtraInfo(infos map[string]ExtraCardInfo) {
	extraInfo.mu.Lock()
	defer extraInfo.mu.Unlock()
	extraInfo.byTitle = infos
}

// ExtraInfoFor 返回卡牌的附加信息
func ExtraInfoFor(title string) (ExtraCardInfo, bool) {
	extraInfo.mu.RLock()
	defer extraInfo.mu.RUnlock()
	info, ok := extraInfo.byTitle[titleKey(title)]
	return info, ok
}

// WithExtraInfo 为卡牌附上附加信息
func WithExtraInfo(cards []Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		if info, ok := ExtraInfoFor(c.CardTitle); ok {
			info := info
			c.ExtraCardInfo = &info
		}
		out[i] = c
	}
	return out
}
