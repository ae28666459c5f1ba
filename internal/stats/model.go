package stats

import (
	"sort"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
)

// Histogram 记录每个取值出现的次数
type Histogram map[int]int

// IncrementValue 给 value 的计数加一
func (h Histogram) IncrementValue(value int) {
	h[value]++
}

// Total 返回所有计数之和
func (h Histogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// PercentileForValue 返回 value 在分布中的百分位：
// 100 × (小于 value 的数量 + 等于 value 的数量的一半) / 总数。
// 分布中没有出现过 value 时返回 -1。
func (h Histogram) PercentileForValue(value int) float64 {
	at, ok := h[value]
	if !ok {
		return -1
	}
	below, total := 0, 0
	for v, n := range h {
		total += n
		if v < value {
			below += n
		}
	}
	return 100 * (float64(below) + float64(at)/2) / float64(total)
}

// Average 返回分布的平均值，空分布为 0
func (h Histogram) Average() float64 {
	sum, total := 0, 0
	for v, n := range h {
		sum += v * n
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(sum) / float64(total)
}

// BarData 是图表中的一根柱子
type BarData struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

// Bars 按取值升序返回柱状图数据
func (h Histogram) Bars() []BarData {
	bars := make([]BarData, 0, len(h))
	for v, n := range h {
		bars = append(bars, BarData{X: v, Y: float64(n)})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].X < bars[j].X })
	return bars
}

// Wins 是一组胜负场次
type Wins struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// WinRate 返回胜率百分比，没有对局时为 0
func (w Wins) WinRate() float64 {
	games := w.Wins + w.Losses
	if games == 0 {
		return 0
	}
	return 100 * float64(w.Wins) / float64(games)
}

// WinsTable 按某个取值分组累计胜负
type WinsTable map[int]Wins

// AddWinsLosses 把 w 累加到 key 对应的分组
func (t WinsTable) AddWinsLosses(key int, w Wins) {
	cur := t[key]
	cur.Wins += w.Wins
	cur.Losses += w.Losses
	t[key] = cur
}

// WinRates 按取值升序返回每组的胜率
func (t WinsTable) WinRates() []BarData {
	bars := make([]BarData, 0, len(t))
	for k, w := range t {
		bars = append(bars, BarData{X: k, Y: w.WinRate()})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].X < bars[j].X })
	return bars
}

// HouseWinsTable 按家族累计胜负
type HouseWinsTable map[expansion.House]Wins

// AddWinsLosses 把 w 累加到家族 h
func (t HouseWinsTable) AddWinsLosses(h expansion.House, w Wins) {
	cur := t[h]
	cur.Wins += w.Wins
	cur.Losses += w.Losses
	t[h] = cur
}

// AercData 是某个系列（以及可选的家族）所有牌组AERC的累加值。
// Count 按每副牌组 12 张卡牌累加，除以 Count 得到每张卡牌的平均值。
type AercData struct {
	Count              int              `json:"count"`
	Expansion          int              `json:"expansion"`
	House              *expansion.House `json:"house"`
	AmberControl       float64          `json:"amberControl"`
	ExpectedAmber      float64          `json:"expectedAmber"`
	ArtifactControl    float64          `json:"artifactControl"`
	CreatureControl    float64          `json:"creatureControl"`
	EffectivePower     int              `json:"effectivePower"`
	Efficiency         float64          `json:"efficiency"`
	Recursion          float64          `json:"recursion"`
	Disruption         float64          `json:"disruption"`
	CreatureProtection float64          `json:"creatureProtection"`
	Other              float64          `json:"other"`
}

type aercKey struct {
	expansion int
	house     expansion.House
}

func (a AercData) key() aercKey {
	k := aercKey{expansion: a.Expansion}
	if a.House != nil {
		k.house = *a.House
	}
	return k
}

// DeckStatistics 是一个统计版本累计的全部分布
type DeckStatistics struct {
	ArmorValues        Histogram `json:"armorValues"`
	TotalCreaturePower Histogram `json:"totalCreaturePower"`
	Aerc               Histogram `json:"aerc"`
	ExpectedAmber      Histogram `json:"expectedAmber"`
	AmberControl       Histogram `json:"amberControl"`
	CreatureControl    Histogram `json:"creatureControl"`
	ArtifactControl    Histogram `json:"artifactControl"`
	Efficiency         Histogram `json:"efficiency"`
	Recursion          Histogram `json:"recursion"`
	Disruption         Histogram `json:"disruption"`
	CreatureProtection Histogram `json:"creatureProtection"`
	Other              Histogram `json:"other"`
	EffectivePower     Histogram `json:"effectivePower"`
	Sas                Histogram `json:"sas"`
	CardsRating        Histogram `json:"cardsRating"`
	Meta               Histogram `json:"meta"`
	Synergy            Histogram `json:"synergy"`
	Antisynergy        Histogram `json:"antisynergy"`
	CreatureCount      Histogram `json:"creatureCount"`
	ActionCount        Histogram `json:"actionCount"`
	ArtifactCount      Histogram `json:"artifactCount"`
	UpgradeCount       Histogram `json:"upgradeCount"`
	Power2OrLower      Histogram `json:"power2OrLower"`
	Power3OrLower      Histogram `json:"power3OrLower"`
	Power3OrHigher     Histogram `json:"power3OrHigher"`
	Power4OrHigher     Histogram `json:"power4OrHigher"`
	Power5OrHigher     Histogram `json:"power5OrHigher"`

	SasToWinsLosses                WinsTable `json:"sasToWinsLosses"`
	MetaToWinsLosses               WinsTable `json:"metaToWinsLosses"`
	SynergyToWinsLosses            WinsTable `json:"synergyToWinsLosses"`
	AntisynergyToWinsLosses        WinsTable `json:"antisynergyToWinsLosses"`
	AercToWinsLosses               WinsTable `json:"aercToWinsLosses"`
	AmberControlToWinsLosses       WinsTable `json:"amberControlToWinsLosses"`
	ExpectedAmberToWinsLosses      WinsTable `json:"expectedAmberToWinsLosses"`
	ArtifactControlToWinsLosses    WinsTable `json:"artifactControlToWinsLosses"`
	CreatureControlToWinsLosses    WinsTable `json:"creatureControlToWinsLosses"`
	EfficiencyToWinsLosses         WinsTable `json:"efficiencyToWinsLosses"`
	RecursionToWinsLosses          WinsTable `json:"recursionToWinsLosses"`
	DisruptionToWinsLosses         WinsTable `json:"disruptionToWinsLosses"`
	CreatureProtectionToWinsLosses WinsTable `json:"creatureProtectionToWinsLosses"`
	OtherToWinsLosses              WinsTable `json:"otherToWinsLosses"`
	EffectivePowerToWinsLosses     WinsTable `json:"effectivePowerToWinsLosses"`
	CreatureWins                   WinsTable `json:"creatureWins"`
	ActionWins                     WinsTable `json:"actionWins"`
	ArtifactWins                   WinsTable `json:"artifactWins"`
	UpgradeWins                    WinsTable `json:"upgradeWins"`
	RaresWins                      WinsTable `json:"raresWins"`

	HousesWins HouseWinsTable `json:"housesWins"`

	AercDatas []AercData `json:"aercDatas"`
}

// NewDeckStatistics 返回所有分布都已初始化的空统计
func NewDeckStatistics() DeckStatistics {
	var s DeckStatistics
	s.ensureInit()
	return s
}

// ensureInit 补齐反序列化后可能为 nil 的分布
func (s *DeckStatistics) ensureInit() {
	for _, h := range s.histograms() {
		if *h == nil {
			*h = Histogram{}
		}
	}
	for _, t := range s.winsTables() {
		if *t == nil {
			*t = WinsTable{}
		}
	}
	if s.HousesWins == nil {
		s.HousesWins = HouseWinsTable{}
	}
}

func (s *DeckStatistics) histograms() []*Histogram {
	return []*Histogram{
		&s.ArmorValues, &s.TotalCreaturePower, &s.Aerc, &s.ExpectedAmber, &s.AmberControl,
		&s.CreatureControl, &s.ArtifactControl, &s.Efficiency, &s.Recursion, &s.Disruption,
		&s.CreatureProtection, &s.Other, &s.EffectivePower, &s.Sas, &s.CardsRating, &s.Meta,
		&s.Synergy, &s.Antisynergy, &s.CreatureCount, &s.ActionCount, &s.ArtifactCount, &s.UpgradeCount,
		&s.Power2OrLower, &s.Power3OrLower, &s.Power3OrHigher, &s.Power4OrHigher, &s.Power5OrHigher,
	}
}

func (s *DeckStatistics) winsTables() []*WinsTable {
	return []*WinsTable{
		&s.SasToWinsLosses, &s.MetaToWinsLosses, &s.SynergyToWinsLosses, &s.AntisynergyToWinsLosses,
		&s.AercToWinsLosses, &s.AmberControlToWinsLosses, &s.ExpectedAmberToWinsLosses,
		&s.ArtifactControlToWinsLosses, &s.CreatureControlToWinsLosses, &s.EfficiencyToWinsLosses,
		&s.RecursionToWinsLosses, &s.DisruptionToWinsLosses, &s.CreatureProtectionToWinsLosses,
		&s.OtherToWinsLosses, &s.EffectivePowerToWinsLosses, &s.CreatureWins, &s.ActionWins,
		&s.ArtifactWins, &s.UpgradeWins, &s.RaresWins,
	}
}

// DeckStatisticsEntity 是持久化的统计版本。
// Expansion 为空表示全局统计；CompleteDateTime 为空表示该版本仍在累计中。
type DeckStatisticsEntity struct {
	ID               string         `gorm:"primarykey;type:varchar(36)"`
	Version          int            `gorm:"index;not null"`
	Expansion        *int           `gorm:"index"`
	CompleteDateTime *time.Time
	DeckStats        DeckStatistics `gorm:"serializer:json"`
}

// TableName 固定表名
func (DeckStatisticsEntity) TableName() string {
	return "deck_statistics"
}

// IsComplete 报告该版本是否已完成累计
func (e DeckStatisticsEntity) IsComplete() bool {
	return e.CompleteDateTime != nil
}
