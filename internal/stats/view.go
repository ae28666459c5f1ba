package stats

import (
	"sort"

	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
)

// HouseBarData 是家族胜率图表中的一根柱子
type HouseBarData struct {
	X expansion.House `json:"x"`
	Y float64         `json:"y"`
}

// GlobalStats 是展示给前端的统计视图：平均值、分布和胜率
type GlobalStats struct {
	AverageActions            float64 `json:"averageActions"`
	AverageArtifacts          float64 `json:"averageArtifacts"`
	AverageCreatures          float64 `json:"averageCreatures"`
	AverageUpgrades           float64 `json:"averageUpgrades"`
	AverageExpectedAmber      float64 `json:"averageExpectedAmber"`
	AverageAmberControl       float64 `json:"averageAmberControl"`
	AverageCreatureControl    float64 `json:"averageCreatureControl"`
	AverageArtifactControl    float64 `json:"averageArtifactControl"`
	AverageEfficiency         float64 `json:"averageEfficiency"`
	AverageRecursion          float64 `json:"averageRecursion"`
	AverageDisruption         float64 `json:"averageDisruption"`
	AverageCreatureProtection float64 `json:"averageCreatureProtection"`
	AverageOther              float64 `json:"averageOther"`
	AverageEffectivePower     float64 `json:"averageEffectivePower"`
	AverageAerc               float64 `json:"averageAerc"`
	AverageSas                float64 `json:"averageSas"`
	AverageCardsRating        float64 `json:"averageCardsRating"`
	AverageSynergy            float64 `json:"averageSynergy"`
	AverageAntisynergy        float64 `json:"averageAntisynergy"`
	AverageTotalCreaturePower float64 `json:"averageTotalCreaturePower"`
	AverageArmor              float64 `json:"averageArmor"`

	Armor              []BarData `json:"armor"`
	TotalCreaturePower []BarData `json:"totalCreaturePower"`
	Aerc               []BarData `json:"aerc"`
	ExpectedAmber      []BarData `json:"expectedAmber"`
	AmberControl       []BarData `json:"amberControl"`
	CreatureControl    []BarData `json:"creatureControl"`
	ArtifactControl    []BarData `json:"artifactControl"`
	Efficiency         []BarData `json:"efficiency"`
	Recursion          []BarData `json:"recursion"`
	Disruption         []BarData `json:"disruption"`
	CreatureProtection []BarData `json:"creatureProtection"`
	Other              []BarData `json:"other"`
	EffectivePower     []BarData `json:"effectivePower"`
	Sas                []BarData `json:"sas"`
	CardsRating        []BarData `json:"cardsRating"`
	Meta               []BarData `json:"meta"`
	Synergy            []BarData `json:"synergy"`
	Antisynergy        []BarData `json:"antisynergy"`
	CreatureCount      []BarData `json:"creatureCount"`
	ActionCount        []BarData `json:"actionCount"`
	ArtifactCount      []BarData `json:"artifactCount"`
	UpgradeCount       []BarData `json:"upgradeCount"`
	Power2OrLower      []BarData `json:"power2OrLower"`
	Power3OrLower      []BarData `json:"power3OrLower"`
	Power3OrHigher     []BarData `json:"power3OrHigher"`
	Power4OrHigher     []BarData `json:"power4OrHigher"`
	Power5OrHigher     []BarData `json:"power5OrHigher"`

	SasWinRate                []BarData      `json:"sasWinRate"`
	MetaWinRate               []BarData      `json:"metaWinRate"`
	SynergyWinRate            []BarData      `json:"synergyWinRate"`
	AntisynergyWinRate        []BarData      `json:"antisynergyWinRate"`
	AercWinRate               []BarData      `json:"aercWinRate"`
	AmberControlWinRate       []BarData      `json:"amberControlWinRate"`
	ExpectedAmberWinRate      []BarData      `json:"expectedAmberWinRate"`
	ArtifactControlWinRate    []BarData      `json:"artifactControlWinRate"`
	CreatureControlWinRate    []BarData      `json:"creatureControlWinRate"`
	EfficiencyWinRate         []BarData      `json:"efficiencyWinRate"`
	RecursionWinRate          []BarData      `json:"recursionWinRate"`
	DisruptionWinRate         []BarData      `json:"disruptionWinRate"`
	CreatureProtectionWinRate []BarData      `json:"creatureProtectionWinRate"`
	OtherWinRate              []BarData      `json:"otherWinRate"`
	EffectivePowerWinRate     []BarData      `json:"effectivePowerWinRate"`
	CreatureWinRate           []BarData      `json:"creatureWinRate"`
	ActionWinRate             []BarData      `json:"actionWinRate"`
	ArtifactWinRate           []BarData      `json:"artifactWinRate"`
	UpgradeWinRate            []BarData      `json:"upgradeWinRate"`
	RaresWinRate              []BarData      `json:"raresWinRate"`
	HouseWinRate              []HouseBarData `json:"houseWinRate"`

	AercDatas []AercData `json:"aercDatas"`
}

// GlobalStatsWithExpansion 是某个系列（为空时为全局）的统计视图
type GlobalStatsWithExpansion struct {
	Expansion *int        `json:"expansion"`
	Stats     GlobalStats `json:"stats"`
}

// ToGlobalStats 把累计的分布转换为展示视图
func (s DeckStatistics) ToGlobalStats() GlobalStats {
	s.ensureInit()
	g := GlobalStats{
		AverageActions:            s.ActionCount.Average(),
		AverageArtifacts:          s.ArtifactCount.Average(),
		AverageCreatures:          s.CreatureCount.Average(),
		AverageUpgrades:           s.UpgradeCount.Average(),
		AverageExpectedAmber:      s.ExpectedAmber.Average(),
		AverageAmberControl:       s.AmberControl.Average(),
		AverageCreatureControl:    s.CreatureControl.Average(),
		AverageArtifactControl:    s.ArtifactControl.Average(),
		AverageEfficiency:         s.Efficiency.Average(),
		AverageRecursion:          s.Recursion.Average(),
		AverageDisruption:         s.Disruption.Average(),
		AverageCreatureProtection: s.CreatureProtection.Average(),
		AverageOther:              s.Other.Average(),
		AverageEffectivePower:     s.EffectivePower.Average(),
		AverageAerc:               s.Aerc.Average(),
		AverageSas:                s.Sas.Average(),
		AverageCardsRating:        s.CardsRating.Average(),
		AverageSynergy:            s.Synergy.Average(),
		AverageAntisynergy:        s.Antisynergy.Average(),
		AverageTotalCreaturePower: s.TotalCreaturePower.Average(),
		AverageArmor:              s.ArmorValues.Average(),

		Armor:              s.ArmorValues.Bars(),
		TotalCreaturePower: s.TotalCreaturePower.Bars(),
		Aerc:               s.Aerc.Bars(),
		ExpectedAmber:      s.ExpectedAmber.Bars(),
		AmberControl:       s.AmberControl.Bars(),
		CreatureControl:    s.CreatureControl.Bars(),
		ArtifactControl:    s.ArtifactControl.Bars(),
		Efficiency:         s.Efficiency.Bars(),
		Recursion:          s.Recursion.Bars(),
		Disruption:         s.Disruption.Bars(),
		CreatureProtection: s.CreatureProtection.Bars(),
		Other:              s.Other.Bars(),
		EffectivePower:     s.EffectivePower.Bars(),
		Sas:                s.Sas.Bars(),
		CardsRating:        s.CardsRating.Bars(),
		Meta:               s.Meta.Bars(),
		Synergy:            s.Synergy.Bars(),
		Antisynergy:        s.Antisynergy.Bars(),
		CreatureCount:      s.CreatureCount.Bars(),
		ActionCount:        s.ActionCount.Bars(),
		ArtifactCount:      s.ArtifactCount.Bars(),
		UpgradeCount:       s.UpgradeCount.Bars(),
		Power2OrLower:      s.Power2OrLower.Bars(),
		Power3OrLower:      s.Power3OrLower.Bars(),
		Power3OrHigher:     s.Power3OrHigher.Bars(),
		Power4OrHigher:     s.Power4OrHigher.Bars(),
		Power5OrHigher:     s.Power5OrHigher.Bars(),

		SasWinRate:                s.SasToWinsLosses.WinRates(),
		MetaWinRate:               s.MetaToWinsLosses.WinRates(),
		SynergyWinRate:            s.SynergyToWinsLosses.WinRates(),
		AntisynergyWinRate:        s.AntisynergyToWinsLosses.WinRates(),
		AercWinRate:               s.AercToWinsLosses.WinRates(),
		AmberControlWinRate:       s.AmberControlToWinsLosses.WinRates(),
		ExpectedAmberWinRate:      s.ExpectedAmberToWinsLosses.WinRates(),
		ArtifactControlWinRate:    s.ArtifactControlToWinsLosses.WinRates(),
		CreatureControlWinRate:    s.CreatureControlToWinsLosses.WinRates(),
		EfficiencyWinRate:         s.EfficiencyToWinsLosses.WinRates(),
		RecursionWinRate:          s.RecursionToWinsLosses.WinRates(),
		DisruptionWinRate:         s.DisruptionToWinsLosses.WinRates(),
		CreatureProtectionWinRate: s.CreatureProtectionToWinsLosses.WinRates(),
		OtherWinRate:              s.OtherToWinsLosses.WinRates(),
		EffectivePowerWinRate:     s.EffectivePowerToWinsLosses.WinRates(),
		CreatureWinRate:           s.CreatureWins.WinRates(),
		ActionWinRate:             s.ActionWins.WinRates(),
		ArtifactWinRate:           s.ArtifactWins.WinRates(),
		UpgradeWinRate:            s.UpgradeWins.WinRates(),
		RaresWinRate:              s.RaresWins.WinRates(),

		AercDatas: append([]AercData(nil), s.AercDatas...),
	}

	g.HouseWinRate = make([]HouseBarData, 0, len(s.HousesWins))
	for h, w := range s.HousesWins {
		g.HouseWinRate = append(g.HouseWinRate, HouseBarData{X: h, Y: w.WinRate()})
	}
	sort.Slice(g.HouseWinRate, func(i, j int) bool { return g.HouseWinRate[i].X < g.HouseWinRate[j].X })
	return g
}

// sortAercDatasByHouse 按家族排序，系列条目（家族为空）排在最前，顺序稳定
func sortAercDatasByHouse(datas []AercData) {
	sort.SliceStable(datas, func(i, j int) bool {
		hi, hj := datas[i].House, datas[j].House
		switch {
		case hi == nil:
			return hj != nil
		case hj == nil:
			return false
		}
		return *hi < *hj
	})
}
