package stats

import (
	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
)

// cardsPerDeck 是每副牌组的卡牌数，AercData.Count 按它累加
const cardsPerDeck = 12

var round = deck.RoundHalfUp

func optionalRound(f *float64) int {
	if f == nil {
		return 0
	}
	return round(*f)
}

// seedAercDatas 为每个参与统计的系列以及系列×家族补齐空的 AercData，已有的条目优先
func seedAercDatas(existing []AercData) []AercData {
	var seeded []AercData
	for _, e := range expansion.Active() {
		seeded = append(seeded, AercData{Expansion: e.Number})
	}
	for _, e := range expansion.Active() {
		for _, h := range e.Houses {
			house := h
			seeded = append(seeded, AercData{Expansion: e.Number, House: &house})
		}
	}

	index := make(map[aercKey]int, len(seeded))
	for i, a := range seeded {
		index[a.key()] = i
	}
	for _, a := range existing {
		if i, ok := index[a.key()]; ok {
			seeded[i] = a
		} else {
			index[a.key()] = len(seeded)
			seeded = append(seeded, a)
		}
	}
	return seeded
}

// accumulate 把一批牌组累加进统计。expansionNumber 为 nil 时是全局统计，
// 否则只累加该系列的牌组。
func accumulate(s *DeckStatistics, expansionNumber *int, decks []deck.Deck) {
	s.ensureInit()
	global := expansionNumber == nil
	if global {
		s.AercDatas = seedAercDatas(s.AercDatas)
	}

	for _, d := range decks {
		if !global && d.Expansion != *expansionNumber {
			continue
		}
		addDeck(s, d)
		if global {
			addAerc(s.AercDatas, d)
		}
	}
}

func addDeck(s *DeckStatistics, d deck.Deck) {
	meta := round(d.Meta)

	s.ArmorValues.IncrementValue(d.TotalArmor)
	s.TotalCreaturePower.IncrementValue(d.TotalPower)
	s.Aerc.IncrementValue(round(d.AercScore))
	s.ExpectedAmber.IncrementValue(round(d.ExpectedAmber))
	s.AmberControl.IncrementValue(round(d.AmberControl))
	s.CreatureControl.IncrementValue(round(d.CreatureControl))
	s.ArtifactControl.IncrementValue(round(d.ArtifactControl))
	s.Efficiency.IncrementValue(round(d.Efficiency))
	s.Recursion.IncrementValue(optionalRound(d.Recursion))
	s.Disruption.IncrementValue(round(d.Disruption))
	s.CreatureProtection.IncrementValue(optionalRound(d.CreatureProtection))
	s.Other.IncrementValue(round(d.Other))
	s.EffectivePower.IncrementValue(d.EffectivePower)
	s.Sas.IncrementValue(d.SasRating)
	s.CardsRating.IncrementValue(d.CardsRating)
	s.Meta.IncrementValue(meta)
	s.Synergy.IncrementValue(d.SynergyRating)
	s.Antisynergy.IncrementValue(d.AntisynergyRating)
	s.CreatureCount.IncrementValue(d.CreatureCount)
	s.ActionCount.IncrementValue(d.ActionCount)
	s.ArtifactCount.IncrementValue(d.ArtifactCount)
	s.UpgradeCount.IncrementValue(d.UpgradeCount)

	// 生物力量分布按卡牌计数，同名卡牌的每一份都算
	var p2, p3, p3up, p4up, p5up int
	for _, combo := range d.SynergyCombos {
		if combo.CardType != card.Creature {
			continue
		}
		if combo.Power < 3 {
			p2 += combo.Copies
		}
		if combo.Power < 4 {
			p3 += combo.Copies
		}
		if combo.Power > 2 {
			p3up += combo.Copies
		}
		if combo.Power > 3 {
			p4up += combo.Copies
		}
		if combo.Power > 4 {
			p5up += combo.Copies
		}
	}
	s.Power2OrLower.IncrementValue(p2)
	s.Power3OrLower.IncrementValue(p3)
	s.Power3OrHigher.IncrementValue(p3up)
	s.Power4OrHigher.IncrementValue(p4up)
	s.Power5OrHigher.IncrementValue(p5up)

	if d.Wins == 0 && d.Losses == 0 {
		return
	}
	w := Wins{Wins: d.Wins, Losses: d.Losses}
	s.SasToWinsLosses.AddWinsLosses(d.SasRating, w)
	s.MetaToWinsLosses.AddWinsLosses(meta, w)
	s.SynergyToWinsLosses.AddWinsLosses(d.SynergyRating, w)
	s.AntisynergyToWinsLosses.AddWinsLosses(d.AntisynergyRating, w)
	s.AercToWinsLosses.AddWinsLosses(round(d.AercScore), w)
	s.AmberControlToWinsLosses.AddWinsLosses(round(d.AmberControl), w)
	s.ExpectedAmberToWinsLosses.AddWinsLosses(round(d.ExpectedAmber), w)
	s.ArtifactControlToWinsLosses.AddWinsLosses(round(d.ArtifactControl), w)
	s.CreatureControlToWinsLosses.AddWinsLosses(round(d.CreatureControl), w)
	s.EfficiencyToWinsLosses.AddWinsLosses(round(d.Efficiency), w)
	s.RecursionToWinsLosses.AddWinsLosses(optionalRound(d.Recursion), w)
	s.DisruptionToWinsLosses.AddWinsLosses(round(d.Disruption), w)
	s.CreatureProtectionToWinsLosses.AddWinsLosses(optionalRound(d.CreatureProtection), w)
	s.OtherToWinsLosses.AddWinsLosses(round(d.Other), w)
	s.EffectivePowerToWinsLosses.AddWinsLosses((d.EffectivePower/5)*5, w)
	s.CreatureWins.AddWinsLosses(d.CreatureCount, w)
	s.ActionWins.AddWinsLosses(d.ActionCount, w)
	s.ArtifactWins.AddWinsLosses(d.ArtifactCount, w)
	s.UpgradeWins.AddWinsLosses(d.UpgradeCount, w)
	s.RaresWins.AddWinsLosses(d.RaresCount, w)
	for _, h := range d.Houses() {
		s.HousesWins.AddWinsLosses(h, w)
	}
}

// addAerc 把牌组的AERC加到匹配的 AercData 上：系列相同，且家族为空或牌组包含该家族。
// 家族条目只累加该家族的卡牌。
func addAerc(datas []AercData, d deck.Deck) {
	for i := range datas {
		a := &datas[i]
		if a.Expansion != d.Expansion {
			continue
		}
		if a.House != nil && !d.HasHouse(*a.House) {
			continue
		}
		a.Count += cardsPerDeck
		for _, c := range d.SynergyCombos {
			if a.House != nil && c.House != *a.House {
				continue
			}
			copies := float64(c.Copies)
			a.AmberControl += c.AmberControl * copies
			a.ExpectedAmber += c.ExpectedAmber * copies
			a.ArtifactControl += c.ArtifactControl * copies
			a.CreatureControl += c.CreatureControl * copies
			a.EffectivePower += c.EffectivePower * c.Copies
			a.Efficiency += c.Efficiency * copies
			a.Recursion += c.Recursion * copies
			a.Disruption += c.Disruption * copies
			a.CreatureProtection += c.CreatureProtection * copies
			a.Other += c.Other * copies
		}
	}
}
