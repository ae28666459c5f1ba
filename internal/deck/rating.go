package deck

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
)

// cardNamesSeparator 分隔 CardNamesString 中的 "卡名+数量" 条目
const cardNamesSeparator = "|"

// RoundHalfUp 四舍五入到整数（0.5 向正无穷方向进位）
func RoundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}

// Import 是导入一副牌组所需的数据
type Import struct {
	KeyforgeID  string            `json:"id"`
	Name        string            `json:"name"`
	Expansion   int               `json:"expansion"`
	Houses      []expansion.House `json:"houses"`
	CardIDs     []string          `json:"cards"`
	Registered  bool              `json:"registered"`
	Chains      int               `json:"chains"`
	Wins        int               `json:"wins"`
	Losses      int               `json:"losses"`
	Synergy     int               `json:"synergy"`
	Antisynergy int               `json:"antisynergy"`
	Meta        float64           `json:"meta"`
}

// Rate 根据卡牌及其附加信息计算牌组的全部评分字段
func Rate(in Import, cardsByID map[string]card.Card) (Deck, error) {
	if len(in.KeyforgeID) != keyforgeIDLength {
		return Deck{}, fmt.Errorf("牌组ID格式错误: %q", in.KeyforgeID)
	}
	if _, err := expansion.ForNumber(in.Expansion); err != nil {
		return Deck{}, err
	}

	d := Deck{
		KeyforgeID:        in.KeyforgeID,
		Name:              in.Name,
		Expansion:         in.Expansion,
		HouseNamesString:  JoinHouses(in.Houses),
		CardIDs:           in.CardIDs,
		Registered:        in.Registered,
		Chains:            in.Chains,
		Wins:              in.Wins,
		Losses:            in.Losses,
		SynergyRating:     in.Synergy,
		AntisynergyRating: in.Antisynergy,
		Meta:              in.Meta,
	}

	// 1. 统计每张卡牌的份数，保留首次出现的顺序
	copies := map[string]int{}
	var order []string
	for _, id := range in.CardIDs {
		c, ok := cardsByID[id]
		if !ok {
			return Deck{}, fmt.Errorf("牌组 %s 引用了未知卡牌 %s", in.KeyforgeID, id)
		}
		if copies[c.ID] == 0 {
			order = append(order, c.ID)
		}
		copies[c.ID]++
	}

	// 2. 逐张累加数量、身材和AERC
	var (
		rating             float64
		recursion          float64
		creatureProtection float64
		hasRecursion       bool
		hasProtection      bool
		names              []string
	)
	for _, id := range order {
		c := cardsByID[id]
		n := copies[id]

		switch c.CardType {
		case card.Creature:
			d.CreatureCount += n
			d.TotalPower += c.Power * n
			d.TotalArmor += c.Armor * n
		case card.Action:
			d.ActionCount += n
		case card.Artifact:
			d.ArtifactCount += n
		case card.Upgrade:
			d.UpgradeCount += n
		}
		if c.IsRare() {
			d.RaresCount += n
		}
		names = append(names, fmt.Sprintf("%s%d", c.CardTitle, n))

		combo := SynergyCombo{
			House:    c.House,
			CardName: c.CardTitle,
			CardType: c.CardType,
			Power:    c.Power,
			Copies:   n,
		}
		if info, ok := card.ExtraInfoFor(c.CardTitle); ok {
			combo.Rating = info.Rating
			combo.AmberControl = info.AmberControl
			combo.ExpectedAmber = info.ExpectedAmber
			combo.ArtifactControl = info.ArtifactControl
			combo.CreatureControl = info.CreatureControl
			combo.Efficiency = info.Efficiency
			combo.Recursion = info.Recursion
			combo.Disruption = info.Disruption
			combo.CreatureProtection = info.CreatureProtection
			combo.Other = info.Other
			combo.EffectivePower = info.EffectivePower
		} else if c.CardType == card.Creature {
			// 没有附加信息的生物按攻击力计算有效攻击力
			combo.EffectivePower = c.Power
		}

		fn := float64(n)
		rating += combo.Rating * fn
		d.AmberControl += combo.AmberControl * fn
		d.ExpectedAmber += combo.ExpectedAmber * fn
		d.ArtifactControl += combo.ArtifactControl * fn
		d.CreatureControl += combo.CreatureControl * fn
		d.Efficiency += combo.Efficiency * fn
		d.Disruption += combo.Disruption * fn
		d.Other += combo.Other * fn
		d.EffectivePower += combo.EffectivePower * n
		if combo.Recursion != 0 {
			hasRecursion = true
			recursion += combo.Recursion * fn
		}
		if combo.CreatureProtection != 0 {
			hasProtection = true
			creatureProtection += combo.CreatureProtection * fn
		}

		d.SynergyCombos = append(d.SynergyCombos, combo)
	}

	if hasRecursion {
		d.Recursion = &recursion
	}
	if hasProtection {
		d.CreatureProtection = &creatureProtection
	}

	// 3. 汇总评分
	d.CardsRating = RoundHalfUp(rating)
	d.SasRating = d.CardsRating + d.SynergyRating - d.AntisynergyRating
	d.AercScore = d.AmberControl + d.ExpectedAmber + d.ArtifactControl + d.CreatureControl +
		d.Efficiency + recursion + d.Disruption + creatureProtection + d.Other +
		float64(d.EffectivePower)/10

	sort.SliceStable(d.SynergyCombos, func(i, j int) bool {
		return d.SynergyCombos[i].House < d.SynergyCombos[j].House
	})
	d.CardNamesString = strings.Join(names, cardNamesSeparator)
	return d, nil
}
