package expansion

import (
	"fmt"
	"strings"
)

// House 是卡牌所属的家族
type House string

const (
	Brobnar      House = "Brobnar"
	Dis          House = "Dis"
	Ekwidon      House = "Ekwidon"
	Geistoid     House = "Geistoid"
	Logos        House = "Logos"
	Mars         House = "Mars"
	Sanctum      House = "Sanctum"
	Saurian      House = "Saurian"
	Shadows      House = "Shadows"
	StarAlliance House = "StarAlliance"
	Unfathomable House = "Unfathomable"
	Untamed      House = "Untamed"
)

// Houses 按字母顺序列出全部家族
var Houses = []House{
	Brobnar, Dis, Ekwidon, Geistoid, Logos, Mars, Sanctum, Saurian, Shadows, StarAlliance, Unfathomable, Untamed,
}

// ParseHouse 不区分大小写地解析家族名
func ParseHouse(s string) (House, error) {
	for _, h := range Houses {
		if strings.EqualFold(string(h), s) {
			return h, nil
		}
	}
	return "", fmt.Errorf("未知的家族: %s", s)
}

// Expansion 是一个系列
type Expansion struct {
	Number    int     `json:"expansionNumber"`
	Name      string  `json:"name"`
	Readable  string  `json:"readable"`
	Houses    []House `json:"houses"`
	HasTokens bool    `json:"hasTokens"`
}

// HasHouse 报告该系列是否包含家族 h
func (e Expansion) HasHouse(h House) bool {
	for _, house := range e.Houses {
		if house == h {
			return true
		}
	}
	return false
}

const AnomalyExpansionNumber = 453

var all = []Expansion{
	{341, "CALL_OF_THE_ARCHONS", "CotA", []House{Brobnar, Dis, Logos, Mars, Sanctum, Shadows, Untamed}, false},
	{435, "AGE_OF_ASCENSION", "AoA", []House{Brobnar, Dis, Logos, Mars, Sanctum, Shadows, Untamed}, false},
	{452, "WORLDS_COLLIDE", "WC", []House{Brobnar, Dis, Logos, StarAlliance, Saurian, Shadows, Untamed}, false},
	{AnomalyExpansionNumber, "ANOMALY_EXPANSION", "AE", nil, false},
	{479, "MASS_MUTATION", "MM", []House{StarAlliance, Dis, Logos, Saurian, Sanctum, Shadows, Untamed}, false},
	{496, "DARK_TIDINGS", "DT", []House{StarAlliance, Unfathomable, Logos, Saurian, Sanctum, Shadows, Untamed}, false},
	{600, "WINDS_OF_EXCHANGE", "WoE", []House{Brobnar, Ekwidon, Mars, Saurian, Sanctum, StarAlliance, Unfathomable}, true},
	{601, "UNCHAINED_2022", "UC22", []House{
		Brobnar, Dis, Logos, Mars, Sanctum, Shadows, Untamed, StarAlliance, Saurian, Ekwidon, Unfathomable,
	}, true},
	{609, "VAULT_MASTERS_2023", "VM23", []House{Brobnar, Mars, Logos, Untamed, Dis, StarAlliance, Saurian}, true},
	{700, "GRIM_REMINDERS", "GR", []House{Brobnar, Ekwidon, Geistoid, Mars, StarAlliance, Unfathomable, Untamed}, false},
	{722, "MENAGERIE_2024", "MN24", []House{
		Brobnar, Dis, Ekwidon, Geistoid, Mars, Sanctum, Saurian, Shadows, StarAlliance, Unfathomable, Untamed,
	}, true},
	{737, "VAULT_MASTERS_2024", "VM24", []House{Brobnar, Dis, Sanctum, Shadows, StarAlliance, Unfathomable, Untamed}, false},
}

// All 返回全部系列（副本）
func All() []Expansion {
	out := make([]Expansion, len(all))
	copy(out, all)
	return out
}

// ForNumber 根据系列编号查找系列
func ForNumber(n int) (Expansion, error) {
	for _, e := range all {
		if e.Number == n {
			return e, nil
		}
	}
	return Expansion{}, fmt.Errorf("No expansion for number %d", n)
}

// Active 返回参与统计的系列，即除 AE 以外的全部系列
func Active() []Expansion {
	return Real()
}

// Real 返回真实发行的系列
func Real() []Expansion {
	out := make([]Expansion, 0, len(all)-1)
	for _, e := range all {
		if e.Number != AnomalyExpansionNumber {
			out = append(out, e)
		}
	}
	return out
}

// WithTokens 返回包含衍生物的系列
func WithTokens() []Expansion {
	var out []Expansion
	for _, e := range all {
		if e.HasTokens {
			out = append(out, e)
		}
	}
	return out
}
