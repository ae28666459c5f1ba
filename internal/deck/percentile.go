package deck

import "sync"

// Percentiles 是一副牌组在当前统计中的评分百分位，未知时为 -1
type Percentiles struct {
	CardsRating int
	Synergy     int
	Antisynergy int
	Sas         int
}

// PercentileSource 根据当前统计计算评分百分位，由统计模块在启动时注册
type PercentileSource interface {
	PercentilesFor(cardsRating, synergy, antisynergy, sas int) Percentiles
}

var (
	percentileMu     sync.RWMutex
	percentileSource PercentileSource
)

// SetPercentileSource 注册百分位来源
func SetPercentileSource(src PercentileSource) {
	percentileMu.Lock()
	defer percentileMu.Unlock()
	percentileSource = src
}

func percentilesFor(d Deck) Percentiles {
	percentileMu.RLock()
	src := percentileSource
	percentileMu.RUnlock()

	if src == nil {
		return Percentiles{CardsRating: -1, Synergy: -1, Antisynergy: -1, Sas: -1}
	}
	return src.PercentilesFor(d.CardsRating, d.SynergyRating, d.AntisynergyRating, d.SasRating)
}
