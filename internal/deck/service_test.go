package deck

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/metadata"
	"github.com/SlpAus/keyforge-decks-backend/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listingRow 只包含牌组查询用到的 user_decks 列
type listingRow struct {
	ID               string `gorm:"primarykey;type:varchar(36)"`
	UserID           string
	DeckID           uint
	OwnedBy          *string
	Wishlist         bool
	ForSale          bool
	ForTrade         bool
	ForSaleInCountry *string
	AskingPrice      *float64
	ListingInfo      *string
	ExternalLink     *string
	DeckCondition    *string
	DateListed       *time.Time
	ExpiresAt        *time.Time
}

func (listingRow) TableName() string { return userDecksTable }

type fixture struct {
	env                       *dbtest.Env
	alpha, beta, gamma, delta Deck
}

func setup(t *testing.T) *fixture {
	t.Helper()
	env := dbtest.Setup(t, &Deck{}, &card.Card{}, &user.KeyUser{}, &listingRow{}, &metadata.Metadata{})
	t.Cleanup(func() { database.SetRedisHealthy(true) })

	cards := testCards()
	require.NoError(t, card.ImportCards(env.DB, []card.Card{cards["c1"], cards["c2"], cards["c3"]}))

	f := &fixture{env: env}
	f.alpha = seedDeck(t, Deck{Name: "Alpha", SasRating: 80, Expansion: 341, Registered: true, AmberControl: 5,
		HouseNamesString: JoinHouses([]expansion.House{expansion.Brobnar, expansion.Dis, expansion.Logos}),
		CardNamesString:  "Troll1|Imp2", CardIDs: []string{"c1", "c3", "c3"}})
	f.beta = seedDeck(t, Deck{Name: "Beta", SasRating: 60, Expansion: 435, Registered: true, AmberControl: 10,
		HouseNamesString: JoinHouses([]expansion.House{expansion.Dis, expansion.Mars, expansion.Shadows}),
		CardNamesString:  "Imp1"})
	f.gamma = seedDeck(t, Deck{Name: "Gamma", SasRating: 70, Expansion: 341,
		HouseNamesString: JoinHouses([]expansion.House{expansion.Brobnar, expansion.Logos, expansion.Untamed})})
	f.delta = seedDeck(t, Deck{Name: "Delta", SasRating: 50, Expansion: 341, Registered: true, ForSale: true,
		HouseNamesString: JoinHouses([]expansion.House{expansion.Brobnar, expansion.Mars, expansion.Sanctum})})
	return f
}

func seedDeck(t *testing.T, d Deck) Deck {
	t.Helper()
	d.KeyforgeID = uuid.NewString()
	require.NoError(t, database.DB.Create(&d).Error)
	return d
}

func names(p *Page) []string {
	out := make([]string, 0, len(p.Decks))
	for _, d := range p.Decks {
		out = append(out, d.Name)
	}
	return out
}

func filter(t *testing.T, f Filters) []string {
	t.Helper()
	p, err := FilterDecks(f, nil)
	require.NoError(t, err)
	return names(p)
}

func TestFilterDecks(t *testing.T) {
	setup(t)

	assert.Equal(t, []string{"Alpha", "Beta", "Delta"}, filter(t, DefaultFilters()))
	assert.Equal(t, []string{"Alpha", "Gamma", "Beta", "Delta"}, filter(t, Filters{IncludeUnregistered: true}))
	assert.Equal(t, []string{"Alpha", "Delta"}, filter(t, Filters{Houses: []expansion.House{expansion.Brobnar}}))
	assert.Equal(t, []string{"Alpha"}, filter(t, Filters{Houses: []expansion.House{
		expansion.Brobnar, expansion.Dis, expansion.Logos, expansion.Mars,
	}}), "four or more houses exclude decks with any other house")
	assert.Equal(t, []string{"Alpha"}, filter(t, Filters{Title: "ALP"}))
	assert.Equal(t, []string{"Beta"}, filter(t, Filters{Constraints: []Constraint{{Property: "amberControl", Cap: CapMin, Value: 6}}}))
	assert.Equal(t, []string{"Beta", "Delta"}, filter(t, Filters{Constraints: []Constraint{{Property: "sasRating", Cap: CapMax, Value: 60}}}))
	assert.Equal(t, []string{"Alpha"}, filter(t, Filters{Cards: []CardQuantity{{CardName: "Imp", Quantity: 2}}}))
	assert.Equal(t, []string{"Delta"}, filter(t, Filters{ForSale: true}))
	assert.Equal(t, []string{"Alpha", "Beta", "Delta"}, filter(t, Filters{Sort: SortName, SortDirection: Asc}))
	assert.Empty(t, filter(t, Filters{MyFavorites: true}), "favorites need a viewer")

	_, err := FilterDecks(Filters{Page: -1}, nil)
	assert.ErrorAs(t, err, new(*apperr.HTTPError))
}

func TestFilterDecksAttachesCards(t *testing.T) {
	f := setup(t)

	p, err := FilterDecks(Filters{Title: "alpha"}, nil)
	require.NoError(t, err)
	require.Len(t, p.Decks, 1)
	result := p.Decks[0]
	assert.Equal(t, f.alpha.ID, result.ID)
	assert.Equal(t, []expansion.House{expansion.Brobnar, expansion.Dis, expansion.Logos}, result.HouseList)
	require.Len(t, result.SearchCards, 3)
	assert.Equal(t, "Troll", result.SearchCards[0].CardTitle)
	assert.Equal(t, "Imp", result.SearchCards[2].CardTitle)
}

func TestDefaultPageIsCached(t *testing.T) {
	f := setup(t)

	require.Equal(t, []string{"Alpha", "Beta", "Delta"}, filter(t, DefaultFilters()))
	assert.True(t, f.env.Redis.Exists(CachedPageKeyPrefix+"0"))
	ttl := f.env.Redis.TTL(CachedPageKeyPrefix + "0")
	assert.Equal(t, cacheTTL, ttl)

	seedDeck(t, Deck{Name: "Omega", SasRating: 99, Registered: true, Expansion: 341})

	// 缓存命中时看不到新牌组，其它条件不受影响
	assert.Equal(t, []string{"Alpha", "Beta", "Delta"}, filter(t, DefaultFilters()))
	assert.Equal(t, []string{"Omega", "Alpha", "Beta", "Delta"}, filter(t, Filters{Sort: SortSasRating, SortDirection: Desc, Constraints: []Constraint{{Property: "sasRating", Cap: CapMin, Value: 0}}}))

	// Redis不可用时直接查询数据库
	database.SetRedisHealthy(false)
	assert.Equal(t, []string{"Omega", "Alpha", "Beta", "Delta"}, filter(t, DefaultFilters()))
	database.SetRedisHealthy(true)

	require.NoError(t, ClearCachedValues())
	assert.False(t, f.env.Redis.Exists(CachedPageKeyPrefix+"0"))
	assert.Equal(t, []string{"Omega", "Alpha", "Beta", "Delta"}, filter(t, DefaultFilters()))
}

func TestCountFilters(t *testing.T) {
	f := setup(t)

	count, err := CountFilters(DefaultFilters(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count.Count, "the default count covers every deck")
	assert.Equal(t, int64(1), count.Pages)
	assert.True(t, f.env.Redis.Exists(CachedCountKey))

	count, err = CountFilters(Filters{Houses: []expansion.House{expansion.Brobnar}}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Count)

	// 计数缓存只对第 0 页生效
	count, err = CountFilters(Filters{Page: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Count)
}

func TestCountFiltersCapsFilteredCount(t *testing.T) {
	setup(t)

	bulk := make([]Deck, 0, maxFilteredCount+5)
	for i := 0; i < maxFilteredCount+5; i++ {
		bulk = append(bulk, Deck{KeyforgeID: uuid.NewString(), Name: "Bulk", Registered: true, Expansion: 341})
	}
	require.NoError(t, database.DB.CreateInBatches(&bulk, 200).Error)

	count, err := CountFilters(Filters{Title: "bulk"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(maxFilteredCount), count.Count)
	assert.Equal(t, int64(maxFilteredCount/PageSize), count.Pages)

	total, err := CountFilters(DefaultFilters(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(maxFilteredCount+5+4), total.Count, "the default count is not capped")
}

func TestUnknownConstraintIsBadRequest(t *testing.T) {
	setup(t)
	bad := Filters{Constraints: []Constraint{{Property: "password", Cap: CapMin, Value: 1}}}

	_, err := FilterDecks(bad, nil)
	var httpErr *apperr.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)

	_, err = CountFilters(bad, nil)
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
}

func TestForSaleAndForTradeCombineWithOr(t *testing.T) {
	setup(t)
	seedDeck(t, Deck{Name: "Epsilon", SasRating: 55, Expansion: 341, Registered: true, ForTrade: true})

	assert.Equal(t, []string{"Delta"}, filter(t, Filters{ForSale: true}))
	assert.Equal(t, []string{"Epsilon"}, filter(t, Filters{ForTrade: true}))
	assert.Equal(t, []string{"Epsilon", "Delta"}, filter(t, Filters{ForSale: true, ForTrade: true}))
}

func TestWarmupCache(t *testing.T) {
	f := setup(t)

	require.NoError(t, WarmupCache())
	for _, key := range []string{CachedPageKeyPrefix + "0", CachedPageKeyPrefix + "1", CachedCountKey} {
		assert.True(t, f.env.Redis.Exists(key), key)
	}
}

type fixedPercentiles struct{}

func (fixedPercentiles) PercentilesFor(cardsRating, synergy, antisynergy, sas int) Percentiles {
	return Percentiles{CardsRating: 10, Synergy: 20, Antisynergy: 30, Sas: sas}
}

func TestFindDeckWithSynergies(t *testing.T) {
	f := setup(t)

	d, err := FindDeckWithSynergies("simple")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = FindDeckWithSynergies("too-short")
	var httpErr *apperr.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)

	_, err = FindDeckWithSynergies(uuid.NewString())
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)

	d, err = FindDeckWithSynergies(f.alpha.KeyforgeID)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Len(t, d.Deck.SearchCards, 3)
	assert.Empty(t, d.Deck.DeckSaleInfo)
	assert.Equal(t, -1, d.SasPercentile, "no statistics registered")

	SetPercentileSource(fixedPercentiles{})
	t.Cleanup(func() { SetPercentileSource(nil) })
	d, err = FindDeckWithSynergies(f.alpha.KeyforgeID)
	require.NoError(t, err)
	assert.Equal(t, 10, d.CardRatingPercentile)
	assert.Equal(t, 80, d.SasPercentile)
}

func TestFindDeckSimple(t *testing.T) {
	f := setup(t)

	d, err := FindDeckSimple(f.beta.KeyforgeID)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Beta", d.Name)
	assert.Empty(t, d.SearchCards)

	d, err = FindDeckSimple("bad")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = FindDeckSimple(uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestSaleInfoForDeck(t *testing.T) {
	f := setup(t)

	contact := "discord: seller"
	seller := user.KeyUser{ID: uuid.NewString(), Username: "seller", Email: "s@example.com", Password: "x", PublicContactInfo: &contact}
	require.NoError(t, database.DB.Create(&seller).Error)
	price := 25.0
	listed := time.Now()
	require.NoError(t, database.DB.Create(&listingRow{
		ID: uuid.NewString(), UserID: seller.ID, DeckID: f.delta.ID, OwnedBy: &seller.Username,
		ForSale: true, AskingPrice: &price, DateListed: &listed,
	}).Error)

	infos, err := SaleInfoForDeck(f.delta.KeyforgeID)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "seller", infos[0].Username)
	require.NotNil(t, infos[0].AskingPrice)
	assert.InDelta(t, 25.0, *infos[0].AskingPrice, 0.0001)
	assert.Equal(t, &contact, infos[0].PublicContactInfo)

	infos, err = SaleInfoForDeck(uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestImportDecks(t *testing.T) {
	f := setup(t)
	withTestExtraInfo(t)
	require.NoError(t, f.env.RDB.Set(database.Ctx, CachedCountKey, 4, 0).Err())

	id := uuid.NewString()
	in := Import{KeyforgeID: id, Name: "Imported", Expansion: 341, Registered: true,
		Houses: []expansion.House{expansion.Brobnar, expansion.Dis, expansion.Logos}, CardIDs: []string{"c1", "c2", "c3"}, Wins: 1}
	n, err := ImportDecks([]Import{in})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, f.env.Redis.Exists(CachedCountKey), "import drops the cached count")

	saved, err := FindByKeyforgeID(database.DB, id)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 7, saved.CardsRating)
	require.NoError(t, database.DB.Model(saved).Update("wishlist_count", 3).Error)

	// 重新导入只覆盖评分字段
	in.Wins = 5
	_, err = ImportDecks([]Import{in})
	require.NoError(t, err)
	saved, err = FindByKeyforgeID(database.DB, id)
	require.NoError(t, err)
	assert.Equal(t, 5, saved.Wins)
	assert.Equal(t, 3, saved.WishlistCount)

	rating, err := metadata.IsRatingDecks(database.DB)
	require.NoError(t, err)
	assert.False(t, rating)

	_, err = ImportDecks([]Import{{KeyforgeID: uuid.NewString(), Expansion: 341, CardIDs: []string{"missing"}}})
	assert.Error(t, err)
	rating, err = metadata.IsRatingDecks(database.DB)
	require.NoError(t, err)
	assert.False(t, rating, "the lease is released when rating fails")
}

func TestHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := setup(t)

	r := gin.New()
	r.GET("/decks/simple/:id", GetDeckSimple)
	r.GET("/decks/with-synergies/:id", GetDeckWithSynergies)
	r.GET("/decks/sale-info/:id", GetSaleInfo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/decks/simple/"+f.alpha.KeyforgeID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Alpha"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/decks/simple/nope", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/decks/with-synergies/nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/decks/sale-info/"+f.beta.KeyforgeID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
