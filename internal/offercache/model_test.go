package offercache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
	"github.com/Azure/cosmos-explorer-sub003/internal/offercache"
)

func TestNewEntry(t *testing.T) {
	acct := account.Context{AccountName: "acct", APIType: account.APIMongo}
	res := offer.Resource{DatabaseID: "db", CollectionID: "c"}
	o := offer.NewAutoscale("default", 4000)
	minRU := 400
	o.MinimumThroughput = &minRU
	o.OfferReplacePending = true
	o.ThroughputBuckets = []offer.ThroughputBucket{{ID: 1, MaxThroughputPercentage: 30}}

	e := offercache.NewEntry(acct, res, o)
	minRU = 999
	o.ThroughputBuckets[0].MaxThroughputPercentage = 99

	assert.Equal(t, "acct", e.AccountName)
	assert.Equal(t, "Mongo", e.APIType)
	assert.Equal(t, "default", e.OfferID)
	assert.Equal(t, "autoscale", e.Mode)
	assert.Equal(t, 4000, e.Throughput)
	assert.Equal(t, 400, *e.MinimumThroughput)
	assert.True(t, e.OfferReplacePending)
	assert.Equal(t, 30, e.ThroughputBuckets[0].MaxThroughputPercentage)
	assert.Equal(t, res, e.Resource())
}

func TestNewEntry_NoOffer(t *testing.T) {
	e := offercache.NewEntry(account.Context{AccountName: "acct"}, offer.Resource{DatabaseID: "db"}, nil)

	assert.Equal(t, "none", e.Mode)
	assert.Empty(t, e.OfferID)
	assert.Equal(t, offer.KindDatabase, e.Resource().Kind())
}
