package countstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	c, err := cs.RuleHits(ctx, "no-spam", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.NoError(cs.RecordHit(ctx, "no-spam"))
	assert.NoError(cs.RecordHit(ctx, "no-spam"))

	for _, period := range allPeriods {
		c, err = cs.RuleHits(ctx, "no-spam", period)
		assert.NoError(err)
		assert.Equal(2, c)
	}

	assert.NoError(cs.RecordOffender(ctx, "no-spam", "u1"))
	assert.NoError(cs.RecordOffender(ctx, "no-spam", "u1"))
	assert.NoError(cs.RecordOffender(ctx, "no-spam", "u2"))
	c, err = cs.RuleOffenders(ctx, "no-spam", PeriodTotal)
	assert.NoError(err)
	assert.Equal(2, c)

	// rules tally independently
	c, err = cs.RuleHits(ctx, "no-invites", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
}

func TestMemCountStoreConcurrent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = cs.RecordHit(ctx, "burst")
			}
		}()
	}
	wg.Wait()

	c, err := cs.RuleHits(ctx, "burst", PeriodTotal)
	assert.NoError(err)
	assert.Equal(1000, c)
}

func TestRedisCountStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	cs, err := NewRedisCountStore("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}
	assert.NoError(cs.RecordHit(ctx, "test-rule"))
	c, err := cs.RuleHits(ctx, "test-rule", PeriodTotal)
	assert.NoError(err)
	assert.GreaterOrEqual(c, 1)

	assert.NoError(cs.RecordOffender(ctx, "test-rule", "u1"))
	c, err = cs.RuleOffenders(ctx, "test-rule", PeriodTotal)
	assert.NoError(err)
	assert.GreaterOrEqual(c, 1)
}
