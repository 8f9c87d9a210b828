package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fraudguard/riskengine/pkg/models"
)

func TestCompositeScore_Weights(t *testing.T) {
	factors := models.RiskFactors{
		Location:    100,
		Amount:      100,
		Frequency:   100,
		DeviceTrust: 100,
		TimePattern: 100,
	}
	assert.InDelta(t, 100.0, CompositeScore(factors), 1e-9)

	assert.InDelta(t, 25.0, CompositeScore(models.RiskFactors{Location: 100}), 1e-9)
	assert.InDelta(t, 30.0, CompositeScore(models.RiskFactors{Amount: 100}), 1e-9)
	assert.InDelta(t, 20.0, CompositeScore(models.RiskFactors{Frequency: 100}), 1e-9)
	assert.InDelta(t, 15.0, CompositeScore(models.RiskFactors{DeviceTrust: 100}), 1e-9)
	assert.InDelta(t, 10.0, CompositeScore(models.RiskFactors{TimePattern: 100}), 1e-9)
}

func TestCompositeScore_MonotonicInEachFactor(t *testing.T) {
	base := models.RiskFactors{
		Location:    40,
		Amount:      40,
		Frequency:   40,
		DeviceTrust: 40,
		TimePattern: 40,
	}
	baseline := CompositeScore(base)

	bump := []func(models.RiskFactors) models.RiskFactors{
		func(f models.RiskFactors) models.RiskFactors { f.Location += 10; return f },
		func(f models.RiskFactors) models.RiskFactors { f.Amount += 10; return f },
		func(f models.RiskFactors) models.RiskFactors { f.Frequency += 10; return f },
		func(f models.RiskFactors) models.RiskFactors { f.DeviceTrust += 10; return f },
		func(f models.RiskFactors) models.RiskFactors { f.TimePattern += 10; return f },
	}
	for i, raise := range bump {
		assert.Greater(t, CompositeScore(raise(base)), baseline, "factor %d", i)
	}
}

func TestShouldFreeze_StrictBoundary(t *testing.T) {
	assert.False(t, ShouldFreeze(69.9))
	assert.False(t, ShouldFreeze(70.0))
	assert.True(t, ShouldFreeze(70.000001))
	assert.True(t, ShouldFreeze(100))
}

func TestLevelForScore_Bands(t *testing.T) {
	assert.Equal(t, RiskLevelLow, LevelForScore(0))
	assert.Equal(t, RiskLevelLow, LevelForScore(29.9))
	assert.Equal(t, RiskLevelMedium, LevelForScore(30))
	assert.Equal(t, RiskLevelMedium, LevelForScore(54.9))
	assert.Equal(t, RiskLevelHigh, LevelForScore(55))
	assert.Equal(t, RiskLevelHigh, LevelForScore(74.9))
	assert.Equal(t, RiskLevelCritical, LevelForScore(75))
	assert.Equal(t, RiskLevelCritical, LevelForScore(100))
}

func TestAlertMessage_ListsBreachedFactors(t *testing.T) {
	factors := models.RiskFactors{
		Location:    80,
		Amount:      100,
		Frequency:   70, // at threshold, not above, so not listed
		DeviceTrust: 10,
		TimePattern: 71,
	}

	assert.Equal(t, "location, amount, time_pattern", AlertMessage(factors))
}

func TestAlertMessage_EmptyWhenNoneBreach(t *testing.T) {
	factors := models.RiskFactors{
		Location:    70,
		Amount:      70,
		Frequency:   70,
		DeviceTrust: 70,
		TimePattern: 70,
	}

	assert.Equal(t, "", AlertMessage(factors))
}
