package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalScanner/internal/model"
)

func snapshot(rsi, emaS, emaL, macd, sig, sar float64) model.IndicatorSnapshot {
	return model.IndicatorSnapshot{
		RSI:        model.Float(rsi),
		EMAShort:   model.Float(emaS),
		EMALong:    model.Float(emaL),
		MACD:       model.Float(macd),
		MACDSignal: model.Float(sig),
		SAR:        model.Float(sar),
	}
}

func TestDecide_Long(t *testing.T) {
	snap := snapshot(40, 105, 100, 1.2, 0.8, 48)
	assert.Equal(t, model.SignalLong, Decide(snap, 50))
}

func TestDecide_Short(t *testing.T) {
	snap := snapshot(60, 95, 100, 0.5, 0.9, 52)
	assert.Equal(t, model.SignalShort, Decide(snap, 50))
}

func TestDecide_Table(t *testing.T) {
	tests := []struct {
		name  string
		snap  model.IndicatorSnapshot
		close float64
		want  model.Signal
	}{
		{"rsi exactly 50", snapshot(50, 105, 100, 1.2, 0.8, 48), 50, model.SignalNeutral},
		{"close equals sar", snapshot(40, 105, 100, 1.2, 0.8, 50), 50, model.SignalNeutral},
		{"emas equal", snapshot(40, 100, 100, 1.2, 0.8, 48), 50, model.SignalNeutral},
		{"macd equals signal", snapshot(60, 95, 100, 0.8, 0.8, 52), 50, model.SignalNeutral},
		{"mixed: long trend, overbought rsi", snapshot(70, 105, 100, 1.2, 0.8, 48), 50, model.SignalNeutral},
		{"mixed: short trend, price above sar", snapshot(60, 95, 100, 0.5, 0.9, 48), 50, model.SignalNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.snap, tt.close))
		})
	}
}

func TestDecide_AbsentFieldIsNeutral(t *testing.T) {
	snap := snapshot(40, 105, 100, 1.2, 0.8, 48)
	snap.MACDSignal = nil
	assert.Equal(t, model.SignalNeutral, Decide(snap, 50))
	assert.Equal(t, model.SignalNeutral, Decide(model.IndicatorSnapshot{}, 50))
}

func TestEvaluate_MutuallyExclusive(t *testing.T) {
	values := []float64{40, 50, 60}
	for _, rsi := range values {
		for _, emaS := range []float64{95, 100, 105} {
			for _, macd := range []float64{0.5, 0.8, 1.2} {
				for _, sar := range []float64{48, 50, 52} {
					d := Evaluate(snapshot(rsi, emaS, 100, macd, 0.8, sar), 50)
					require.Len(t, d.Conditions, 4)
					for _, c := range d.Conditions {
						assert.False(t, c.Long && c.Short, "condition %s supports both sides", c.Name)
					}
					assert.Contains(t, []model.Signal{model.SignalLong, model.SignalShort, model.SignalNeutral}, d.Signal)
				}
			}
		}
	}
}

func TestEligible(t *testing.T) {
	day := 24 * time.Hour
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	daily := []model.Candle{
		{Time: base, Open: 100, High: 110, Low: 90, Close: 100},
		{Time: base.Add(day), Open: 100, High: 116, Low: 84, Close: 100},
	}

	tests := []struct {
		price float64
		want  bool
	}{
		{115, true},
		{85, true},
		{100, false},
		{110, false},
		{90, false},
	}
	for _, tt := range tests {
		got, err := Eligible(tt.price, daily)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "price %.0f", tt.price)
	}
}

func TestEligible_InsufficientDaily(t *testing.T) {
	got, err := Eligible(115, []model.Candle{{High: 110, Low: 90, Open: 100, Close: 100}})
	assert.False(t, got)
	assert.ErrorIs(t, err, ErrInsufficientDaily)

	got, err = Eligible(115, nil)
	assert.False(t, got)
	assert.ErrorIs(t, err, ErrInsufficientDaily)
}
