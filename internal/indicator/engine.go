package indicator

import "momentum-backtest/internal/model"

// Compute derives the three strategy series from a bar sequence.
//
// Pure function: same bars in, bit-identical series out. Each output slice has
// exactly len(bars) entries with NaN during warm-up, so values at bar i depend
// only on bars [0..i] and all series stay index-aligned with the input.
func Compute(bars []model.Bar, rsiPeriod, smaPeriod, atrPeriod int) model.IndicatorSeries {
	return model.IndicatorSeries{
		RSI: VolumeRSI(bars, rsiPeriod),
		SMA: SafeSMA(bars, smaPeriod),
		ATR: ATR(bars, atrPeriod),
	}
}
