/*
Copyright 2022

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package jquants

import (
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetBar is the flattened export row; absent numerics export as zero.
type parquetBar struct {
	Code             string  `parquet:"name=code, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Date             string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Open             float64 `parquet:"name=open, type=DOUBLE"`
	High             float64 `parquet:"name=high, type=DOUBLE"`
	Low              float64 `parquet:"name=low, type=DOUBLE"`
	Close            float64 `parquet:"name=close, type=DOUBLE"`
	Volume           float64 `parquet:"name=volume, type=DOUBLE"`
	TurnoverValue    float64 `parquet:"name=turnoverValue, type=DOUBLE"`
	AdjustmentFactor float64 `parquet:"name=adjustmentFactor, type=DOUBLE"`
	AdjustmentClose  float64 `parquet:"name=adjustmentClose, type=DOUBLE"`
}

// SaveToParquet writes daily bars to a local parquet file.
func SaveToParquet(quotes []*QuoteRecord, fn string) error {
	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	pw, err := writer.NewParquetWriter(fh, new(parquetBar), 4)
	if err != nil {
		log.Error().Err(err).Msg("Parquet write failed")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_GZIP

	for _, q := range quotes {
		row := parquetBar{
			Code:             q.Code,
			Open:             q.Open.Value,
			High:             q.High.Value,
			Low:              q.Low.Value,
			Close:            q.Close.Value,
			Volume:           q.Volume.Value,
			TurnoverValue:    q.TurnoverValue.Value,
			AdjustmentFactor: q.AdjustmentFactor.Value,
			AdjustmentClose:  q.AdjustmentClose.Value,
		}
		if q.Date.Valid {
			row.Date = q.Date.Time.Format("2006-01-02")
		}
		if err = pw.Write(row); err != nil {
			log.Error().Err(err).Str("Code", q.Code).Str("EventDate", row.Date).Msg("Parquet write failed for record")
		}
	}

	if err = pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("Parquet write failed")
		return err
	}

	log.Info().Int("NumRecords", len(quotes)).Msg("Parquet write finished")
	return nil
}
