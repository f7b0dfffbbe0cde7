package service

import "github.com/fleveque/stockdata-service/internal/model"

// timestampLayout is ISO-8601 without a zone suffix. Timestamps are
// normalized to UTC and the offset dropped before formatting, so the same
// instant always produces the same key regardless of the exchange's
// timezone. Lexicographic order of these keys equals chronological order,
// which keeps the serialized document time-ordered.
const timestampLayout = "2006-01-02T15:04:05"

// Shape converts a fetched series into its persistence-ready form: a
// mapping keyed by ISO-8601 timestamp string, each value holding every
// field of the observation. Missing values stay as explicit nulls (nil
// pointers) rather than being omitted.
//
// Shape is a pure function: no side effects, no aggregation, no resampling.
// Shaping the same series twice yields identical output.
func Shape(series model.Series) model.ShapedSeries {
	shaped := make(model.ShapedSeries, len(series))
	for _, obs := range series {
		key := obs.Timestamp.UTC().Format(timestampLayout)
		fields := make(map[string]*float64, len(obs.Fields))
		for name, value := range obs.Fields {
			fields[name] = value
		}
		shaped[key] = fields
	}
	return shaped
}
