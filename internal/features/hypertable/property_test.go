package hypertable

import (
	"reflect"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
)

func genHypertable() gopter.Gen {
	return gopter.CombineGens(
		gen.Identifier(),
		gen.OneConstOf("", "7 days", "1 day", "86400000000"),
		gen.Bool(),
		gen.SliceOfN(3, gen.OneConstOf("device_id", "trace_id", "region", "value")),
		gen.IntRange(0, 8),
		gen.SliceOfN(2, gen.OneConstOf("device_id", "region")),
	).Map(func(vals []any) Hypertable {
		h := Hypertable{
			Schema:             "public",
			Table:              vals[0].(string),
			TimeColumn:         "time",
			ChunkTimeInterval:  vals[1].(string),
			CompressionEnabled: vals[2].(bool),
			ChunkSkipColumns:   slices.Compact(vals[3].([]string)),
		}
		if n := vals[4].(int); n > 0 {
			h.Dimensions = []Dimension{{Column: "device_id", Kind: DimensionHash, NumberOfPartitions: n}}
		}
		if segs := vals[5].([]string); len(segs) > 0 && segs[0] != segs[len(segs)-1] {
			h.CompressionSegmentBy = segs
		}
		return h
	})
}

func TestProperty_DiffOfIdenticalIsEmpty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("diff(S, S) produces no operations", prop.ForAll(
		func(h Hypertable) bool {
			return len(Diff([]Hypertable{h}, []Hypertable{h})) == 0
		},
		genHypertable(),
	))

	properties.Property("alter of identical hypertables renders nothing", prop.ForAll(
		func(h Hypertable) bool {
			return len(GenerateAlter(Alter{Old: h, New: h})) == 0
		},
		genHypertable(),
	))

	properties.TestingRun(t)
}

func TestProperty_Deterministic(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("diff and generate are deterministic", prop.ForAll(
		func(a, b Hypertable) bool {
			b.Table = a.Table
			first := Diff([]Hypertable{a}, []Hypertable{b})
			second := Diff([]Hypertable{a}, []Hypertable{b})
			if !reflect.DeepEqual(first, second) {
				return false
			}
			for i := range first {
				f := NewFeature(zerolog.Nop())
				s1, _ := f.Generate(first[i])
				s2, _ := f.Generate(second[i])
				if !reflect.DeepEqual(s1, s2) {
					return false
				}
			}
			return true
		},
		genHypertable(),
		genHypertable(),
	))

	properties.Property("changes never produce a drop", prop.ForAll(
		func(a, b Hypertable) bool {
			b.Table = a.Table
			for _, op := range Diff([]Hypertable{a}, []Hypertable{b}) {
				if _, ok := op.(Alter); !ok {
					return false
				}
			}
			return true
		},
		genHypertable(),
		genHypertable(),
	))

	properties.TestingRun(t)
}
