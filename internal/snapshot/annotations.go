package snapshot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Annotation keys written by the configuration layer.
const (
	AnnotationHypertable                  = "timescaledb:hypertable"
	AnnotationHypertableTimeColumn        = "timescaledb:hypertable.time_column"
	AnnotationHypertableChunkTimeInterval = "timescaledb:hypertable.chunk_time_interval"
	AnnotationHypertableCompression       = "timescaledb:hypertable.compression"
	AnnotationHypertableMigrateData       = "timescaledb:hypertable.migrate_data"
	AnnotationHypertableChunkSkipColumns  = "timescaledb:hypertable.chunk_skip_columns"
	AnnotationHypertableDimensions        = "timescaledb:hypertable.dimensions"
	AnnotationHypertableSegmentBy         = "timescaledb:hypertable.compression_segment_by"
	AnnotationHypertableOrderBy           = "timescaledb:hypertable.compression_order_by"

	AnnotationReorderPolicy                 = "timescaledb:reorder_policy"
	AnnotationReorderPolicyIndexName        = "timescaledb:reorder_policy.index_name"
	AnnotationReorderPolicyInitialStart     = "timescaledb:reorder_policy.initial_start"
	AnnotationReorderPolicyScheduleInterval = "timescaledb:reorder_policy.schedule_interval"
	AnnotationReorderPolicyMaxRuntime       = "timescaledb:reorder_policy.max_runtime"
	AnnotationReorderPolicyMaxRetries       = "timescaledb:reorder_policy.max_retries"
	AnnotationReorderPolicyRetryPeriod      = "timescaledb:reorder_policy.retry_period"

	AnnotationContinuousAggregate                   = "timescaledb:continuous_aggregate"
	AnnotationContinuousAggregateParent             = "timescaledb:continuous_aggregate.parent"
	AnnotationContinuousAggregateChunkInterval      = "timescaledb:continuous_aggregate.chunk_interval"
	AnnotationContinuousAggregateWithNoData         = "timescaledb:continuous_aggregate.with_no_data"
	AnnotationContinuousAggregateCreateGroupIndexes = "timescaledb:continuous_aggregate.create_group_indexes"
	AnnotationContinuousAggregateMaterializedOnly   = "timescaledb:continuous_aggregate.materialized_only"
	AnnotationContinuousAggregateBucketWidth        = "timescaledb:continuous_aggregate.bucket_width"
	AnnotationContinuousAggregateBucketColumn       = "timescaledb:continuous_aggregate.bucket_column"
	AnnotationContinuousAggregateBucketGroupBy      = "timescaledb:continuous_aggregate.bucket_group_by"
	AnnotationContinuousAggregateAggregates         = "timescaledb:continuous_aggregate.aggregates"
	AnnotationContinuousAggregateGroupBy            = "timescaledb:continuous_aggregate.group_by"
	AnnotationContinuousAggregateWhere              = "timescaledb:continuous_aggregate.where"

	AnnotationRefreshPolicy                       = "timescaledb:refresh_policy"
	AnnotationRefreshPolicyStartOffset            = "timescaledb:refresh_policy.start_offset"
	AnnotationRefreshPolicyEndOffset              = "timescaledb:refresh_policy.end_offset"
	AnnotationRefreshPolicyScheduleInterval       = "timescaledb:refresh_policy.schedule_interval"
	AnnotationRefreshPolicyInitialStart           = "timescaledb:refresh_policy.initial_start"
	AnnotationRefreshPolicyIfNotExists            = "timescaledb:refresh_policy.if_not_exists"
	AnnotationRefreshPolicyIncludeTieredData      = "timescaledb:refresh_policy.include_tiered_data"
	AnnotationRefreshPolicyBucketsPerBatch        = "timescaledb:refresh_policy.buckets_per_batch"
	AnnotationRefreshPolicyMaxBatchesPerExecution = "timescaledb:refresh_policy.max_batches_per_execution"
	AnnotationRefreshPolicyRefreshNewestFirst     = "timescaledb:refresh_policy.refresh_newest_first"
)

// Annotations is the annotation bag of an entity. Values are whatever the snapshot document
// holds: booleans, strings, numbers, lists and maps.
type Annotations map[string]any

// Has reports whether key is present with a non-nil value.
func (a Annotations) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// Bool reads a boolean. Strings "true"/"false" are accepted.
func (a Annotations) Bool(key string) (bool, bool) {
	switch v := a[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	default:
		return false, false
	}
}

// BoolOr reads a boolean, falling back to def when absent or unreadable.
func (a Annotations) BoolOr(key string, def bool) bool {
	if b, ok := a.Bool(key); ok {
		return b
	}
	return def
}

// String reads a string value. Numbers are formatted in decimal so that unquoted
// integers in YAML (e.g. a chunk interval in microseconds) read back unchanged.
// Empty and whitespace-only strings are reported as absent.
func (a Annotations) String(key string) (string, bool) {
	var s string
	switch v := a[key].(type) {
	case string:
		s = strings.TrimSpace(v)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case uint64:
		s = strconv.FormatUint(v, 10)
	case float64:
		if v != math.Trunc(v) {
			return "", false
		}
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "", false
	}
	return s, s != ""
}

// Int reads an integer value.
func (a Annotations) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

// Time reads a timestamp, either a time.Time or an RFC 3339 string.
func (a Annotations) Time(key string) (time.Time, bool) {
	switch v := a[key].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
		return t, err == nil
	default:
		return time.Time{}, false
	}
}

// Strings reads a list of strings. A single string is treated as a one-element list.
func (a Annotations) Strings(key string) ([]string, bool) {
	switch v := a[key].(type) {
	case []string:
		return v, true
	case string:
		return []string{v}, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// List returns the raw elements of a list annotation.
func (a Annotations) List(key string) ([]any, bool) {
	switch v := a[key].(type) {
	case []any:
		return v, true
	case nil:
		return nil, false
	default:
		return []any{v}, true
	}
}

// Decode decodes a structured annotation into out using mapstructure tags.
func (a Annotations) Decode(key string, out any) error {
	v, ok := a[key]
	if !ok || v == nil {
		return fmt.Errorf("annotation %s not set", key)
	}
	return DecodeValue(v, out)
}

// DecodeValue decodes one annotation value (typically a list element) into out.
// Unknown fields are rejected so that a misspelled option is not silently ignored.
func DecodeValue(v any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return dec.Decode(v)
}
