package timeseries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gridscope/gridscope-backend/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// MeasurementStore mirrors raw measurement batches into InfluxDB for
// history and charting. It is best-effort: the relational event rows are
// the system of record and a failed write never fails measurement
// processing.
type MeasurementStore struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
}

// NewMeasurementStore connects to InfluxDB. An empty URL disables the
// store; every operation becomes a no-op.
func NewMeasurementStore(url, token, org, bucket string) *MeasurementStore {
	if url == "" {
		return &MeasurementStore{}
	}

	client := influxdb2.NewClient(url, token)
	return &MeasurementStore{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		queryAPI: client.QueryAPI(org),
		bucket:   bucket,
	}
}

// Write stores one element's metric set as a single measurement point.
func (s *MeasurementStore) Write(ctx context.Context, elementID string, elementType models.ElementType, metrics map[string]float64, ts time.Time) error {
	if s.writeAPI == nil {
		return nil
	}

	fields := make(map[string]interface{}, len(metrics))
	for name, value := range metrics {
		fields[name] = value
	}

	point := influxdb2.NewPoint(
		"measurement",
		map[string]string{
			"element_id":   elementID,
			"element_type": string(elementType),
		},
		fields,
		ts,
	)

	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("failed to write measurement point: %w", err)
	}
	return nil
}

// Sample is one metric value read back from the history store.
type Sample struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Recent returns the element's raw samples within the lookback window.
func (s *MeasurementStore) Recent(ctx context.Context, elementID string, window time.Duration) ([]Sample, error) {
	if s.queryAPI == nil {
		return nil, errors.New("measurement store is not configured")
	}

	query := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == "measurement")
  |> filter(fn: (r) => r.element_id == %q)`,
		s.bucket, window.String(), elementID)

	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer result.Close()

	var samples []Sample
	for result.Next() {
		record := result.Record()
		value, ok := record.Value().(float64)
		if !ok {
			continue
		}
		samples = append(samples, Sample{
			Metric:    record.Field(),
			Value:     value,
			Timestamp: record.Time(),
		})
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("failed to read measurement results: %w", result.Err())
	}
	return samples, nil
}

// Ping reports store connectivity for health checks.
func (s *MeasurementStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return errors.New("measurement store is not configured")
	}
	ok, err := s.client.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("influxdb ping failed")
	}
	return nil
}

func (s *MeasurementStore) Close() {
	if s.client != nil {
		s.client.Close()
	}
}
