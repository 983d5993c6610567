package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"hotelprices/config"
	"hotelprices/logger"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestPublisherFlushesQueuedMetrics(t *testing.T) {
	fake := &fakeCloudWatch{}
	pub := NewCloudWatchPublisherWithClient(fake, "HotelPrices", logger.Discard())
	r := NewRecorder(logger.Discard())
	pub.Attach(r)

	r.Emit("collector", "snapshots_written", 2, "count", logger.Fields{"hotel": "Seven Stars", "attempt": 1})
	r.Emit("fetcher", "fetch_duration", 1.5, "seconds", nil)

	if err := pub.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(fake.inputs))
	}

	in := fake.inputs[0]
	if aws.ToString(in.Namespace) != "HotelPrices" {
		t.Fatalf("unexpected namespace %q", aws.ToString(in.Namespace))
	}
	if len(in.MetricData) != 2 {
		t.Fatalf("expected 2 datums, got %d", len(in.MetricData))
	}

	first := in.MetricData[0]
	if aws.ToString(first.MetricName) != "snapshots_written" || aws.ToFloat64(first.Value) != 2 {
		t.Fatalf("unexpected datum: %+v", first)
	}
	// Non-string fields are not turned into dimensions.
	if len(first.Dimensions) != 2 {
		t.Fatalf("expected component and hotel dimensions, got %d", len(first.Dimensions))
	}
	if in.MetricData[1].Unit != cwtypes.StandardUnitSeconds {
		t.Fatalf("unexpected unit %s", in.MetricData[1].Unit)
	}

	if err := pub.Flush(context.Background()); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("empty flush should not publish")
	}
}

func TestPublisherBatchesLargeFlushes(t *testing.T) {
	fake := &fakeCloudWatch{}
	pub := NewCloudWatchPublisherWithClient(fake, "HotelPrices", logger.Discard())
	for i := 0; i < maxDatumsPerCall+5; i++ {
		pub.Add(Metric{Component: "aggregator", Name: "rows", Value: float64(i)})
	}

	if err := pub.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(fake.inputs) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(fake.inputs))
	}
	if len(fake.inputs[1].MetricData) != 5 {
		t.Fatalf("expected 5 datums in last batch, got %d", len(fake.inputs[1].MetricData))
	}
}

func TestPublisherFlushError(t *testing.T) {
	boom := errors.New("throttled")
	pub := NewCloudWatchPublisherWithClient(&fakeCloudWatch{err: boom}, "HotelPrices", logger.Discard())
	pub.Add(Metric{Component: "alert", Name: "alerts_sent", Value: 1})

	if err := pub.Flush(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestDisabledPublisherIsNil(t *testing.T) {
	pub := NewCloudWatchPublisher(context.Background(), config.CloudWatchConfig{Enabled: false}, logger.Discard())
	if pub != nil {
		t.Fatalf("expected nil publisher when disabled")
	}
	if id := pub.Attach(NewRecorder(logger.Discard())); id != 0 {
		t.Fatalf("nil publisher should not register")
	}
	if err := pub.Flush(context.Background()); err != nil {
		t.Fatalf("nil publisher flush: %v", err)
	}
}

func TestMetricUnitFromString(t *testing.T) {
	cases := map[string]cwtypes.StandardUnit{
		"count":        cwtypes.StandardUnitCount,
		"Seconds":      cwtypes.StandardUnitSeconds,
		"milliseconds": cwtypes.StandardUnitMilliseconds,
	}
	for in, want := range cases {
		got, ok := metricUnitFromString(in)
		if !ok || got != want {
			t.Fatalf("metricUnitFromString(%q) = %s, %v", in, got, ok)
		}
	}
	if got, ok := metricUnitFromString("furlongs"); ok || got != cwtypes.StandardUnitCount {
		t.Fatalf("unexpected fallback %s %v", got, ok)
	}
}
