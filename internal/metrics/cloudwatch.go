package metrics

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"hotelprices/config"
	"hotelprices/logger"
)

// maxDatumsPerCall is the PutMetricData limit on metric data per request.
const maxDatumsPerCall = 1000

// CloudWatchAPI is the subset of the CloudWatch client used for publishing.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchPublisher buffers metrics from a Recorder and sends them in
// batches on Flush.
type CloudWatchPublisher struct {
	client    CloudWatchAPI
	namespace string
	log       *logger.Log

	mu      sync.Mutex
	pending []cwtypes.MetricDatum
}

// NewCloudWatchPublisher builds a CloudWatch client from the default AWS
// chain. It returns nil when publishing is disabled or the AWS
// configuration cannot be loaded; a nil publisher is safe to use.
func NewCloudWatchPublisher(ctx context.Context, cfg config.CloudWatchConfig, log *logger.Log) *CloudWatchPublisher {
	if !cfg.Enabled {
		return nil
	}
	cwLog := log.WithComponent("cloudwatch")

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		cwLog.WithError(err).Warn("failed to load AWS configuration; CloudWatch metrics disabled")
		return nil
	}

	cwLog.WithFields(logger.Fields{
		"region":    awsCfg.Region,
		"namespace": cfg.Namespace,
	}).Info("initialized CloudWatch client")

	return NewCloudWatchPublisherWithClient(cloudwatch.NewFromConfig(awsCfg), cfg.Namespace, log)
}

func NewCloudWatchPublisherWithClient(client CloudWatchAPI, namespace string, log *logger.Log) *CloudWatchPublisher {
	return &CloudWatchPublisher{client: client, namespace: namespace, log: log}
}

// Attach registers the publisher as a handler of r.
func (p *CloudWatchPublisher) Attach(r *Recorder) MetricHandlerID {
	if p == nil {
		return 0
	}
	return r.RegisterHandler(p.Add)
}

// Add converts metric to a datum and queues it.
func (p *CloudWatchPublisher) Add(metric Metric) {
	if p == nil {
		return
	}

	unit, ok := metricUnitFromString(metric.Unit)
	if !ok {
		p.log.WithComponent("cloudwatch").WithFields(logger.Fields{
			"metric": metric.Name,
			"unit":   metric.Unit,
		}).Debug("unsupported metric unit; defaulting to Count")
	}

	dims := []cwtypes.Dimension{{Name: aws.String("component"), Value: aws.String(metric.Component)}}
	for k, v := range metric.Fields {
		if s, ok := v.(string); ok && s != "" {
			dims = append(dims, cwtypes.Dimension{Name: aws.String(k), Value: aws.String(s)})
		}
	}

	datum := cwtypes.MetricDatum{
		MetricName: aws.String(metric.Name),
		Dimensions: dims,
		Unit:       unit,
		Value:      aws.Float64(metric.Value),
	}
	if !metric.Timestamp.IsZero() {
		datum.Timestamp = aws.Time(metric.Timestamp)
	}

	p.mu.Lock()
	p.pending = append(p.pending, datum)
	p.mu.Unlock()
}

// Flush publishes every queued datum.
func (p *CloudWatchPublisher) Flush(ctx context.Context) error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	data := p.pending
	p.pending = nil
	p.mu.Unlock()

	log := p.log.WithComponent("cloudwatch")
	if len(data) == 0 {
		log.Debug("no metric data to publish")
		return nil
	}

	for start := 0; start < len(data); start += maxDatumsPerCall {
		end := start + maxDatumsPerCall
		if end > len(data) {
			end = len(data)
		}
		if _, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: data[start:end],
		}); err != nil {
			return fmt.Errorf("publish CloudWatch metrics: %w", err)
		}
	}

	names := make([]string, 0, len(data))
	for _, datum := range data {
		if datum.MetricName != nil {
			names = append(names, *datum.MetricName)
		}
	}
	log.WithFields(logger.Fields{"metrics": strings.Join(names, ",")}).Debug("published metrics to CloudWatch")
	return nil
}

func metricUnitFromString(unit string) (cwtypes.StandardUnit, bool) {
	switch strings.ToLower(unit) {
	case "count":
		return cwtypes.StandardUnitCount, true
	case "percent":
		return cwtypes.StandardUnitPercent, true
	case "seconds":
		return cwtypes.StandardUnitSeconds, true
	case "milliseconds":
		return cwtypes.StandardUnitMilliseconds, true
	case "bytes":
		return cwtypes.StandardUnitBytes, true
	case "none":
		return cwtypes.StandardUnitNone, true
	default:
		return cwtypes.StandardUnitCount, false
	}
}
