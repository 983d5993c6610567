package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultName                   = "hotelprices"
	DefaultHotel                  = "Seven Stars"
	DefaultURLTemplate            = "https://www.reservhotel.com/providenciales-turks-and-caicos-islands/seven-stars-resort/booking-engine/ibe5.main?hotel=10208&date_format=MM%2FDD%2FYYYY&aDate={start_date}&dDate={stop_date}&airport=&adults=2&child=0&rooms=1&fareclass=1"
	DefaultUserAgent              = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/74.0.3729.169 Safari/537.36"
	DefaultRowSelector            = "div.row.room-row-list"
	DefaultHeadingSelector        = "h4[class*='hotel-heading']"
	DefaultPriceSelector          = "[class*='price']"
	DefaultSettleWait             = 5 * time.Second
	DefaultSourceTimeout          = 60 * time.Second
	DefaultRequestInterval        = 10 * time.Second
	DefaultParquetCompression     = "SNAPPY"
	DefaultRowGroupSize           = 128 * 1024 * 1024
	DefaultTableFileName          = "data.parquet"
	DefaultMembershipDiscountRoom = "1 Junior Suite Island View"
	DefaultMembershipDiscountRate = 0.10
	DefaultDashboardURL           = "https://lookerstudio.google.com/reporting/50b3abce-f84d-40f2-b47d-1d03d8c48f71/page/5urUD"
	DefaultAlertTimeout           = 30 * time.Second
	DefaultCloudWatchNamespace    = "HotelPrices"
)

// Default returns a configuration that runs the Seven Stars collection
// without any config file.
func Default() *Config {
	return &Config{
		HotelPrices: HotelPricesConfig{
			Name:    DefaultName,
			Version: "dev",
		},
		Source: SourceConfig{
			Hotel:           DefaultHotel,
			URLTemplate:     DefaultURLTemplate,
			UserAgent:       DefaultUserAgent,
			RowSelector:     DefaultRowSelector,
			HeadingSelector: DefaultHeadingSelector,
			PriceSelector:   DefaultPriceSelector,
			SettleWait:      DefaultSettleWait,
			Timeout:         DefaultSourceTimeout,
			RequestInterval: DefaultRequestInterval,
		},
		Writer: WriterConfig{
			Parquet: ParquetConfig{
				Compression:  DefaultParquetCompression,
				RowGroupSize: DefaultRowGroupSize,
				FileName:     DefaultTableFileName,
			},
		},
		Alert: AlertConfig{
			MembershipDiscountRoom: DefaultMembershipDiscountRoom,
			MembershipDiscountRate: DefaultMembershipDiscountRate,
			DashboardURL:           DefaultDashboardURL,
			Timeout:                DefaultAlertTimeout,
		},
		Metrics: MetricsConfig{
			CloudWatch: CloudWatchConfig{
				Namespace: DefaultCloudWatchNamespace,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}
