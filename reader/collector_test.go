package reader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hotelprices/config"
	"hotelprices/internal/metrics"
	"hotelprices/internal/objectstore"
	"hotelprices/logger"
	"hotelprices/snapshot"
)

func testSource() config.SourceConfig {
	src := config.Default().Source
	src.SettleWait = 0
	src.RequestInterval = 0
	src.Timeout = 5 * time.Second
	return src
}

func TestParseStay(t *testing.T) {
	stay, err := ParseStay("04/01/2024:04/08/2024")
	require.NoError(t, err)
	require.Equal(t, Stay{Start: "04/01/2024", Stop: "04/08/2024"}, stay)

	for _, raw := range []string{"", "04/01/2024", ":04/08/2024", "04/01/2024:"} {
		_, err := ParseStay(raw)
		require.Error(t, err, raw)
	}
}

func TestBuildURL(t *testing.T) {
	got := BuildURL("https://example.test/book?aDate={start_date}&dDate={stop_date}&adults=2", Stay{Start: "04/01/2024", Stop: "04/08/2024"})
	require.Equal(t, "https://example.test/book?aDate=04%2F01%2F2024&dDate=04%2F08%2F2024&adults=2", got)
}

func TestHTTPFetcher(t *testing.T) {
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotQuery = r.URL.Query().Get("aDate")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(bookingPage))
	}))
	defer srv.Close()

	src := testSource()
	src.SettleWait = 10 * time.Millisecond
	fetcher := NewHTTPFetcher(src, logger.Discard())

	rows, err := fetcher.FetchRows(context.Background(), BuildURL(srv.URL+"/?aDate={start_date}&dDate={stop_date}", Stay{Start: "04/01/2024", Stop: "04/08/2024"}))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, src.UserAgent, gotUA)
	require.Equal(t, "04/01/2024", gotQuery)
}

func TestHTTPFetcherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(testSource(), logger.Discard()).FetchRows(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func TestHTTPFetcherSettleWaitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bookingPage))
	}))
	defer srv.Close()

	src := testSource()
	src.SettleWait = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPFetcher(src, logger.Discard()).FetchRows(ctx, srv.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type stubFetcher struct {
	rows []RowElement
	err  error
	urls []string
}

func (f *stubFetcher) FetchRows(_ context.Context, url string) ([]RowElement, error) {
	f.urls = append(f.urls, url)
	return f.rows, f.err
}

func newTestCollector(fetcher PageFetcher) (*Collector, *objectstore.MemoryStore, *[]metrics.Metric) {
	mem := objectstore.NewMemoryStore()
	rec := metrics.NewRecorder(logger.Discard())
	var seen []metrics.Metric
	rec.RegisterHandler(func(m metrics.Metric) { seen = append(seen, m) })

	c := NewCollector(testSource(), fetcher, snapshot.NewStore(mem, logger.Discard()), rec, logger.Discard())
	tick := time.Unix(1712000000, 0)
	c.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return c, mem, &seen
}

func TestCollectWritesSnapshot(t *testing.T) {
	fetcher := &stubFetcher{rows: []RowElement{
		room([]string{"Ocean Suite"}, "$1,200"),
		room([]string{"Garden Room"}, "$300", "$280"),
	}}
	c, mem, seen := newTestCollector(fetcher)

	path, err := c.Collect(context.Background(), "runs", Stay{Start: "04/01/2024", Stop: "04/08/2024"})
	require.NoError(t, err)
	require.Equal(t, "runs/data_1712000001000000000.json", path)
	require.Len(t, fetcher.urls, 1)
	require.Contains(t, fetcher.urls[0], "aDate=04%2F01%2F2024")

	data, err := mem.Get(context.Background(), path)
	require.NoError(t, err)
	snaps, err := snapshot.Decode(data)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Equal(t, "Seven Stars", snaps[0].Hotel)
	require.Equal(t, "04/08/2024", snaps[0].StopDate)
	require.Len(t, snaps[0].Quotes, 2)
	require.True(t, strings.Contains(string(data), `"room_prices":[280,300]`))

	names := make([]string, 0, len(*seen))
	for _, m := range *seen {
		names = append(names, m.Name)
	}
	require.Equal(t, []string{"quotes_extracted", "snapshots_written"}, names)
}

func TestCollectWithoutQuotesFails(t *testing.T) {
	fetcher := &stubFetcher{rows: []RowElement{room([]string{"Villa"}, "Sold out")}}
	c, mem, _ := newTestCollector(fetcher)

	_, err := c.Collect(context.Background(), "runs", Stay{Start: "a", Stop: "b"})
	require.ErrorIs(t, err, ErrNoQuotes)
	require.Empty(t, mem.Keys())
}

func TestCollectAllStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("connection reset")
	fetcher := &stubFetcher{rows: []RowElement{room([]string{"Ocean Suite"}, "$1,200")}}
	c, mem, _ := newTestCollector(fetcher)

	paths, err := c.CollectAll(context.Background(), "runs", []Stay{{"a", "b"}, {"c", "d"}})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	require.Len(t, mem.Keys(), 2)

	fetcher.err = boom
	paths, err = c.CollectAll(context.Background(), "runs", []Stay{{"e", "f"}, {"g", "h"}})
	require.ErrorIs(t, err, boom)
	require.Empty(t, paths)
	require.Len(t, fetcher.urls, 3)
}
