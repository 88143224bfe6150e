package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/config"
	"github.com/JakeFAU/catalog-scraper/internal/crawler"
	"github.com/JakeFAU/catalog-scraper/internal/engine"
	"github.com/JakeFAU/catalog-scraper/internal/sink"
	"github.com/JakeFAU/catalog-scraper/internal/spider/muztorg"
)

// MockApp mocks the App interface.
type MockApp struct {
	mock.Mock
}

// Run satisfies the App interface for the mock.
func (m *MockApp) Run(ctx context.Context) (engine.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(engine.Stats), args.Error(1)
}

// Close satisfies the App interface for the mock.
func (m *MockApp) Close(ctx context.Context) {
	m.Called(ctx)
}

// Logger satisfies the App interface for the mock.
func (m *MockApp) Logger() *zap.Logger {
	return zap.NewNop()
}

// withFakeApp swaps the factories for the duration of a test.
func withFakeApp(t *testing.T, factory func(config.Config, *zap.Logger) (App, error)) {
	t.Helper()
	origApp, origLogger, origCfg := newApp, newLogger, cfgFile
	newApp = factory
	newLogger = func(bool) (*zap.Logger, error) { return zap.NewNop(), nil }
	t.Cleanup(func() {
		newApp, newLogger, cfgFile = origApp, origLogger, origCfg
	})
}

func execute(args ...string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestCrawlDefaults(t *testing.T) {
	mockApp := new(MockApp)
	mockApp.On("Run", mock.Anything).Return(engine.Stats{Records: 2}, nil).Once()
	mockApp.On("Close", mock.Anything).Return().Once()

	var got config.Config
	withFakeApp(t, func(cfg config.Config, _ *zap.Logger) (App, error) {
		got = cfg
		return mockApp, nil
	})

	require.NoError(t, execute("crawl"))
	assert.Equal(t, "-", got.Output.Path)
	assertFormat(t, sink.FormatCSV, got)
	assert.Equal(t, muztorg.StartURL, got.Crawl.StartURL)
	assert.Equal(t, string(muztorg.ParserCategory), got.Crawl.Parser)
	mockApp.AssertExpectations(t)
}

func TestCrawlFlags(t *testing.T) {
	mockApp := new(MockApp)
	mockApp.On("Run", mock.Anything).Return(engine.Stats{}, nil)
	mockApp.On("Close", mock.Anything).Return()

	var got config.Config
	withFakeApp(t, func(cfg config.Config, _ *zap.Logger) (App, error) {
		got = cfg
		return mockApp, nil
	})

	require.NoError(t, execute("crawl", "-o", "out/items.jl", "--format", "JL",
		"--start-url", muztorg.StartURL+"?page=4"))
	assert.Equal(t, "out/items.jl", got.Output.Path)
	assertFormat(t, sink.FormatJL, got)
	assert.Equal(t, muztorg.StartURL+"?page=4", got.Crawl.StartURL)
}

func TestCrawlRejectsUnknownFormatBeforeBuildingApp(t *testing.T) {
	withFakeApp(t, func(config.Config, *zap.Logger) (App, error) {
		t.Fatal("app must not be built for an unknown format")
		return nil, nil
	})

	err := execute("crawl", "-f", "parquet")
	require.ErrorIs(t, err, sink.ErrUnsupportedFormat)
}

func TestCrawlPropagatesRunFailure(t *testing.T) {
	mockApp := new(MockApp)
	mockApp.On("Run", mock.Anything).Return(engine.Stats{}, crawler.ErrFetchFailure)
	mockApp.On("Close", mock.Anything).Return().Once()
	withFakeApp(t, func(config.Config, *zap.Logger) (App, error) { return mockApp, nil })

	err := execute("crawl")
	require.ErrorIs(t, err, crawler.ErrFetchFailure)
	mockApp.AssertExpectations(t)
}

func TestCrawlReportsAppInitFailure(t *testing.T) {
	boom := errors.New("boom")
	withFakeApp(t, func(config.Config, *zap.Logger) (App, error) { return nil, boom })

	err := execute("crawl")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to initialize application services")
}

func TestCrawlRejectsPositionalArgs(t *testing.T) {
	withFakeApp(t, func(config.Config, *zap.Logger) (App, error) {
		t.Fatal("app must not be built")
		return nil, nil
	})
	require.Error(t, execute("crawl", "extra"))
}

func assertFormat(t *testing.T, want sink.Format, cfg config.Config) {
	t.Helper()
	got, err := cfg.Format()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
