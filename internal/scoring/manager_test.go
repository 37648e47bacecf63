package scoring

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/climate-vuln/internal/config"
	"github.com/mr1hm/climate-vuln/internal/models"
	"github.com/mr1hm/climate-vuln/internal/observability"
	"github.com/mr1hm/climate-vuln/internal/repository"
	"github.com/mr1hm/climate-vuln/internal/vulnerability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockScoredRepo implements repository.ScoredAssetRepository for testing
type mockScoredRepo struct {
	mu        sync.Mutex
	rows      map[string][]models.ScoredAsset
	replaces  atomic.Int64
	failWith  error
	pingErr   error
	replaceCh chan struct{} // when set, ReplaceScenario blocks until closed
}

func newMockRepo() *mockScoredRepo {
	return &mockScoredRepo{rows: make(map[string][]models.ScoredAsset)}
}

func (m *mockScoredRepo) ReplaceScenario(ctx context.Context, scenario string, rows []models.ScoredAsset) error {
	if m.replaceCh != nil {
		<-m.replaceCh
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.replaces.Add(1)
	if m.failWith != nil {
		return m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[scenario] = rows
	return nil
}

func (m *mockScoredRepo) HasScenario(ctx context.Context, scenario string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[scenario]
	return ok, nil
}

func (m *mockScoredRepo) ListScored(ctx context.Context, opts repository.Filter) ([]models.ScoredAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[opts.Scenario], nil
}

func (m *mockScoredRepo) CountScored(ctx context.Context, scenario string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[scenario]), nil
}

func (m *mockScoredRepo) Ping(ctx context.Context) error {
	return m.pingErr
}

func testConfig() *config.Config {
	return &config.Config{
		Worker: config.WorkerConfig{Count: 2, BufferSize: 1},
		Scenarios: config.ScenarioConfig{
			Choices: []string{"2020", "2080"},
			Default: "2020",
		},
	}
}

func testDataset() Dataset {
	return Dataset{
		Assets: []models.Asset{
			{AssetID: "T1", Type: models.AssetTypeTransformer, CapacityKVA: 100, AgeYears: 10, Criticality: 10},
			{AssetID: "S1", Type: models.AssetTypeSubstation, CapacityKVA: 300, AgeYears: 30, Criticality: 20},
		},
		Hazards: models.HazardTable{
			Columns: []models.Hazard{models.HazardHeatIndex, models.HazardFloodRisk},
			Scenarios: map[string]models.HazardIndices{
				"2020": {models.HazardHeatIndex: 0.2, models.HazardFloodRisk: 0.1},
				"2050": {models.HazardHeatIndex: 0.6, models.HazardFloodRisk: 0.4},
			},
		},
		Weights: vulnerability.DefaultWeights(),
	}
}

func TestManager_StartStopWarmsAllScenarios(t *testing.T) {
	repo := newMockRepo()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	mgr := NewManager(testConfig(), testDataset(), repo, observability.NewMetricsForTesting(), clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr.Start(ctx)
	mgr.Stop()

	statuses := mgr.Scenarios()
	require.Len(t, statuses, 3)

	labels := []string{statuses[0].Label, statuses[1].Label, statuses[2].Label}
	assert.Equal(t, []string{"2020", "2050", "2080"}, labels)

	for _, st := range statuses {
		assert.True(t, st.Scored, "scenario %s should be scored", st.Label)
		assert.Equal(t, 2, st.Assets)
		assert.Equal(t, clock.Now().UTC(), st.ScoredAt)
	}
	assert.True(t, statuses[0].Known)
	assert.False(t, statuses[2].Known, "2080 is not in the hazard table")
	assert.EqualValues(t, 3, repo.replaces.Load())
}

func TestManager_EnsureUnknownScenarioUsesFallbackKey(t *testing.T) {
	repo := newMockRepo()
	mgr := NewManager(testConfig(), testDataset(), repo, nil, nil)

	key, err := mgr.Ensure(context.Background(), "2199")
	require.NoError(t, err)
	assert.Equal(t, FallbackKey, key)

	key2, err := mgr.Ensure(context.Background(), "tomorrow")
	require.NoError(t, err)
	assert.Equal(t, FallbackKey, key2)
	assert.EqualValues(t, 1, repo.replaces.Load(), "fallback scenarios share one scoring run")

	rows := repo.rows[FallbackKey]
	require.Len(t, rows, 2)
	assert.Equal(t, vulnerability.MediumExposure, rows[0].Exposure)
}

func TestManager_EnsureKnownScenario(t *testing.T) {
	repo := newMockRepo()
	mgr := NewManager(testConfig(), testDataset(), repo, nil, nil)

	key, err := mgr.Ensure(context.Background(), " 2050 ")
	require.NoError(t, err)
	assert.Equal(t, "2050", key)

	_, err = mgr.Ensure(context.Background(), "2050")
	require.NoError(t, err)
	assert.EqualValues(t, 1, repo.replaces.Load(), "second call hits the cache")

	assert.InDelta(t, 0.5, repo.rows["2050"][0].Exposure, 1e-9)
}

func TestManager_EnsureConcurrentCallsShareWork(t *testing.T) {
	repo := newMockRepo()
	repo.replaceCh = make(chan struct{})
	mgr := NewManager(testConfig(), testDataset(), repo, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Ensure(context.Background(), "2020")
			assert.NoError(t, err)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(repo.replaceCh)
	wg.Wait()

	assert.EqualValues(t, 1, repo.replaces.Load())
}

func TestManager_EnsureSurvivesFirstCallerCancel(t *testing.T) {
	repo := newMockRepo()
	repo.replaceCh = make(chan struct{})
	mgr := NewManager(testConfig(), testDataset(), repo, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, c := range []context.Context{ctx, context.Background()} {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = mgr.Ensure(c, "2020")
		}()
	}

	time.Sleep(20 * time.Millisecond)
	cancel()
	close(repo.replaceCh)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, repo.replaces.Load())
	assert.Len(t, repo.rows["2020"], 2)
}

func TestManager_EnsureRescoresWhenStoreLacksScenario(t *testing.T) {
	repo := newMockRepo()
	mgr := NewManager(testConfig(), testDataset(), repo, nil, nil)
	ctx := context.Background()

	_, err := mgr.Ensure(ctx, "2020")
	require.NoError(t, err)

	repo.mu.Lock()
	delete(repo.rows, "2020")
	repo.mu.Unlock()

	_, err = mgr.Ensure(ctx, "2020")
	require.NoError(t, err)
	assert.EqualValues(t, 2, repo.replaces.Load())
	assert.Len(t, repo.rows["2020"], 2)
}

func TestManager_EnsureStoreError(t *testing.T) {
	repo := newMockRepo()
	repo.failWith = errors.New("disk full")
	mgr := NewManager(testConfig(), testDataset(), repo, observability.NewMetricsForTesting(), nil)

	_, err := mgr.Ensure(context.Background(), "2020")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// Failure is not cached
	repo.failWith = nil
	_, err = mgr.Ensure(context.Background(), "2020")
	require.NoError(t, err)
}

func TestManager_EnsureInvalidAssets(t *testing.T) {
	data := testDataset()
	data.Assets[0].AssetID = ""
	mgr := NewManager(testConfig(), data, newMockRepo(), nil, nil)

	_, err := mgr.Ensure(context.Background(), "2020")
	var mce *vulnerability.MissingColumnError
	assert.True(t, errors.As(err, &mce))
}

func TestManager_Ready(t *testing.T) {
	repo := newMockRepo()
	mgr := NewManager(testConfig(), testDataset(), repo, nil, nil)
	ctx := context.Background()

	assert.Error(t, mgr.Ready(ctx))

	_, err := mgr.Ensure(ctx, "2020")
	require.NoError(t, err)
	assert.NoError(t, mgr.Ready(ctx))

	repo.pingErr = errors.New("database is closed")
	err = mgr.Ready(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unreachable")
}

func TestManager_StopWithoutStart(t *testing.T) {
	mgr := NewManager(testConfig(), testDataset(), newMockRepo(), nil, nil)
	mgr.Stop()
}
