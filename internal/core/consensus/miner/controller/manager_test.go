package controller

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consensusconfig "github.com/weisyn/powminer/internal/config/consensus"
	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/internal/core/consensus/miner/job"
	"github.com/weisyn/powminer/internal/core/consensus/miner/state_manager"
	"github.com/weisyn/powminer/internal/core/consensus/testutil"
	clockimpl "github.com/weisyn/powminer/internal/core/infrastructure/clock"
	"github.com/weisyn/powminer/pkg/types"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

type testEnv struct {
	svc    *MinerControllerService
	bus    *testutil.MockEventBus
	state  *state_manager.MinerStateService
	source *testutil.FakeBlockSource
	sink   *testutil.FakeChainSink
	clock  *clockimpl.MockClock
}

func newTestEnv(t *testing.T, pool interfaces.WorkerPool, searcher interfaces.HashSearcher) *testEnv {
	t.Helper()
	logger := &testutil.MockLogger{}
	bus := testutil.NewMockEventBus()
	state := state_manager.NewMinerStateService(logger, bus)
	clk := clockimpl.NewMockClock(time.Unix(1_700_000_000, 0))
	source := &testutil.FakeBlockSource{
		Attempts: []*testutil.FakeAttempt{testutil.NewFakeAttempt(chainhash.Hash{0xaa}, 1)},
	}
	sink := &testutil.FakeChainSink{}
	opts := consensusconfig.New(nil).GetOptions()

	svc := NewMinerControllerService(logger, bus, clk, source, sink, pool, searcher, state, opts, nil)
	return &testEnv{svc: svc, bus: bus, state: state, source: source, sink: sink, clock: clk}
}

func testAddress(t *testing.T) btcutil.Address {
	t.Helper()
	addr, err := btcutil.NewAddressPubKeyHash(make([]byte, 20), &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	return addr
}

func newJob(t *testing.T, env *testEnv) (*job.MiningJob, *testutil.FakeAttempt) {
	t.Helper()
	attempt := testutil.NewFakeAttempt(chainhash.Hash{0x01}, 5)
	return job.New(attempt, env.clock), attempt
}

// stopAndRelease 释放阻塞的工作池并停止挖矿
func stopAndRelease(t *testing.T, env *testEnv, pool *testutil.BlockingPool) {
	t.Helper()
	close(pool.Release)
	require.NoError(t, env.svc.StopMining(context.Background()))
}

// ==================== nonce 窗口 ====================

func TestNonceInterval_DefaultCount(t *testing.T) {
	assert.Equal(t, uint64(2863311), nonceInterval(1500))
	assert.Equal(t, uint64(0xFFFFFFFF), nonceInterval(0))
}

func TestFindNonceRangeAsync_WindowsPartitionNonceSpace(t *testing.T) {
	var windows [][2]uint64
	pool := &testutil.FuncPool{
		Searcher: testutil.NeverFound,
		OnSearch: func(call int, min, max uint64) { windows = append(windows, [2]uint64{min, max}) },
	}
	env := newTestEnv(t, pool, nil)
	j, _ := newJob(t, env)

	_, found, err := env.svc.FindNonceRangeAsync(context.Background(), j)

	require.NoError(t, err)
	assert.False(t, found)
	require.Len(t, windows, 1501)
	assert.Equal(t, uint64(0), windows[0][0])
	for i := 1; i < len(windows); i++ {
		assert.Equal(t, windows[i-1][1], windows[i][0], "窗口 %d 不连续", i)
	}
	assert.Greater(t, windows[len(windows)-1][1], uint64(job.MaxNonce))

	statuses := env.bus.Events(types.EventTypeMiningStatus)
	require.Len(t, statuses, 1501)
	last := statuses[len(statuses)-1].Args[0].(*types.MiningStatusEventData)
	assert.Equal(t, uint64(job.MaxNonce), last.Nonce)
}

func TestFindNonceRangeAsync_WithFoundInWindow_ReturnsImmediately(t *testing.T) {
	pool := &testutil.FuncPool{Searcher: testutil.FoundAt(0, 9_000_000)}
	env := newTestEnv(t, pool, nil)
	j, _ := newJob(t, env)

	nonce, found, err := env.svc.FindNonceRangeAsync(context.Background(), j)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint32(9_000_000), nonce)
	assert.Equal(t, 4, pool.Calls())
	assert.Equal(t, 3, env.bus.Count(types.EventTypeMiningStatus))
}

func TestFindNonceRange_UsesSynchronousSearcher(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, testutil.FoundAt(0, 77))
	j, _ := newJob(t, env)

	nonce, found, err := env.svc.FindNonceRange(j)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint32(77), nonce)
}

func TestFindNonceRange_WithoutSearcher_ReturnsError(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, nil)
	j, _ := newJob(t, env)

	_, _, err := env.svc.FindNonceRange(j)

	assert.ErrorIs(t, err, errNoSearcher)
}

// ==================== 挖矿 ====================

func TestMineAsync_WithSolutionInSecondGeneration_CommitsAfterOneIteration(t *testing.T) {
	pool := &testutil.FuncPool{Searcher: testutil.FoundAt(1, 500)}
	env := newTestEnv(t, pool, nil)
	j, attempt := newJob(t, env)

	block, err := env.svc.MineAsync(context.Background(), j)

	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, uint64(1), j.Iterations())
	assert.True(t, j.IsCommitted())
	proofs := attempt.CommittedProofs()
	require.Len(t, proofs, 1)
	assert.Equal(t, uint32(0), proofs[0].ExtraNonceHi)
	assert.Equal(t, uint32(1), proofs[0].ExtraNonceLo)
	assert.Equal(t, uint32(500), proofs[0].Nonce)
	assert.Equal(t, uint32(500), block.MsgBlock().Header.Nonce)
}

func TestMineAsync_WithDestroyedJob_ReturnsNilWithoutCommit(t *testing.T) {
	var j *job.MiningJob
	pool := &testutil.FuncPool{
		Searcher: testutil.NeverFound,
		OnSearch: func(call int, min, max uint64) {
			if call == 3 {
				require.NoError(t, j.Destroy())
			}
		},
	}
	env := newTestEnv(t, pool, nil)
	var attempt *testutil.FakeAttempt
	j, attempt = newJob(t, env)

	block, err := env.svc.MineAsync(context.Background(), j)

	require.NoError(t, err)
	assert.Nil(t, block)
	assert.Empty(t, attempt.CommittedProofs())
	assert.Equal(t, 4, pool.Calls())
	assert.False(t, j.IsCommitted())
}

func TestMineAsync_WithSolutionFoundAfterDestroy_DiscardsBlock(t *testing.T) {
	var j *job.MiningJob
	pool := &testutil.FuncPool{
		Searcher: testutil.FoundAt(0, 10),
		OnSearch: func(call int, min, max uint64) { _ = j.Destroy() },
	}
	env := newTestEnv(t, pool, nil)
	var attempt *testutil.FakeAttempt
	j, attempt = newJob(t, env)

	block, err := env.svc.MineAsync(context.Background(), j)

	require.NoError(t, err)
	assert.Nil(t, block)
	assert.Empty(t, attempt.CommittedProofs())
}

func TestMineAsync_WithCommitError_ReturnsError(t *testing.T) {
	pool := &testutil.FuncPool{Searcher: testutil.FoundAt(0, 1)}
	env := newTestEnv(t, pool, nil)
	j, attempt := newJob(t, env)
	attempt.CommitErr = errors.New("bad proof")

	block, err := env.svc.MineAsync(context.Background(), j)

	assert.Error(t, err)
	assert.Nil(t, block)
}

func TestMine_WithSolutionInThirdGeneration_IteratesTwice(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, testutil.FoundAt(2, 3))
	j, _ := newJob(t, env)

	block, err := env.svc.Mine(j)

	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, uint64(2), j.Iterations())
}

func TestIterate_PublishesStatusWithZeroNonce(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, nil)
	j, _ := newJob(t, env)

	env.svc.iterate(j)

	events := env.bus.Events(types.EventTypeMiningStatus)
	require.Len(t, events, 1)
	data := events[0].Args[0].(*types.MiningStatusEventData)
	assert.Equal(t, uint64(1), data.Iterations)
	assert.Equal(t, uint64(0), data.Nonce)
	assert.Equal(t, uint64(1)<<32, data.HashCount)
}

// ==================== 收件箱 ====================

func TestHandleMempoolEntry_ExceedingThreshold_DestroysJobAndResetsCounter(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, nil)
	j, _ := newJob(t, env)
	env.svc.activeJob = j
	before := promtestutil.ToFloat64(minerJobsCancelled.WithLabelValues("mempool"))

	for i := 0; i < 20; i++ {
		env.svc.handleMessage(inboxMessage{kind: msgMempoolEntry})
	}
	assert.False(t, j.IsDestroyed())
	assert.Equal(t, 20, env.svc.mempoolSince)

	env.svc.handleMessage(inboxMessage{kind: msgMempoolEntry})

	assert.True(t, j.IsDestroyed())
	assert.Equal(t, 0, env.svc.mempoolSince)
	assert.Equal(t, before+1, promtestutil.ToFloat64(minerJobsCancelled.WithLabelValues("mempool")))
}

func TestHandleMempoolEntry_CounterSurvivesNewJob(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, nil)
	first, _ := newJob(t, env)
	env.svc.activeJob = first
	for i := 0; i < 15; i++ {
		env.svc.handleMessage(inboxMessage{kind: msgMempoolEntry})
	}

	second, _ := newJob(t, env)
	env.svc.activeJob = second
	for i := 0; i < 6; i++ {
		env.svc.handleMessage(inboxMessage{kind: msgMempoolEntry})
	}

	assert.True(t, second.IsDestroyed())
	assert.False(t, first.IsDestroyed())
}

func TestHandleMempoolEntry_WithoutActiveJob_IsNoop(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, nil)

	env.svc.handleMessage(inboxMessage{kind: msgMempoolEntry})

	assert.Equal(t, 0, env.svc.mempoolSince)
}

func TestHandleTipChanged_ComparesJobParentWithTipParent(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, nil)
	j, attempt := newJob(t, env)
	env.svc.activeJob = j

	env.svc.handleMessage(inboxMessage{kind: msgTipChanged, tip: &types.ChainEntry{PrevHash: chainhash.Hash{0x99}}})
	assert.False(t, j.IsDestroyed())

	env.svc.handleMessage(inboxMessage{kind: msgTipChanged, tip: &types.ChainEntry{PrevHash: attempt.ParentHash()}})
	assert.True(t, j.IsDestroyed())
}

func TestDestroyActiveJob_SkipsCommittedAndDestroyedJobs(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, nil)
	j, _ := newJob(t, env)
	_, err := j.Commit(1)
	require.NoError(t, err)
	env.svc.activeJob = j

	env.svc.destroyActiveJob("tip")
	assert.False(t, j.IsDestroyed())

	other, _ := newJob(t, env)
	require.NoError(t, other.Destroy())
	env.svc.activeJob = other
	assert.NotPanics(t, func() { env.svc.destroyActiveJob("tip") })
}

func TestNotify_WhenNotRunning_DoesNotEnqueue(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, nil)

	env.svc.NotifyMempoolEntry()
	env.svc.OnTipChanged(&types.ChainEntry{})

	assert.Len(t, env.svc.inbox, 0)
}

func TestEnqueue_WhenInboxFull_DropsMessage(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, nil)
	for i := 0; i < cap(env.svc.inbox)+5; i++ {
		env.svc.enqueue(inboxMessage{kind: msgMempoolEntry})
	}

	assert.Len(t, env.svc.inbox, cap(env.svc.inbox))
}

// ==================== 生命周期 ====================

func TestStartMining_Twice_ReturnsContractViolation(t *testing.T) {
	pool := testutil.NewBlockingPool()
	env := newTestEnv(t, pool, nil)
	require.NoError(t, env.svc.StartMining(context.Background(), testAddress(t)))

	err := env.svc.StartMining(context.Background(), nil)

	assert.ErrorIs(t, err, types.ErrMinerAlreadyRunning)
	assert.ErrorIs(t, err, types.ErrContractViolation)
	stopAndRelease(t, env, pool)
}

func TestStopMining_WhenNotRunning_IsNoop(t *testing.T) {
	env := newTestEnv(t, testutil.NewBlockingPool(), nil)

	assert.NoError(t, env.svc.StopMining(context.Background()))
	assert.Equal(t, types.MinerStateIdle, env.state.GetMinerState())
}

func TestStop_WhileStopSignalRegistered_ReturnsContractViolation(t *testing.T) {
	pool := testutil.NewBlockingPool()
	env := newTestEnv(t, pool, nil)
	require.NoError(t, env.svc.StartMining(context.Background(), nil))
	<-pool.Entered

	stopped := make(chan error, 1)
	go func() { stopped <- env.svc.StopMining(context.Background()) }()
	require.Eventually(t, env.svc.isStopping, waitFor, tick)

	err := env.svc.stop(context.Background())
	assert.ErrorIs(t, err, types.ErrStopSignalRegistered)
	assert.ErrorIs(t, err, types.ErrContractViolation)

	close(pool.Release)
	require.NoError(t, <-stopped)
}

func TestStop_WhileStoppingAfterLoopExit_ReturnsContractViolation(t *testing.T) {
	env := newTestEnv(t, testutil.NewBlockingPool(), nil)

	// 循环已退出、停止尚未复位
	env.svc.mu.Lock()
	env.svc.running = true
	env.svc.stopping = true
	env.svc.exited = true
	env.svc.mu.Unlock()

	err := env.svc.stop(context.Background())
	assert.ErrorIs(t, err, types.ErrMinerAlreadyStopping)
	assert.ErrorIs(t, err, types.ErrContractViolation)
}

func TestStopMining_ConcurrentCallers_AllReturnAfterSingleExit(t *testing.T) {
	pool := testutil.NewBlockingPool()
	env := newTestEnv(t, pool, nil)
	require.NoError(t, env.svc.StartMining(context.Background(), nil))
	<-pool.Entered

	const callers = 5
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() { results <- env.svc.StopMining(context.Background()) }()
	}
	require.Eventually(t, env.svc.isStopping, waitFor, tick)

	close(pool.Release)
	for i := 0; i < callers; i++ {
		select {
		case err := <-results:
			assert.NoError(t, err)
		case <-time.After(waitFor):
			t.Fatal("停止超时")
		}
	}

	var toStopping, toIdle int
	for _, ev := range env.bus.Events(types.EventTypeMinerStateChanged) {
		switch ev.Args[0].(*types.MinerStateChangedEventData).NewState {
		case types.MinerStateStopping:
			toStopping++
		case types.MinerStateIdle:
			toIdle++
		}
	}
	assert.Equal(t, 1, toStopping)
	assert.Equal(t, 1, toIdle)
	assert.False(t, env.svc.IsRunning())
	assert.Equal(t, types.MinerStateIdle, env.state.GetMinerState())
}

// failingEnginePool 启动时阻塞到 release 关闭后返回错误
type failingEnginePool struct {
	entered chan struct{}
	release chan struct{}
}

func (p *failingEnginePool) Search(ctx context.Context, header []byte, target *big.Int, min, max uint64) (uint32, bool, error) {
	return 0, false, nil
}

func (p *failingEnginePool) StartPoWEngine(ctx context.Context, params types.MiningParameters) error {
	close(p.entered)
	<-p.release
	return errors.New("engine failure")
}

func (p *failingEnginePool) StopPoWEngine(ctx context.Context) error { return nil }
func (p *failingEnginePool) IsRunning() bool                         { return false }

func TestStartMining_PoolStartFails_ReleasesWaitingStop(t *testing.T) {
	pool := &failingEnginePool{entered: make(chan struct{}), release: make(chan struct{})}
	env := newTestEnv(t, pool, nil)

	started := make(chan error, 1)
	go func() { started <- env.svc.StartMining(context.Background(), nil) }()
	<-pool.entered

	stopped := make(chan error, 1)
	go func() { stopped <- env.svc.StopMining(context.Background()) }()
	require.Eventually(t, env.svc.isStopping, waitFor, tick)

	close(pool.release)
	assert.Error(t, <-started)
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("停止请求未被释放")
	}
	assert.False(t, env.svc.IsRunning())
}

func TestStopMining_WhileBlockedInPool_WaitsForWindowThenExits(t *testing.T) {
	pool := testutil.NewBlockingPool()
	env := newTestEnv(t, pool, nil)
	require.NoError(t, env.svc.StartMining(context.Background(), testAddress(t)))
	<-pool.Entered

	stopped := make(chan error, 1)
	go func() { stopped <- env.svc.StopMining(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("停止不应在窗口完成前返回")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, types.MinerStateStopping, env.state.GetMinerState())

	close(pool.Release)
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("停止超时")
	}
	assert.False(t, env.svc.IsRunning())
	assert.Equal(t, types.MinerStateIdle, env.state.GetMinerState())
	assert.Zero(t, env.sink.AppendCount())
}

func TestStartMining_AfterStop_CanRestart(t *testing.T) {
	pool := testutil.NewBlockingPool()
	env := newTestEnv(t, pool, nil)
	close(pool.Release)

	require.NoError(t, env.svc.StartMining(context.Background(), nil))
	require.NoError(t, env.svc.StopMining(context.Background()))
	require.NoError(t, env.svc.StartMining(context.Background(), nil))
	require.NoError(t, env.svc.StopMining(context.Background()))

	assert.Equal(t, types.MinerStateIdle, env.state.GetMinerState())
}

func TestStartMining_WithCancelledContext_LoopKeepsRunning(t *testing.T) {
	pool := testutil.NewBlockingPool()
	env := newTestEnv(t, pool, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, env.svc.StartMining(ctx, nil))
	<-pool.Entered

	cancel()

	assert.True(t, env.svc.IsRunning())
	assert.Equal(t, types.MinerStateActive, env.state.GetMinerState())
	stopAndRelease(t, env, pool)
}

// ==================== 挖矿循环 ====================

func TestMiningLoop_WithSolution_AppendsAndPublishesBlockFound(t *testing.T) {
	pool := &testutil.FuncPool{Searcher: testutil.FoundAt(1, 42)}
	env := newTestEnv(t, pool, nil)

	require.NoError(t, env.svc.StartMining(context.Background(), nil))
	require.Eventually(t, func() bool { return env.bus.Count(types.EventTypeBlockFound) >= 1 }, waitFor, tick)
	require.NoError(t, env.svc.StopMining(context.Background()))

	event := env.bus.Events(types.EventTypeBlockFound)[0].Args[0].(*types.BlockFoundEventData)
	assert.NotEmpty(t, event.JobID)
	require.NotNil(t, event.Entry)
	assert.Equal(t, uint32(42), event.Block.MsgBlock().Header.Nonce)

	status, err := env.svc.GetMiningStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.GreaterOrEqual(t, status.BlocksFound, uint64(1))
}

func TestMiningLoop_WithValidationError_ContinuesWithNewJob(t *testing.T) {
	pool := &testutil.FuncPool{Searcher: testutil.FoundAt(0, 1)}
	env := newTestEnv(t, pool, nil)
	env.sink.AppendFn = func(call int, block *btcutil.Block) (*types.ChainEntry, error) {
		if call == 0 {
			return nil, types.NewValidationError("high-hash", errors.New("proof of work failed"))
		}
		return &types.ChainEntry{Hash: *block.Hash(), Height: uint32(call)}, nil
	}

	require.NoError(t, env.svc.StartMining(context.Background(), nil))
	require.Eventually(t, func() bool { return env.bus.Count(types.EventTypeBlockFound) >= 1 }, waitFor, tick)

	assert.Equal(t, types.MinerStateActive, env.state.GetMinerState())
	assert.GreaterOrEqual(t, env.source.CallCount(), 2)
	require.NoError(t, env.svc.StopMining(context.Background()))
	assert.Zero(t, env.bus.Count(types.EventTypeMinerError))
}

func TestMiningLoop_WithNilEntry_ExitsIntoErrorState(t *testing.T) {
	pool := &testutil.FuncPool{Searcher: testutil.FoundAt(0, 1)}
	env := newTestEnv(t, pool, nil)
	env.sink.AppendFn = func(call int, block *btcutil.Block) (*types.ChainEntry, error) { return nil, nil }

	require.NoError(t, env.svc.StartMining(context.Background(), nil))
	require.Eventually(t, func() bool { return env.state.GetMinerState() == types.MinerStateError }, waitFor, tick)

	assert.True(t, env.svc.IsRunning())
	assert.Equal(t, 1, env.sink.AppendCount())
	assert.Zero(t, env.bus.Count(types.EventTypeBlockFound))

	require.NoError(t, env.svc.StopMining(context.Background()))
	assert.False(t, env.svc.IsRunning())
	assert.Equal(t, types.MinerStateIdle, env.state.GetMinerState())
}

func TestMiningLoop_WithAppendFailure_PublishesErrorEvent(t *testing.T) {
	pool := &testutil.FuncPool{Searcher: testutil.FoundAt(0, 1)}
	env := newTestEnv(t, pool, nil)
	env.sink.AppendFn = func(call int, block *btcutil.Block) (*types.ChainEntry, error) {
		return nil, errors.New("disk full")
	}

	require.NoError(t, env.svc.StartMining(context.Background(), nil))
	require.Eventually(t, func() bool { return env.bus.Count(types.EventTypeMinerError) == 1 }, waitFor, tick)
	require.Eventually(t, func() bool { return env.state.GetMinerState() == types.MinerStateError }, waitFor, tick)

	status, err := env.svc.GetMiningStatus(context.Background())
	require.NoError(t, err)
	assert.Contains(t, status.LastError, "disk full")
	assert.Equal(t, "Error", status.State)

	err = env.svc.StartMining(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrMinerAlreadyRunning)
	require.NoError(t, env.svc.StopMining(context.Background()))
}

func TestMiningLoop_WithCreateJobFailure_PublishesErrorEvent(t *testing.T) {
	env := newTestEnv(t, &testutil.FuncPool{Searcher: testutil.NeverFound}, nil)
	env.source.Err = errors.New("no template")
	env.source.Attempts = nil

	require.NoError(t, env.svc.StartMining(context.Background(), nil))
	require.Eventually(t, func() bool { return env.bus.Count(types.EventTypeMinerError) == 1 }, waitFor, tick)

	data := env.bus.Events(types.EventTypeMinerError)[0].Args[0].(*types.MinerErrorEventData)
	assert.Contains(t, data.Err.Error(), "no template")
	require.NoError(t, env.svc.StopMining(context.Background()))
}

func TestMiningLoop_WithMatchingTipChange_RecreatesJob(t *testing.T) {
	parent := chainhash.Hash{0xaa}
	var env *testEnv
	pool := &testutil.FuncPool{
		Searcher: testutil.NeverFound,
		OnSearch: func(call int, min, max uint64) {
			if call == 0 {
				env.svc.OnTipChanged(&types.ChainEntry{Hash: chainhash.Hash{0xbb}, PrevHash: parent})
			}
		},
	}
	env = newTestEnv(t, pool, nil)

	require.NoError(t, env.svc.StartMining(context.Background(), nil))
	require.Eventually(t, func() bool { return env.source.CallCount() >= 2 }, waitFor, tick)
	require.NoError(t, env.svc.StopMining(context.Background()))

	assert.Zero(t, env.sink.AppendCount())
}

func TestGetMiningStatus_WhileRunning_ReportsActiveState(t *testing.T) {
	pool := testutil.NewBlockingPool()
	env := newTestEnv(t, pool, nil)
	addr := testAddress(t)
	require.NoError(t, env.svc.StartMining(context.Background(), addr))
	<-pool.Entered
	env.clock.Advance(10 * time.Second)

	status, err := env.svc.GetMiningStatus(context.Background())

	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.False(t, status.Stopping)
	assert.Equal(t, "Active", status.State)
	assert.Equal(t, addr.EncodeAddress(), status.MinerAddress)
	assert.Equal(t, 10*time.Second, status.Uptime)
	stopAndRelease(t, env, pool)
}
