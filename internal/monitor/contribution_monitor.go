package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/blues/mfs/internal/chain"
	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/logic"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panjf2000/ants/v2"
)

// 单次抓取的最大区块跨度，避免RPC限流
const batchSize uint64 = 500

// ContributionMonitor 链上贡献事件监控器
// 轮询合约日志，把 ContributionMade 事件喂给资金账本入账。
// 入账以交易哈希幂等，和HTTP入口观察到同一笔贡献也不会重复记账
type ContributionMonitor struct {
	chainClient     *chain.Client
	fundLogic       *logic.FundLogic
	startBlockNum   uint64
	ctx             context.Context
	cancel          context.CancelFunc
	backoffDuration time.Duration
	mu              sync.RWMutex // 保护 startBlockNum 的并发访问
}

// NewContributionMonitor 创建贡献事件监控器
func NewContributionMonitor(chainClient *chain.Client, fundLogic *logic.FundLogic) *ContributionMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &ContributionMonitor{
		chainClient:     chainClient,
		fundLogic:       fundLogic,
		startBlockNum:   chainClient.StartBlock(),
		ctx:             ctx,
		cancel:          cancel,
		backoffDuration: time.Second * 5, // 初始退避时间5秒
	}
}

// Start 启动监控
func (m *ContributionMonitor) Start() error {
	if m.chainClient.Simulated() {
		logger.Info("Chain client is simulated, contribution monitor disabled")
		return nil
	}

	logger.Info("Starting contribution event monitor")

	// 测试 RPC 连接
	currentBlock, err := m.chainClient.GetLatestBlock(m.ctx)
	if err != nil {
		return err
	}
	logger.Info("Connected to blockchain, current block: %d", currentBlock)

	m.mu.Lock()
	if m.startBlockNum == 0 {
		m.startBlockNum = currentBlock
	}
	m.mu.Unlock()

	go m.loop()

	return nil
}

// Stop 停止监控
func (m *ContributionMonitor) Stop() {
	logger.Info("Stopping contribution event monitor")
	m.cancel()
}

// loop 监控循环
func (m *ContributionMonitor) loop() {
	ticker := time.NewTicker(time.Second * 30)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			logger.Info("Contribution monitor stopped")
			return
		case <-ticker.C:
			currentBlock, err := m.chainClient.GetLatestBlock(m.ctx)
			if err != nil {
				logger.Error("Failed to get current block number: %v", err)
				m.backoff()
				continue
			}

			if err := m.processBlocksInBatches(m.getStartBlockNum(), currentBlock); err != nil {
				logger.Error("Error processing blocks: %v", err)
				m.backoff()
				continue
			}

			m.backoffDuration = time.Second * 5
		}
	}
}

// processBlocksInBatches 分批处理区块
func (m *ContributionMonitor) processBlocksInBatches(fromBlock, toBlock uint64) error {
	for currentFrom := fromBlock; currentFrom <= toBlock; currentFrom += batchSize {
		currentTo := currentFrom + batchSize - 1
		if currentTo > toBlock {
			currentTo = toBlock
		}

		if err := m.processBatchBlocks(currentFrom, currentTo); err != nil {
			return err
		}

		m.updateStartBlockNum(currentTo + 1)
	}

	return nil
}

// processBatchBlocks 处理一批区块的日志
func (m *ContributionMonitor) processBatchBlocks(fromBlock, toBlock uint64) error {
	logs, err := m.chainClient.GetLogs(m.ctx, fromBlock, toBlock)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		return nil
	}

	logger.Debug("Found %d logs for blocks %d-%d", len(logs), fromBlock, toBlock)

	// 按项目分组，同一项目的事件顺序处理，不同项目并发入账
	logsByProject := m.groupLogsByProject(logs)
	groupCount := len(logsByProject)
	if groupCount == 0 {
		return nil
	}

	pool, err := ants.NewPool(groupCount)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for projectId, projectLogs := range logsByProject {
		wg.Add(1)
		events := projectLogs
		err := pool.Submit(func() {
			defer wg.Done()
			m.processProjectEvents(projectId, events)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
		}
	}
	wg.Wait()

	return nil
}

// groupLogsByProject 按项目分组贡献事件
func (m *ContributionMonitor) groupLogsByProject(logs []types.Log) map[int64][]*chain.ContributionEvent {
	grouped := make(map[int64][]*chain.ContributionEvent)
	for _, log := range logs {
		event, err := m.chainClient.ParseContributionEvent(log)
		if err != nil {
			logger.Debug("Skipping unparsable log at block %d: %v", log.BlockNumber, err)
			continue
		}
		grouped[event.ProjectId] = append(grouped[event.ProjectId], event)
	}
	return grouped
}

// processProjectEvents 把一个项目的贡献事件顺序入账
func (m *ContributionMonitor) processProjectEvents(projectId int64, events []*chain.ContributionEvent) {
	for _, event := range events {
		_, err := m.fundLogic.RecordContribution(projectId, event.Contributor, event.TxHash, event.Amount)
		if err != nil {
			if errors.Is(err, logic.ErrDuplicateTransaction) {
				logger.Debug("Contribution %s already recorded", event.TxHash)
				continue
			}
			logger.Error("Failed to record contribution %s for project %d: %v",
				event.TxHash, projectId, err)
			continue
		}
		logger.Info("Recorded on-chain contribution %s for project %d at block %d",
			event.TxHash, projectId, event.BlockNum)
	}
}

// backoff 错误退避，指数增长封顶5分钟
func (m *ContributionMonitor) backoff() {
	select {
	case <-m.ctx.Done():
	case <-time.After(m.backoffDuration):
	}

	m.backoffDuration *= 2
	if m.backoffDuration > time.Minute*5 {
		m.backoffDuration = time.Minute * 5
	}
}

func (m *ContributionMonitor) getStartBlockNum() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startBlockNum
}

func (m *ContributionMonitor) updateStartBlockNum(blockNum uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if blockNum > m.startBlockNum {
		m.startBlockNum = blockNum
	}
}
