package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 基础币精度 1e18
var weiPerBase = decimal.New(1, 18)

// Client 账本转账服务客户端
// rpc_url 未配置时运行在模拟模式：不广播交易，伪造格式一致的交易哈希
type Client struct {
	client       *ethclient.Client
	privateKey   *ecdsa.PrivateKey
	fromAddress  common.Address
	chainId      *big.Int
	ContractAddr common.Address
	startBlock   uint64
	contractABI  abi.ABI
	simulated    bool
}

// 众筹合约ABI定义（简化版）
const contractABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "projectId", "type": "uint256"},
			{"indexed": true, "name": "contributor", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "ContributionMade",
		"type": "event"
	}
]`

// ContributionEvent 链上贡献事件
type ContributionEvent struct {
	ProjectId   int64
	Contributor string
	Amount      decimal.Decimal
	TxHash      string
	BlockNum    uint64
}

func Init(cfg config.ChainConfig) (*Client, error) {
	// 解析ABI
	parsedABI, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	c := &Client{
		chainId:      big.NewInt(cfg.ChainId),
		ContractAddr: common.HexToAddress(cfg.Contract),
		startBlock:   uint64(cfg.StartBlock),
		contractABI:  parsedABI,
	}

	if cfg.RpcUrl == "" {
		logger.Warn("Chain rpc_url not configured, running in simulated mode")
		c.simulated = true
		return c, nil
	}

	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}
	c.client = client

	// 解析私钥
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	c.privateKey = privateKey
	c.fromAddress = crypto.PubkeyToAddress(privateKey.PublicKey)

	return c, nil
}

// Simulated 是否运行在模拟模式
func (c *Client) Simulated() bool {
	return c.simulated
}

// StartBlock 事件监控起始区块
func (c *Client) StartBlock() uint64 {
	return c.startBlock
}

// Send 向目标地址转账，返回交易哈希
func (c *Client) Send(ctx context.Context, toAddress string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("invalid transfer amount: %s", amount)
	}

	if c.simulated {
		hash := simulatedTxHash()
		logger.Info("Simulated transfer of %s to %s: %s", amount, toAddress, hash)
		return hash, nil
	}

	value := amount.Mul(weiPerBase).BigInt()

	nonce, err := c.client.PendingNonceAt(ctx, c.fromAddress)
	if err != nil {
		return "", fmt.Errorf("failed to get pending nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to suggest gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, common.HexToAddress(toAddress), value, 21000, gasPrice, nil)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainId), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}

// GetBalance 查询地址余额（基础币）
func (c *Client) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if c.simulated {
		return decimal.Zero, nil
	}

	wei, err := c.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	return decimal.NewFromBigInt(wei, 0).Div(weiPerBase), nil
}

// GetLatestBlock 获取最新区块号
func (c *Client) GetLatestBlock(ctx context.Context) (uint64, error) {
	if c.simulated {
		return 0, nil
	}

	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

// GetLogs 获取指定区块范围内的合约日志
func (c *Client) GetLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	if c.simulated {
		return nil, nil
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.ContractAddr},
	}

	return c.client.FilterLogs(ctx, query)
}

// ParseContributionEvent 解析贡献事件日志
func (c *Client) ParseContributionEvent(log types.Log) (*ContributionEvent, error) {
	if len(log.Topics) < 3 {
		return nil, fmt.Errorf("invalid ContributionMade event: insufficient topics")
	}
	if log.Topics[0].Hex() != c.contractABI.Events["ContributionMade"].ID.Hex() {
		return nil, fmt.Errorf("unknown event signature: %s", log.Topics[0].Hex())
	}

	unpacked, err := c.contractABI.Unpack("ContributionMade", log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack ContributionMade event: %w", err)
	}
	amountWei, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("invalid ContributionMade event: bad amount")
	}

	return &ContributionEvent{
		ProjectId:   new(big.Int).SetBytes(log.Topics[1].Bytes()).Int64(),
		Contributor: common.BytesToAddress(log.Topics[2].Bytes()).Hex(),
		Amount:      decimal.NewFromBigInt(amountWei, 0).Div(weiPerBase),
		TxHash:      log.TxHash.Hex(),
		BlockNum:    log.BlockNumber,
	}, nil
}

// simulatedTxHash 伪造一个格式一致的交易哈希
func simulatedTxHash() string {
	id := uuid.New()
	return crypto.Keccak256Hash(id[:]).Hex()
}
