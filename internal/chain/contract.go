package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/blues/raise/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract 合约工具类
type Contract struct {
	address common.Address
	abi     abi.ABI
	name    string
	chainId int64
}

// NewContract 从 ABI 文件创建合约实例
func NewContract(name string, contractCfg config.ContractConfig, chainCfg config.ChainConfig) (*Contract, error) {
	// 未配置 ABI 文件时按 ERC20 处理
	parsed := DefaultERC20ABI()
	if contractCfg.ABIPath != "" {
		abiData, err := os.ReadFile(contractCfg.ABIPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ABI from %s: %w", contractCfg.ABIPath, err)
		}
		if parsed, err = ParseABI(abiData); err != nil {
			return nil, err
		}
	}
	if !common.IsHexAddress(contractCfg.Address) {
		return nil, fmt.Errorf("invalid contract address %q", contractCfg.Address)
	}
	return &Contract{
		address: common.HexToAddress(contractCfg.Address),
		abi:     parsed,
		name:    name,
		chainId: chainCfg.ChainId,
	}, nil
}

// ParseABI 同时支持完整编译输出与纯 ABI 数组
func ParseABI(data []byte) (abi.ABI, error) {
	var compiled struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(data, &compiled); err == nil && compiled.ABI != nil {
		parsed, err := abi.JSON(bytes.NewReader(compiled.ABI))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse ABI from compiled output: %w", err)
		}
		return parsed, nil
	}
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return parsed, nil
}

func (c *Contract) GetAddress() common.Address { return c.address }

func (c *Contract) GetABI() abi.ABI { return c.abi }

func (c *Contract) GetName() string { return c.name }

func (c *Contract) GetChainId() int64 { return c.chainId }

// ParseEvent 解析事件日志，未知签名返回错误
func (c *Contract) ParseEvent(log types.Log) (map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log without topics")
	}
	ev, err := c.abi.EventByID(log.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("unknown event %s in contract %s", log.Topics[0].Hex(), c.name)
	}

	result := map[string]interface{}{
		"eventName":   ev.Name,
		"contract":    c.name,
		"txHash":      log.TxHash.Hex(),
		"blockNumber": log.BlockNumber,
		"logIndex":    log.Index,
	}

	// 索引参数
	topic := 1
	for _, input := range ev.Inputs {
		if !input.Indexed {
			continue
		}
		if topic >= len(log.Topics) {
			break
		}
		result[input.Name] = topicValue(log.Topics[topic], input.Type)
		topic++
	}

	// 非索引参数
	if len(log.Data) > 0 {
		values := make(map[string]interface{})
		if err := ev.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
			return nil, fmt.Errorf("unpack %s: %w", ev.Name, err)
		}
		for k, v := range values {
			result[k] = v
		}
	}
	return result, nil
}

func topicValue(topic common.Hash, t abi.Type) interface{} {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		return new(big.Int).SetBytes(topic.Bytes())
	case abi.AddressTy:
		return common.BytesToAddress(topic.Bytes())
	case abi.BoolTy:
		return topic.Big().Sign() > 0
	default:
		return topic.Hex()
	}
}
