// Package event 募资与工厂在每次状态转换时产生的可观察事件
package event

import (
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// 工厂事件
const (
	NewProposal           = "NewProposal"
	ProposalDeclined      = "ProposalDeclined"
	ProposalAccepted      = "ProposalAccepted"
	RaiseDeployed         = "RaiseDeployed"
	ImplementationUpdated = "ImplementationUpdated"
	ProxyAdminUpdated     = "ProxyAdminUpdated"
)

// 募资事件
const (
	SubscriptionProposal      = "SubscriptionProposal"
	SubscriptionAccepted      = "SubscriptionAccepted"
	SubscriptionDeclined      = "SubscriptionDeclined"
	RaiseClosed               = "RaiseClosed"
	UnsuccessfulRaise         = "UnsuccessfulRaise"
	OperatorRaiseFinalization = "OperatorRaiseFinalization"
	IssuerPaid                = "IssuerPaid"
	OperatorClosed            = "OperatorClosed"
	PendingReleased           = "PendingReleased"
	FundsReleased             = "FundsReleased"
)

// 事件来源
const (
	SourceRaise   = "raise"
	SourceFactory = "factory"
)

// Event 一次已提交操作产生的事件
type Event struct {
	Type     string            `json:"type"`
	Source   string            `json:"source"`
	Contract common.Address    `json:"contract"`
	Fields   map[string]string `json:"fields"`
	At       time.Time         `json:"at"`
}

// New 创建事件，kv 为成对的字段名与值
func New(source, typ string, contract common.Address, at time.Time, kv ...string) Event {
	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return Event{Type: typ, Source: source, Contract: contract, Fields: fields, At: at}
}

// Address 读取地址字段
func (e Event) Address(key string) common.Address {
	return common.HexToAddress(e.Fields[key])
}

// Amount 读取十进制金额字段
func (e Event) Amount(key string) *big.Int {
	v, ok := new(big.Int).SetString(e.Fields[key], 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// Uint 读取无符号整数字段
func (e Event) Uint(key string) uint64 {
	v, _ := strconv.ParseUint(e.Fields[key], 10, 64)
	return v
}

// Bool 读取布尔字段
func (e Event) Bool(key string) bool {
	v, _ := strconv.ParseBool(e.Fields[key])
	return v
}
