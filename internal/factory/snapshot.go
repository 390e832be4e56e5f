package factory

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Snapshot 工厂配置与提案的持久化形式
type Snapshot struct {
	Address        common.Address `json:"address"`
	ProxyAdmin     common.Address `json:"proxy_admin"`
	Implementation common.Address `json:"implementation"`
	Records        []Record       `json:"records"`
}

func (f *Factory) Snapshot() Snapshot {
	return snapshotOf(f.deps.Address, f.cfg)
}

func snapshotOf(addr common.Address, c *config) Snapshot {
	s := Snapshot{
		Address:        addr,
		ProxyAdmin:     c.proxyAdmin,
		Implementation: c.implementation,
		Records:        make([]Record, 0, len(c.records)),
	}
	for _, r := range c.records {
		s.Records = append(s.Records, r)
	}
	sort.Slice(s.Records, func(i, j int) bool { return s.Records[i].ID < s.Records[j].ID })
	return s
}

// Restore 从快照重建工厂；实例需由调用方逐个 Adopt
func Restore(s Snapshot, deps Deps) (*Factory, error) {
	if s.Address != deps.Address {
		return nil, fmt.Errorf("snapshot factory %s does not match %s", s.Address.Hex(), deps.Address.Hex())
	}
	f := New(deps, s.ProxyAdmin, s.Implementation)
	seen := make(map[common.Address]string)
	for _, r := range s.Records {
		if r.ID == "" {
			return nil, fmt.Errorf("record with empty id")
		}
		if _, dup := f.cfg.records[r.ID]; dup {
			return nil, fmt.Errorf("record %s listed twice", r.ID)
		}
		if r.Deployed() {
			if other, dup := seen[r.Instance]; dup {
				return nil, fmt.Errorf("instance %s shared by %s and %s", r.Instance.Hex(), other, r.ID)
			}
			seen[r.Instance] = r.ID
		}
		f.cfg.records[r.ID] = r
	}
	return f, nil
}
