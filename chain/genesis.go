// chain/genesis.go
package chain

import (
	"encoding/json"
	"fmt"
	"os"

	"ledger/model"
)

// GenesisFile 创世配置。指令按声明顺序进同一笔创世交易，
// CreatedMs 固定写在文件里，保证各节点算出同一个创世哈希。
type GenesisFile struct {
	Creator      string              `json:"creator"`
	CreatedMs    int64               `json:"created_ms"`
	Instructions []model.Instruction `json:"instructions"`
}

// LoadGenesis 读创世配置并组装成创世交易
func LoadGenesis(path string) ([]*model.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis file: %w", err)
	}
	var gf GenesisFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parse genesis file: %w", err)
	}
	if gf.Creator == "" {
		return nil, fmt.Errorf("genesis file has no creator")
	}
	if len(gf.Instructions) == 0 {
		return nil, fmt.Errorf("genesis file has no instructions")
	}
	if gf.CreatedMs <= 0 {
		gf.CreatedMs = 1
	}
	tx := &model.Transaction{
		Payload: model.TransactionPayload{
			Creator:      gf.Creator,
			Instructions: gf.Instructions,
			CreatedMs:    gf.CreatedMs,
		},
	}
	return []*model.Transaction{tx}, nil
}
