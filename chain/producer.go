// chain/producer.go
// 定时出块循环。共识外置后，单机部署就是"到点了就把池里的打包"。
package chain

import (
	"errors"
	"sync"
	"time"

	"ledger/config"
	"ledger/logs"
)

// Producer 周期性驱动 Assembler 出块
type Producer struct {
	assembler *Assembler
	orderer   Orderer
	interval  time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewProducer(assembler *Assembler, orderer Orderer, cfg *config.Config) *Producer {
	interval := time.Second
	if cfg != nil && cfg.Chain.BlockInterval > 0 {
		interval = cfg.Chain.BlockInterval
	}
	return &Producer{
		assembler: assembler,
		orderer:   orderer,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

func (p *Producer) Start() {
	p.wg.Add(1)
	go p.runLoop()
	logs.Info("[Chain] block producer started, interval=%s", p.interval)
}

func (p *Producer) Stop() {
	close(p.stopChan)
	p.wg.Wait()
	logs.Info("[Chain] block producer stopped")
}

func (p *Producer) runLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			if _, err := p.assembler.AssembleNext(p.orderer); err != nil {
				if errors.Is(err, ErrNoTransactions) {
					continue
				}
				logs.Error("[Chain] assemble failed: %v", err)
			}
		}
	}
}
