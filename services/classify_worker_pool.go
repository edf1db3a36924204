package services

import (
	"log"
	"sync"

	"github.com/colin-rod/raindrop-classifier/models"
)

// ClassifyWorkerPool 分类任务工作池
// 只并行化对建议器/条目存储的网络调用; 注册表写入由 TagRegistry 自己的锁串行化
type ClassifyWorkerPool struct {
	taskChan    chan *models.Raindrop
	workerCount int
	wg          sync.WaitGroup
	handler     func(*models.Raindrop)
	started     bool
}

// NewClassifyWorkerPool 创建工作池
func NewClassifyWorkerPool(workerCount int, handler func(*models.Raindrop)) *ClassifyWorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &ClassifyWorkerPool{
		taskChan:    make(chan *models.Raindrop, 256),
		workerCount: workerCount,
		handler:     handler,
	}
}

// Start 启动工作池
func (p *ClassifyWorkerPool) Start() {
	if p.started {
		return
	}
	log.Printf("🧵 分类工作池启动: %d workers", p.workerCount)
	p.started = true
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit 提交任务 (队列满时阻塞, 批处理场景不丢任务)
func (p *ClassifyWorkerPool) Submit(rd *models.Raindrop) {
	if !p.started {
		log.Printf("ℹ️ 工作池未启动, 跳过书签 ID: %d", rd.ID)
		return
	}
	p.taskChan <- rd
}

// Drain 关闭入口并等待全部任务处理完
func (p *ClassifyWorkerPool) Drain() {
	if !p.started {
		return
	}
	close(p.taskChan)
	p.wg.Wait()
	p.started = false
	log.Printf("🛑 分类工作池已排空")
}

func (p *ClassifyWorkerPool) worker(id int) {
	defer p.wg.Done()
	log.Printf("👷 Worker %d 准备就绪", id)
	for rd := range p.taskChan {
		p.handler(rd)
	}
}
