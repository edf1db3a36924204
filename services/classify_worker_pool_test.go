package services

import (
	"sync"
	"testing"

	"github.com/colin-rod/raindrop-classifier/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyWorkerPoolProcessesAll(t *testing.T) {
	var mu sync.Mutex
	handled := map[int]bool{}

	pool := NewClassifyWorkerPool(3, func(rd *models.Raindrop) {
		mu.Lock()
		handled[rd.ID] = true
		mu.Unlock()
	})
	pool.Start()

	for i := 1; i <= 50; i++ {
		pool.Submit(&models.Raindrop{ID: i})
	}
	pool.Drain()

	// Drain 返回后所有任务必须已处理完
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, handled, 50)
	for i := 1; i <= 50; i++ {
		assert.True(t, handled[i], "raindrop %d not handled", i)
	}
}

func TestClassifyWorkerPoolSubmitBeforeStart(t *testing.T) {
	called := false
	pool := NewClassifyWorkerPool(1, func(rd *models.Raindrop) {
		called = true
	})

	// 未启动时提交直接跳过, 不阻塞也不崩溃
	pool.Submit(&models.Raindrop{ID: 1})
	pool.Drain()

	assert.False(t, called)
}

func TestClassifyWorkerPoolDefaultsWorkerCount(t *testing.T) {
	pool := NewClassifyWorkerPool(0, func(rd *models.Raindrop) {})
	assert.Equal(t, 1, pool.workerCount)
}
