package worker

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool управляет пулом воркеров для независимых задач.
// Разрешение метаданных каждого файла не трогает общее состояние,
// поэтому задачи выполняются без координации между собой
type Pool struct {
	numWorkers int
	tasks      chan func()
	wg         sync.WaitGroup

	// Статистика
	submitted int64
	completed int64
}

// NewPool создает новый пул воркеров
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	return &Pool{
		numWorkers: numWorkers,
		tasks:      make(chan func(), numWorkers*4),
	}
}

// Start запускает воркеры
func (p *Pool) Start() {
	log.Printf("Starting worker pool with %d workers", p.numWorkers)

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop закрывает очередь и дожидается завершения всех задач
func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
	log.Printf("Worker pool stopped: %d/%d tasks completed",
		atomic.LoadInt64(&p.completed), atomic.LoadInt64(&p.submitted))
}

// Submit добавляет задачу в очередь, блокируясь при переполнении
func (p *Pool) Submit(task func()) {
	atomic.AddInt64(&p.submitted, 1)
	p.tasks <- task
}

// Completed возвращает количество выполненных задач
func (p *Pool) Completed() int64 {
	return atomic.LoadInt64(&p.completed)
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
		atomic.AddInt64(&p.completed, 1)
	}
}
