package scheduler

import (
	"log"
	"time"

	"github.com/retroframe/retroframe/internal/scanner"
)

// Scheduler запускает переиндексацию каждую полночь.
// Первая индексация выполняется сразу при старте приложения
type Scheduler struct {
	scanner  *scanner.Scanner
	stopChan chan struct{}
}

// NewScheduler создает новый планировщик
func NewScheduler(scanner *scanner.Scanner) *Scheduler {
	return &Scheduler{
		scanner:  scanner,
		stopChan: make(chan struct{}),
	}
}

// Start запускает цикл планировщика в фоне
func (s *Scheduler) Start() {
	go s.run()
	log.Println("Scheduler started, next index run at midnight")
}

// Stop останавливает планировщик
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Scheduler stopped")
}

func (s *Scheduler) run() {
	for {
		timer := time.NewTimer(untilNextMidnight(time.Now()))

		select {
		case <-timer.C:
			if err := s.scanner.Refresh(); err != nil {
				log.Printf("Scheduled refresh failed: %v", err)
			}
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}

// untilNextMidnight возвращает время до ближайшей полуночи
func untilNextMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now)
}
