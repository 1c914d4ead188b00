package workflow

import (
	"fmt"
	"sync"

	"github.com/Jeffail/tunny"
)

// runTasks runs each task on its own pool worker and waits for all of them.
// The returned slice holds one entry per task, nil on success.
func runTasks(tasks ...func() error) []error {
	if len(tasks) == 0 {
		return nil
	}
	pool := tunny.NewFunc(len(tasks), func(payload any) any {
		task, ok := payload.(func() error)
		if !ok {
			return fmt.Errorf("unexpected task payload %T", payload)
		}
		return task()
	})
	defer pool.Close()

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err, ok := pool.Process(task).(error); ok {
				errs[i] = err
			}
		}()
	}
	wg.Wait()
	return errs
}
