package closer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const defaultForcedTimeout = 2 * time.Second

// Func освобождает ресурс. ctx ограничивает время на закрытие.
type Func func(ctx context.Context) error

type resource struct {
	name  string
	close Func
}

// Closer останавливает ресурсы приложения в порядке, обратном регистрации.
// Повторные вызовы Close ничего не делают.
type Closer struct {
	mu        sync.Mutex
	resources []resource
	once      sync.Once

	// Сколько ждать ресурсы, не успевшие закрыться до отмены контекста Close.
	forcedTimeout time.Duration
}

func NewCloser(forcedTimeout time.Duration) *Closer {
	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует ресурс. name попадает в текст ошибки.
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resources = append(c.resources, resource{name: name, close: f})
}

// Close закрывает ресурсы по одному, начиная с последнего добавленного.
// Если ctx истекает раньше, все незакрытые ресурсы закрываются параллельно
// с собственным таймаутом forcedTimeout.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		stack := make([]resource, len(c.resources))
		copy(stack, c.resources)
		c.mu.Unlock()

		err = c.closeAll(ctx, stack)
	})

	return err
}

func (c *Closer) closeAll(ctx context.Context, stack []resource) error {
	var (
		errs  []error
		total = len(stack)
	)

	interrupted := func() error {
		closed := total - len(stack)
		errs = append(errs, c.forceClose(stack)...)
		return fmt.Errorf("shutdown interrupted after %d/%d resources: %w",
			closed, total, errors.Join(errs...))
	}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			return interrupted()
		}

		res := stack[len(stack)-1]

		done := make(chan error, 1)
		go func() { done <- res.close(ctx) }()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", res.name, err))
			}
			stack = stack[:len(stack)-1]
		case <-ctx.Done():
			return interrupted()
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown finished with errors: %w", errors.Join(errs...))
	}

	return nil
}

// forceClose закрывает оставшиеся ресурсы одновременно. Ресурс, который
// завис на прерванном контексте, получит новый.
func (c *Closer) forceClose(stack []resource) []error {
	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, res := range stack {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := res.close(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s (forced): %w", res.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
