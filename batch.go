package dzextract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/dzextract/container"
)

// DefaultWorkers is the number of stacks converted concurrently by Batch
const DefaultWorkers = 4

func (e *Extractor) findDirectories(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(dir string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden directories and the files inside them
			if info.Name()[0] == '.' && dir != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsDir() {
				return nil
			}

			select {
			case out <- dir:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

// current reports whether the catalog already holds a conversion of stack
// into dst from identical channel files
func (e *Extractor) current(stack *Stack, dst string) (bool, error) {
	if e.catalog == nil {
		return false, nil
	}
	channels, err := Fingerprint(stack)
	if err != nil {
		return false, err
	}
	return e.catalog.Current(dst, channels)
}

func (e *Extractor) convertDirectory(base, dest, dir string) error {
	stack, err := Discover(dir, e.cfg.ColorTables())
	switch {
	case errors.Is(err, ErrNothingToDo):
		return nil
	case errors.Is(err, container.ErrUnsupported):
		e.logger.Printf("Skipping \"%s\": %s\n", dir, err)
		return nil
	case err != nil:
		return err
	}

	rel, err := filepath.Rel(base, dir)
	if err != nil {
		return err
	}
	dst := filepath.Join(dest, rel)

	ok, err := e.current(stack, dst)
	if err != nil {
		return err
	}
	if ok {
		e.logger.Printf("\"%s\" is up to date\n", dst)
		return nil
	}

	if _, err := e.ExtractStack(stack, dst); err != nil {
		if errors.Is(err, container.ErrUnsupported) {
			e.logger.Printf("Skipping \"%s\": %s\n", dir, err)
			return nil
		}
		return err
	}

	return nil
}

func (e *Extractor) directoryWorker(ctx context.Context, base, dest string, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for dir := range in {
			if err := e.convertDirectory(base, dest, dir); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Batch converts every directory below root holding channel files into the
// same relative directory below dest, using workers concurrent conversions.
// Directories with unsupported input are logged and skipped.
func (e *Extractor) Batch(root, dest string, workers int) error {
	base, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	if workers < 1 {
		workers = DefaultWorkers
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	dirs, errc, err := e.findDirectories(ctx, base)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < workers; i++ {
		errc, err := e.directoryWorker(ctx, base, dest, dirs)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
