package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// HashBytes returns the hex SHA-256 digest of content.
func HashBytes(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// HashFile returns the hex SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Current hashes every relative path under root on a bounded worker pool.
// Files that cannot be read are left out of the returned state and reported
// in the error map, so that they are retried on the next run.
func Current(ctx context.Context, root string, rels []string, workers int) (State, map[string]error, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, nil, fmt.Errorf("create hash pool: %w", err)
	}
	defer pool.Release()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		st     = make(State, len(rels))
		failed = make(map[string]error)
	)

	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, nil, err
		}

		rel := rel
		wg.Add(1)
		task := func() {
			defer wg.Done()
			hash, err := HashFile(filepath.Join(root, filepath.FromSlash(rel)))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[rel] = err
				return
			}
			st[rel] = hash
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			mu.Lock()
			failed[rel] = err
			mu.Unlock()
		}
	}
	wg.Wait()

	return st, failed, ctx.Err()
}
