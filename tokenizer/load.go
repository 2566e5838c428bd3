package tokenizer

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/tokencounter/config"
	"github.com/BaSui01/tokencounter/types"
)

var setOfflineLoader sync.Once

// Load 在启动时并发构建全部后端, 任一失败即返回错误.
// 错误是 TOKENIZER_NOT_LOADED, 并记录失败的后端键.
func Load(ctx context.Context, cfg config.TokenizersConfig, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "tokenizer_loader"))

	if cfg.Tiktoken.Offline {
		setOfflineLoader.Do(func() {
			tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
		})
	}

	loaders := map[string]func() (Backend, error){
		KeyTiktoken: func() (Backend, error) {
			return NewTiktokenBackend(cfg.Tiktoken.Encoding)
		},
		KeyDeepSeek: func() (Backend, error) {
			return NewHFBackend(KeyDeepSeek, cfg.DeepSeek.Path)
		},
		KeyGPTOSS: func() (Backend, error) {
			return NewHFBackend(KeyGPTOSS, cfg.GPTOSS.Path)
		},
	}

	var mu sync.Mutex
	backends := make(map[string]Backend, len(loaders))
	g, gctx := errgroup.WithContext(ctx)
	for key, load := range loaders {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			b, err := load()
			if err != nil {
				return types.NewError(types.ErrTokenizerNotLoaded, "failed to load tokenizer "+key).
					WithHTTPStatus(http.StatusServiceUnavailable).
					WithTokenizer(key).
					WithCause(err)
			}
			logger.Info("tokenizer loaded",
				zap.String("tokenizer", key),
				zap.String("backend", b.Name()),
				zap.Duration("duration", time.Since(start)),
			)
			mu.Lock()
			backends[key] = b
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewRegistry(backends)
}
